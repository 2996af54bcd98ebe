package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

// ScopeProvider attaches a database scope to a tool call's context.
type ScopeProvider interface {
	WithScope(ctx context.Context) (context.Context, func(), error)
}

// CodeToolDeps contains dependencies for the code tools.
type CodeToolDeps struct {
	Scopes     ScopeProvider
	Validation services.ValidationService
	Codes      services.GeneratedCodeService
	Review     services.ReviewService
	Logger     *zap.Logger
}

// RegisterCodeTools registers validate_code and get_code_status.
func RegisterCodeTools(s *server.MCPServer, deps *CodeToolDeps) {
	registerValidateCodeTool(s, deps)
	registerGetCodeStatusTool(s, deps)
}

type validateCodeResponse struct {
	BrandID   uuid.UUID                   `json:"brand_id"`
	PageType  string                      `json:"page_type"`
	Breakdown *models.ConfidenceBreakdown `json:"confidence_breakdown"`
}

type codeStatusResponse struct {
	ID                   uuid.UUID             `json:"id"`
	BrandID              uuid.UUID             `json:"brand_id"`
	TestType             string                `json:"test_type"`
	Status               models.CodeStatus     `json:"status"`
	ConfidenceScore      float64               `json:"confidence_score"`
	Recommendation       models.Recommendation `json:"recommendation,omitempty"`
	RequiresReview       bool                  `json:"requires_review"`
	RejectionReason      *string               `json:"rejection_reason,omitempty"`
	AvailableTransitions []models.CodeStatus   `json:"available_transitions"`
}

// acquireScope resolves the caller and a scoped context. The cleanup function
// must be called when the scope is no longer needed.
func acquireScope(ctx context.Context, deps *CodeToolDeps) (models.Actor, context.Context, func(), error) {
	actor, err := auth.RequireActorFromContext(ctx)
	if err != nil {
		return models.Actor{}, nil, nil, err
	}
	if deps.Scopes == nil {
		return actor, ctx, func() {}, nil
	}
	scoped, cleanup, err := deps.Scopes.WithScope(ctx)
	if err != nil {
		return models.Actor{}, nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return actor, scoped, cleanup, nil
}

// registerValidateCodeTool adds validate_code, a dry-run scoring call that stores nothing.
func registerValidateCodeTool(s *server.MCPServer, deps *CodeToolDeps) {
	tool := mcp.NewTool(
		"validate_code",
		mcp.WithDescription(
			"Score an A/B-test JavaScript snippet against a brand's coding rules, DOM selector catalog, and template. "+
				"Returns the confidence breakdown with rule violations, invalid selectors, and a recommendation "+
				"(safe_to_use, review_carefully, needs_fixes). Nothing is stored.",
		),
		mcp.WithString("brand_id", mcp.Required(), mcp.Description("Brand UUID")),
		mcp.WithString("test_type", mcp.Required(),
			mcp.Description("Page the test runs on"),
			mcp.Enum(models.ValidTestTypes...)),
		mcp.WithString("code", mcp.Required(), mcp.Description("The JavaScript snippet to score")),
		mcp.WithObject("request_metadata", mcp.Description("Optional request context; selectors named here count as user provided")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawBrandID, err := req.RequireString("brand_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		brandID, err := uuid.Parse(rawBrandID)
		if err != nil {
			return NewErrorResult("invalid_parameters", "brand_id must be a UUID"), nil
		}
		testType, err := req.RequireString("test_type")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		code, err := req.RequireString("code")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		metadata, _ := req.GetArguments()["request_metadata"].(map[string]any)

		actor, scopedCtx, cleanup, err := acquireScope(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		if !actor.CanAuthor(brandID) {
			return NewErrorResult("forbidden", "no access to score code for this brand"), nil
		}

		res, err := deps.Validation.Score(scopedCtx, services.ScoreRequest{
			BrandID:         brandID,
			TestType:        testType,
			Code:            code,
			RequestMetadata: metadata,
		})
		if err != nil {
			if result := asErrorResult(err); result != nil {
				return result, nil
			}
			deps.Logger.Error("validate_code failed",
				zap.String("brand_id", brandID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("failed to score code: %w", err)
		}

		return jsonResult(validateCodeResponse{BrandID: brandID, PageType: res.PageType, Breakdown: res.Breakdown})
	})
}

// registerGetCodeStatusTool adds get_code_status for checking where a stored snippet is in review.
func registerGetCodeStatusTool(s *server.MCPServer, deps *CodeToolDeps) {
	tool := mcp.NewTool(
		"get_code_status",
		mcp.WithDescription(
			"Get the review status of a stored generated snippet, its confidence score and recommendation, "+
				"and the transitions the caller's role may perform next.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Generated code UUID")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := req.RequireString("id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return NewErrorResult("invalid_parameters", "id must be a UUID"), nil
		}

		actor, scopedCtx, cleanup, err := acquireScope(ctx, deps)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		code, err := deps.Codes.Get(scopedCtx, id, actor)
		if err != nil {
			if result := asErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to get generated code: %w", err)
		}

		opts, err := deps.Review.AvailableTransitions(scopedCtx, id, actor)
		if err != nil {
			if result := asErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to list transitions: %w", err)
		}

		resp := codeStatusResponse{
			ID:                   code.ID,
			BrandID:              code.BrandID,
			TestType:             code.TestType,
			Status:               code.Status,
			ConfidenceScore:      code.ConfidenceScore,
			RequiresReview:       code.RequiresReview,
			RejectionReason:      code.RejectionReason,
			AvailableTransitions: opts.Targets,
		}
		if code.Breakdown != nil {
			resp.Recommendation = code.Breakdown.Recommendation
		}
		return jsonResult(resp)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
