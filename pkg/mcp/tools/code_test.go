package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
	"github.com/ekaya-inc/safecode-engine/pkg/validation"
)

type mockValidationService struct {
	req    services.ScoreRequest
	result *services.ScoreResult
	err    error
	calls  int
}

func (m *mockValidationService) Score(ctx context.Context, req services.ScoreRequest) (*services.ScoreResult, error) {
	m.calls++
	m.req = req
	return m.result, m.err
}

type mockCodeService struct {
	code *models.GeneratedCode
	err  error
}

func (m *mockCodeService) Ingest(ctx context.Context, req services.IngestRequest) (*models.GeneratedCode, error) {
	return nil, errors.New("not used")
}

func (m *mockCodeService) Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.GeneratedCode, error) {
	return m.code, m.err
}

func (m *mockCodeService) List(ctx context.Context, brandID uuid.UUID, actor models.Actor, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error) {
	return nil, 0, errors.New("not used")
}

type mockReviewService struct {
	opts *services.TransitionOptions
	err  error
}

func (m *mockReviewService) Transition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error) {
	return nil, errors.New("not used")
}

func (m *mockReviewService) AvailableTransitions(ctx context.Context, codeID uuid.UUID, actor models.Actor) (*services.TransitionOptions, error) {
	return m.opts, m.err
}

type stubScopes struct {
	calls   int
	cleaned int
	err     error
}

func (s *stubScopes) WithScope(ctx context.Context) (context.Context, func(), error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return ctx, func() { s.cleaned++ }, nil
}

type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, name string, args map[string]any) toolResponse {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)

	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":%s}`, params)
	raw, err := json.Marshal(s.HandleMessage(ctx, []byte(msg)))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func (r toolResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.Nil(t, r.Error)
	require.NotEmpty(t, r.Result.Content)
	require.NoError(t, json.Unmarshal([]byte(r.Result.Content[0].Text), dst))
}

type codeToolsEnv struct {
	server     *server.MCPServer
	validation *mockValidationService
	codes      *mockCodeService
	review     *mockReviewService
	scopes     *stubScopes
}

func newCodeToolsEnv() *codeToolsEnv {
	env := &codeToolsEnv{
		server:     server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true)),
		validation: &mockValidationService{},
		codes:      &mockCodeService{},
		review:     &mockReviewService{},
		scopes:     &stubScopes{},
	}
	RegisterCodeTools(env.server, &CodeToolDeps{
		Scopes:     env.scopes,
		Validation: env.validation,
		Codes:      env.codes,
		Review:     env.review,
		Logger:     zap.NewNop(),
	})
	return env
}

func actorCtx(role string, brandIDs ...uuid.UUID) context.Context {
	return models.WithActor(context.Background(), models.Actor{ID: uuid.New(), Role: role, BrandIDs: brandIDs})
}

func TestValidateCode_Success(t *testing.T) {
	env := newCodeToolsEnv()
	brandID := uuid.New()
	env.validation.result = &services.ScoreResult{
		PageType: "pdp",
		Breakdown: &models.ConfidenceBreakdown{
			OverallScore:   0.72,
			Recommendation: models.RecommendReviewCarefully,
		},
	}

	resp := callTool(t, env.server, actorCtx(models.RoleBrandUser, brandID), "validate_code", map[string]any{
		"brand_id":         brandID.String(),
		"test_type":        "pdp",
		"code":             "document.querySelector('#add-to-cart')",
		"request_metadata": map[string]any{"selector": "#add-to-cart"},
	})

	assert.False(t, resp.Result.IsError)
	var out validateCodeResponse
	resp.decode(t, &out)
	assert.Equal(t, brandID, out.BrandID)
	assert.Equal(t, "pdp", out.PageType)
	assert.Equal(t, models.RecommendReviewCarefully, out.Breakdown.Recommendation)

	assert.Equal(t, "pdp", env.validation.req.TestType)
	assert.Equal(t, "#add-to-cart", env.validation.req.RequestMetadata["selector"])
	assert.Equal(t, 1, env.scopes.calls)
	assert.Equal(t, 1, env.scopes.cleaned)
}

func TestValidateCode_ActionableErrors(t *testing.T) {
	brandID := uuid.New()

	tests := []struct {
		name     string
		ctx      context.Context
		args     map[string]any
		svcErr   error
		wantCode string
	}{
		{"missing code", actorCtx(models.RoleBrandUser, brandID), map[string]any{"brand_id": brandID.String(), "test_type": "pdp"}, nil, "invalid_parameters"},
		{"bad brand id", actorCtx(models.RoleBrandUser, brandID), map[string]any{"brand_id": "acme", "test_type": "pdp", "code": "x"}, nil, "invalid_parameters"},
		{"other brand", actorCtx(models.RoleBrandUser, uuid.New()), map[string]any{"brand_id": brandID.String(), "test_type": "pdp", "code": "x"}, nil, "forbidden"},
		{"deployer", actorCtx(models.RoleDeployer), map[string]any{"brand_id": brandID.String(), "test_type": "pdp", "code": "x"}, nil, "forbidden"},
		{"input error", actorCtx(models.RoleBrandUser, brandID), map[string]any{"brand_id": brandID.String(), "test_type": "search", "code": "x"}, validation.NewInputError("test_type", "unknown test type"), "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCodeToolsEnv()
			env.validation.err = tt.svcErr

			resp := callTool(t, env.server, tt.ctx, "validate_code", tt.args)

			require.True(t, resp.Result.IsError)
			var out ErrorResponse
			resp.decode(t, &out)
			assert.True(t, out.Error)
			assert.Equal(t, tt.wantCode, out.Code)
		})
	}
}

func TestValidateCode_SystemErrorIsNotToolResult(t *testing.T) {
	env := newCodeToolsEnv()
	brandID := uuid.New()
	env.validation.err = errors.New("connection reset")

	resp := callTool(t, env.server, actorCtx(models.RoleBrandUser, brandID), "validate_code", map[string]any{
		"brand_id": brandID.String(), "test_type": "pdp", "code": "x",
	})

	assert.NotNil(t, resp.Error)
}

func TestValidateCode_Unauthenticated(t *testing.T) {
	env := newCodeToolsEnv()

	resp := callTool(t, env.server, context.Background(), "validate_code", map[string]any{
		"brand_id": uuid.NewString(), "test_type": "pdp", "code": "x",
	})

	assert.NotNil(t, resp.Error)
	assert.Zero(t, env.validation.calls)
}

func TestGetCodeStatus(t *testing.T) {
	env := newCodeToolsEnv()
	brandID := uuid.New()
	id := uuid.New()
	env.codes.code = &models.GeneratedCode{
		ID:              id,
		BrandID:         brandID,
		TestType:        "cart",
		Status:          models.StatusGenerated,
		ConfidenceScore: 0.64,
		RequiresReview:  true,
		Breakdown:       &models.ConfidenceBreakdown{Recommendation: models.RecommendReviewCarefully},
	}
	env.review.opts = &services.TransitionOptions{
		CodeID:  id,
		Current: models.StatusGenerated,
		Targets: []models.CodeStatus{models.StatusReviewed, models.StatusApproved, models.StatusRejected},
	}

	resp := callTool(t, env.server, actorCtx(models.RoleBrandAdmin, brandID), "get_code_status", map[string]any{"id": id.String()})

	assert.False(t, resp.Result.IsError)
	var out codeStatusResponse
	resp.decode(t, &out)
	assert.Equal(t, id, out.ID)
	assert.Equal(t, models.StatusGenerated, out.Status)
	assert.Equal(t, models.RecommendReviewCarefully, out.Recommendation)
	assert.True(t, out.RequiresReview)
	assert.Len(t, out.AvailableTransitions, 3)
}

func TestGetCodeStatus_NotFound(t *testing.T) {
	env := newCodeToolsEnv()
	env.codes.err = fmt.Errorf("failed to load: %w", apperrors.ErrNotFound)

	resp := callTool(t, env.server, actorCtx(models.RoleSuperAdmin), "get_code_status", map[string]any{"id": uuid.NewString()})

	require.True(t, resp.Result.IsError)
	var out ErrorResponse
	resp.decode(t, &out)
	assert.Equal(t, "not_found", out.Code)
}

func TestRegisterCodeTools_ListsTools(t *testing.T) {
	env := newCodeToolsEnv()

	raw, err := json.Marshal(env.server.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))

	names := []string{}
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"validate_code", "get_code_status"}, names)
}
