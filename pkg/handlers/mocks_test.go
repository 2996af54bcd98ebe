package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/services"
)

type mockCodeService struct {
	ingestReq services.IngestRequest
	listArgs  models.GeneratedCodeFilters
	code      *models.GeneratedCode
	codes     []*models.GeneratedCode
	total     int
	err       error
}

func (m *mockCodeService) Ingest(ctx context.Context, req services.IngestRequest) (*models.GeneratedCode, error) {
	m.ingestReq = req
	return m.code, m.err
}

func (m *mockCodeService) Get(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.GeneratedCode, error) {
	return m.code, m.err
}

func (m *mockCodeService) List(ctx context.Context, brandID uuid.UUID, actor models.Actor, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error) {
	m.listArgs = filters
	return m.codes, m.total, m.err
}

type mockValidationService struct {
	req    services.ScoreRequest
	result *services.ScoreResult
	err    error
}

func (m *mockValidationService) Score(ctx context.Context, req services.ScoreRequest) (*services.ScoreResult, error) {
	m.req = req
	return m.result, m.err
}

type mockGenerationService struct {
	enabled bool
	req     services.GenerationRequest
	code    *models.GeneratedCode
	err     error
	calls   int
}

func (m *mockGenerationService) Enabled() bool { return m.enabled }

func (m *mockGenerationService) Generate(ctx context.Context, req services.GenerationRequest) (*models.GeneratedCode, error) {
	m.calls++
	m.req = req
	return m.code, m.err
}

type mockReviewService struct {
	req    services.TransitionRequest
	result *services.TransitionResult
	opts   *services.TransitionOptions
	err    error
	calls  int
}

func (m *mockReviewService) Transition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error) {
	m.calls++
	m.req = req
	return m.result, m.err
}

func (m *mockReviewService) AvailableTransitions(ctx context.Context, codeID uuid.UUID, actor models.Actor) (*services.TransitionOptions, error) {
	return m.opts, m.err
}

type mockAuditService struct {
	filters models.AuditFilters
	codeID  uuid.UUID
	entries []*models.AuditLogEntry
	total   int
	err     error
	calls   int
}

func (m *mockAuditService) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error) {
	m.calls++
	m.filters = filters
	return m.entries, m.total, m.err
}

func (m *mockAuditService) ListForCode(ctx context.Context, codeID uuid.UUID, actor models.Actor, limit, offset int) ([]*models.AuditLogEntry, int, error) {
	m.calls++
	m.codeID = codeID
	m.filters = models.AuditFilters{GeneratedCodeID: &codeID, Limit: limit, Offset: offset}
	return m.entries, m.total, m.err
}

var errBoom = errors.New("boom")

func testActor(role string, brandIDs ...uuid.UUID) models.Actor {
	return models.Actor{ID: uuid.New(), Role: role, BrandIDs: brandIDs}
}

// newRequest builds a request carrying actor and the given path values.
func newRequest(t *testing.T, method, target string, body any, actor *models.Actor, pathValues map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if actor != nil {
		req = req.WithContext(models.WithActor(req.Context(), *actor))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
