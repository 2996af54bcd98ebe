package llm

import "context"

// MockCodeGenerator is a configurable CodeGenerator for tests.
type MockCodeGenerator struct {
	// GenerateFunc is called by Generate. If nil, Response is returned.
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// Response is returned when GenerateFunc is nil.
	Response string

	ProviderName string
	ModelName    string

	// Call tracking for verification
	Calls    int
	Requests []GenerateRequest
}

var _ CodeGenerator = (*MockCodeGenerator)(nil)

// NewMockCodeGenerator creates a mock that always returns response.
func NewMockCodeGenerator(response string) *MockCodeGenerator {
	return &MockCodeGenerator{
		Response:     response,
		ProviderName: "mock",
		ModelName:    "mock-model",
	}
}

// Generate implements CodeGenerator.
func (m *MockCodeGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	m.Calls++
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{Content: m.Response}, nil
}

// Provider implements CodeGenerator.
func (m *MockCodeGenerator) Provider() string { return m.ProviderName }

// Model implements CodeGenerator.
func (m *MockCodeGenerator) Model() string { return m.ModelName }
