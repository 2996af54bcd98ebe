package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ekaya-inc/safecode-engine/pkg/apperrors"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

type mockBrandRepository struct {
	brands map[uuid.UUID]*models.Brand
	err    error
}

func newMockBrandRepository(brands ...*models.Brand) *mockBrandRepository {
	m := &mockBrandRepository{brands: map[uuid.UUID]*models.Brand{}}
	for _, b := range brands {
		m.brands[b.ID] = b
	}
	return m
}

func (m *mockBrandRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.brands[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return b, nil
}

type mockCodeRuleRepository struct {
	rules []models.CodeRule
	err   error
}

func (m *mockCodeRuleRepository) ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]models.CodeRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.CodeRule
	for _, r := range m.rules {
		if r.BrandID == brandID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockDOMSelectorRepository struct {
	selectors []models.DOMSelector
	err       error
	calls     int
}

func (m *mockDOMSelectorRepository) ListByPageType(ctx context.Context, brandID uuid.UUID, pageType string) ([]models.DOMSelector, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.DOMSelector
	for _, s := range m.selectors {
		if s.BrandID == brandID && s.PageType == pageType {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockTemplateRepository struct {
	template *models.Template
	err      error
}

func (m *mockTemplateRepository) GetActive(ctx context.Context, brandID uuid.UUID, testType string) (*models.Template, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.template == nil || m.template.BrandID != brandID || m.template.TestType != testType {
		return nil, nil
	}
	return m.template, nil
}

// memCodeRepository stores generated code in memory with the same CAS
// semantics as the Postgres repository.
type memCodeRepository struct {
	mu        sync.Mutex
	codes     map[uuid.UUID]models.GeneratedCode
	createErr error
	applyErr  error
}

func newMemCodeRepository() *memCodeRepository {
	return &memCodeRepository{codes: map[uuid.UUID]models.GeneratedCode{}}
}

func (m *memCodeRepository) Create(ctx context.Context, code *models.GeneratedCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	m.codes[code.ID] = *code
	return nil
}

func (m *memCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (m *memCodeRepository) ListByBrand(ctx context.Context, brandID uuid.UUID, filters models.GeneratedCodeFilters) ([]*models.GeneratedCode, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.GeneratedCode
	for _, c := range m.codes {
		if c.BrandID != brandID {
			continue
		}
		if filters.Status != nil && c.Status != *filters.Status {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memCodeRepository) ApplyStatusChange(ctx context.Context, change models.StatusChange) (*models.GeneratedCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	c, ok := m.codes[change.CodeID]
	if !ok || c.Status != change.From {
		return nil, apperrors.ErrStaleStatus
	}

	at := change.At
	switch change.To {
	case models.StatusReviewed, models.StatusApproved, models.StatusRejected:
		c.ReviewerID = change.ReviewerID
		c.ReviewedAt = &at
	}
	switch change.To {
	case models.StatusApproved:
		c.ApprovedAt = &at
	case models.StatusRejected:
		c.RejectionReason = change.RejectionReason
	case models.StatusDeployed:
		c.DeployedAt = &at
	}
	if change.ReviewerNotes != nil {
		c.ReviewerNotes = change.ReviewerNotes
	}
	c.Status = change.To
	c.UpdatedAt = at
	m.codes[c.ID] = c
	return &c, nil
}

// setStatus forces a stored status, simulating a concurrent writer.
func (m *memCodeRepository) setStatus(id uuid.UUID, status models.CodeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.codes[id]
	c.Status = status
	m.codes[id] = c
}

type memAuditRepository struct {
	mu        sync.Mutex
	entries   []models.AuditLogEntry
	seq       int64
	createErr error
}

func (m *memAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	entry.Seq = m.seq
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditRepository) List(ctx context.Context, filters models.AuditFilters) ([]*models.AuditLogEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditLogEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if filters.GeneratedCodeID != nil && e.GeneratedCodeID != *filters.GeneratedCodeID {
			continue
		}
		if filters.ActorID != nil && e.ActorID != *filters.ActorID {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		out = append(out, &e)
	}
	return out, len(out), nil
}

func (m *memAuditRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// fakeTxRunner snapshots both in-memory stores and restores them when fn fails.
type fakeTxRunner struct {
	codes *memCodeRepository
	audit *memAuditRepository

	commits   int
	rollbacks int
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.codes.mu.Lock()
	codes := make(map[uuid.UUID]models.GeneratedCode, len(f.codes.codes))
	for k, v := range f.codes.codes {
		codes[k] = v
	}
	f.codes.mu.Unlock()

	f.audit.mu.Lock()
	entries := append([]models.AuditLogEntry(nil), f.audit.entries...)
	seq := f.audit.seq
	f.audit.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.codes.mu.Lock()
		f.codes.codes = codes
		f.codes.mu.Unlock()

		f.audit.mu.Lock()
		f.audit.entries = entries
		f.audit.seq = seq
		f.audit.mu.Unlock()

		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.CodeEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.CodeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
