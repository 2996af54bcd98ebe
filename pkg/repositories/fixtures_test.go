//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/testhelpers"
)

// repoTestContext holds a scoped context and a brand unique to one test.
// The audit log cannot be cleaned up, so tests isolate by brand instead.
type repoTestContext struct {
	t        *testing.T
	engineDB *testhelpers.EngineDB
	ctx      context.Context
	brandID  uuid.UUID
}

func setupRepoTest(t *testing.T) *repoTestContext {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)
	tc := &repoTestContext{
		t:        t,
		engineDB: engineDB,
		ctx:      engineDB.ScopedContext(t),
	}
	tc.brandID = tc.createBrand(models.BrandStatusActive)
	return tc
}

func (tc *repoTestContext) exec(sql string, args ...any) {
	tc.t.Helper()
	_, err := tc.engineDB.DB.Pool.Exec(context.Background(), sql, args...)
	require.NoError(tc.t, err)
}

func (tc *repoTestContext) createBrand(status string) uuid.UUID {
	tc.t.Helper()
	id := uuid.New()
	tc.exec(`INSERT INTO brands (id, name, status) VALUES ($1, $2, $3)`, id, "brand-"+id.String()[:8], status)
	return id
}

func (tc *repoTestContext) createCode(status models.CodeStatus) *models.GeneratedCode {
	tc.t.Helper()
	code := &models.GeneratedCode{
		BrandID:         tc.brandID,
		TestType:        models.TestTypePDP,
		PageType:        models.PageTypePDP,
		RequestMetadata: map[string]any{"campaign": "spring"},
		Code:            `document.querySelector('.add-to-cart').classList.add('ab');`,
		ConfidenceScore: 0.85,
		Breakdown: &models.ConfidenceBreakdown{
			TemplateScore:  0.15,
			RuleScore:      0.4,
			SelectorScore:  0.3,
			OverallScore:   0.85,
			IsValid:        true,
			Recommendation: models.RecommendSafeToUse,
		},
		Status: status,
	}
	require.NoError(tc.t, NewGeneratedCodeRepository().Create(tc.ctx, code))
	return code
}
