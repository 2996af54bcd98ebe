//go:build integration

package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

func (tc *repoTestContext) createAuditEntry(codeID, actorID uuid.UUID, action string, from, to models.CodeStatus) *models.AuditLogEntry {
	tc.t.Helper()
	entry := &models.AuditLogEntry{
		GeneratedCodeID: codeID,
		BrandID:         tc.brandID,
		ActorID:         actorID,
		Action:          action,
		PreviousStatus:  from,
		NewStatus:       to,
	}
	require.NoError(tc.t, NewAuditRepository().Create(tc.ctx, entry))
	return entry
}

func TestAuditRepository_Create(t *testing.T) {
	tc := setupRepoTest(t)
	code := tc.createCode(models.StatusGenerated)

	notes := "claimed for review"
	entry := &models.AuditLogEntry{
		GeneratedCodeID: code.ID,
		BrandID:         tc.brandID,
		ActorID:         uuid.New(),
		Action:          models.AuditActionMarkReviewed,
		PreviousStatus:  models.StatusGenerated,
		NewStatus:       models.StatusReviewed,
		Notes:           &notes,
	}
	require.NoError(t, NewAuditRepository().Create(tc.ctx, entry))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Positive(t, entry.Seq)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditRepository_Create_KeepsCallerTimestamp(t *testing.T) {
	tc := setupRepoTest(t)
	code := tc.createCode(models.StatusApproved)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := &models.AuditLogEntry{
		GeneratedCodeID: code.ID,
		BrandID:         tc.brandID,
		ActorID:         uuid.New(),
		Action:          models.AuditActionRecordDeployment,
		PreviousStatus:  models.StatusApproved,
		NewStatus:       models.StatusDeployed,
		CreatedAt:       at,
	}
	require.NoError(t, NewAuditRepository().Create(tc.ctx, entry))
	assert.Equal(t, at, entry.CreatedAt)

	entries, _, err := NewAuditRepository().List(tc.ctx, models.AuditFilters{GeneratedCodeID: &code.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, at.Equal(entries[0].CreatedAt), "stored created_at %v, want %v", entries[0].CreatedAt, at)
}

func TestAuditRepository_List_OrderAndFilters(t *testing.T) {
	tc := setupRepoTest(t)
	repo := NewAuditRepository()
	code := tc.createCode(models.StatusGenerated)
	other := tc.createCode(models.StatusGenerated)
	reviewer := uuid.New()
	deployer := uuid.New()

	first := tc.createAuditEntry(code.ID, reviewer, models.AuditActionMarkReviewed, models.StatusGenerated, models.StatusReviewed)
	second := tc.createAuditEntry(code.ID, reviewer, models.AuditActionApprove, models.StatusReviewed, models.StatusApproved)
	third := tc.createAuditEntry(code.ID, deployer, models.AuditActionRecordDeployment, models.StatusApproved, models.StatusDeployed)
	tc.createAuditEntry(other.ID, reviewer, models.AuditActionReject, models.StatusGenerated, models.StatusRejected)

	entries, total, err := repo.List(tc.ctx, models.AuditFilters{GeneratedCodeID: &code.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Greater(t, entries[0].Seq, entries[1].Seq)

	byActor, total, err := repo.List(tc.ctx, models.AuditFilters{BrandID: &tc.brandID, ActorID: &reviewer})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, byActor, 3)

	rejects, total, err := repo.List(tc.ctx, models.AuditFilters{BrandID: &tc.brandID, Action: models.AuditActionReject})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rejects, 1)
	assert.Equal(t, other.ID, rejects[0].GeneratedCodeID)

	future := time.Now().Add(time.Hour)
	none, total, err := repo.List(tc.ctx, models.AuditFilters{BrandID: &tc.brandID, Since: &future})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestAuditRepository_List_Paging(t *testing.T) {
	tc := setupRepoTest(t)
	code := tc.createCode(models.StatusGenerated)
	for i := 0; i < 3; i++ {
		tc.createAuditEntry(code.ID, uuid.New(), models.AuditActionMarkReviewed, models.StatusGenerated, models.StatusReviewed)
	}

	page, total, err := NewAuditRepository().List(tc.ctx, models.AuditFilters{GeneratedCodeID: &code.ID, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)
}
