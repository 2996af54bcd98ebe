package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/auth"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
	"github.com/ekaya-inc/safecode-engine/pkg/testhelpers"
)

func TestAuthService_DevModeTestToken(t *testing.T) {
	client, err := auth.NewJWKSClient(&auth.JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	defer client.Close()
	svc := auth.NewAuthService(client, zap.NewNop())

	userID := uuid.New()
	brandID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/brands/"+brandID.String()+"/generated-code", nil)
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID, models.RoleBrandAdmin, brandID))

	claims, actor, token, err := svc.ValidateRequest(req)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.Actor{ID: userID, Role: models.RoleBrandAdmin, BrandIDs: []uuid.UUID{brandID}}, actor)

	got, err := svc.ValidateBrandAccess(actor, brandID.String())
	require.NoError(t, err)
	assert.Equal(t, brandID, got)
}
