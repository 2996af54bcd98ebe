// Package testhelpers provides utilities for testing safecode-engine components.
package testhelpers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GenerateTestJWT creates an unsigned (alg: none) token for servers running
// with verification disabled. It carries the safecode-engine audience.
func GenerateTestJWT(sub uuid.UUID, role string, brandIDs ...uuid.UUID) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	bids := make([]string, 0, len(brandIDs))
	for _, id := range brandIDs {
		bids = append(bids, id.String())
	}
	payload, _ := json.Marshal(map[string]any{
		"sub":  sub.String(),
		"aud":  "safecode-engine",
		"role": role,
		"bids": bids,
	})

	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString(payload))
}

// GenerateTestJWTWithBearer returns token with "Bearer " prefix for Authorization header.
func GenerateTestJWTWithBearer(sub uuid.UUID, role string, brandIDs ...uuid.UUID) string {
	return "Bearer " + GenerateTestJWT(sub, role, brandIDs...)
}
