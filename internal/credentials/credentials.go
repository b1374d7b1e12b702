package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeySecretBytes = 32
	bcryptCost        = 10
)

// GenerateAPIKey returns a 43-character base64url token drawn from a CSPRNG.
func GenerateAPIKey() (string, error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret), nil
}

// HashAPIKey hashes the raw API key for storage. Only the hash is ever
// persisted; the plaintext is shown to the merchant exactly once.
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey checks a raw API key against a stored hash. A malformed hash
// is treated as a non-match.
func VerifyAPIKey(apiKey, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)) == nil
}

// MaskTenantID redacts a tenant ID for display, keeping the first segment and
// the last four characters. Not suitable for any security decision.
func MaskTenantID(tenantID string) string {
	if len(tenantID) < 12 {
		return tenantID
	}

	// UUID shape: 8-4-4-4-12
	parts := strings.Split(tenantID, "-")
	if len(parts) == 5 && len(parts[4]) >= 4 {
		return parts[0] + "-****-****-****-********" + parts[4][len(parts[4])-4:]
	}

	return tenantID[:8] + "****" + tenantID[len(tenantID)-4:]
}
