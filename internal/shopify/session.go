package shopify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autoprintfarm/connector/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("shopify credentials not configured")
	ErrInvalidToken  = errors.New("invalid session token")
)

// SessionClaims are the App Bridge session token claims we rely on. The
// `dest` claim carries the shop origin, e.g. "https://a.myshopify.com".
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// TokenVerifier validates Shopify session tokens. Session tokens are HS256
// JWTs signed with the app's API secret and addressed to its API key.
type TokenVerifier struct {
	apiKey    string
	apiSecret string
}

func NewTokenVerifier(cfg config.Config) *TokenVerifier {
	return &TokenVerifier{
		apiKey:    cfg.Shopify.APIKey,
		apiSecret: cfg.Shopify.APISecret,
	}
}

// Configured reports whether the verifier has credentials to work with.
func (v *TokenVerifier) Configured() bool {
	return v.apiSecret != ""
}

// VerifySessionToken validates the token and returns the shop domain it was
// issued for.
func (v *TokenVerifier) VerifySessionToken(token string) (string, error) {
	if !v.Configured() {
		return "", ErrNotConfigured
	}

	claims := &SessionClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.apiKey != "" {
		opts = append(opts, jwt.WithAudience(v.apiKey))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.apiSecret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	shop := shopDomainFromDest(claims.Dest)
	if shop == "" {
		return "", ErrInvalidToken
	}
	return shop, nil
}

func shopDomainFromDest(dest string) string {
	domain := strings.TrimPrefix(strings.TrimSpace(dest), "https://")
	domain = strings.TrimSuffix(domain, "/")
	if domain == "" || strings.ContainsAny(domain, "/ ") {
		return ""
	}
	return domain
}
