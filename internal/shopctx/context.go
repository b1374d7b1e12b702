package shopctx

import (
	"context"
	"strings"
)

// ShopContextKey is the request context key for the authenticated shop domain.
type ShopContextKey struct{}

// WithShopDomain stores the shop domain in the context.
func WithShopDomain(ctx context.Context, shopDomain string) context.Context {
	return context.WithValue(ctx, ShopContextKey{}, shopDomain)
}

// ShopDomainFromContext returns the shop domain from context, if set.
func ShopDomainFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	value, ok := ctx.Value(ShopContextKey{}).(string)
	if !ok {
		return "", false
	}

	domain := strings.TrimSpace(value)
	if domain == "" {
		return "", false
	}
	return domain, true
}
