package repository

import (
	"context"

	"github.com/autoprintfarm/connector/internal/device/domain"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tenantdomain.Repository {
	return &repo{}
}

func (r *repo) FindByShopDomain(ctx context.Context, db *gorm.DB, shopDomain string) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT id, shop_domain, connected_at FROM tenants WHERE shop_domain = ?`,
		shopDomain,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == "" {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenants (id, shop_domain, connected_at) VALUES (?, ?, ?)`,
		tenant.ID,
		tenant.ShopDomain,
		tenant.ConnectedAt,
	).Error
}

func (r *repo) UpdateID(ctx context.Context, db *gorm.DB, shopDomain, newID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tenants SET id = ? WHERE shop_domain = ?`,
		newID,
		shopDomain,
	).Error
}

func (r *repo) CountActiveDevices(ctx context.Context, db *gorm.DB, tenantID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM devices WHERE tenant_id = ? AND status = ?`,
		tenantID,
		domain.StatusActive,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
