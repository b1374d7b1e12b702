package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Tenant binds one Shopify store to one external print-farm instance. The ID
// is issued by the print farm itself and arrives as an opaque UUID; it is
// never generated here.
type Tenant struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	ShopDomain  string    `gorm:"column:shop_domain;type:text;not null;uniqueIndex:ux_tenants_shop_domain" json:"shopDomain"`
	ConnectedAt time.Time `gorm:"column:connected_at;not null" json:"connectedAt"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

type Service interface {
	Status(ctx context.Context) (*StatusResponse, error)
	Connect(ctx context.Context, tenantID string) (*ConnectResponse, error)
}

type Repository interface {
	FindByShopDomain(ctx context.Context, db *gorm.DB, shopDomain string) (*Tenant, error)
	Insert(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	UpdateID(ctx context.Context, db *gorm.DB, shopDomain, newID string) error
	CountActiveDevices(ctx context.Context, db *gorm.DB, tenantID string) (int64, error)
}

// StatusResponse reports whether the calling shop is bound to a tenant. The
// tenant ID is exposed as issued plus a masked form for display; no credential
// material ever appears here.
type StatusResponse struct {
	Connected bool          `json:"connected"`
	Tenant    *StatusTenant `json:"tenant,omitempty"`
}

type StatusTenant struct {
	ID          string `json:"id"`
	MaskedID    string `json:"maskedId"`
	ShopDomain  string `json:"shopDomain"`
	DeviceCount int64  `json:"deviceCount"`
}

type ConnectResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Tenant  *ConnectedTenant `json:"tenant,omitempty"`
}

type ConnectedTenant struct {
	ID          string    `json:"id"`
	ShopDomain  string    `json:"shopDomain"`
	ConnectedAt time.Time `json:"connectedAt"`
}

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidTenantID = errors.New("invalid_tenant_id")
	ErrTenantIDClaimed = errors.New("tenant_id_claimed")
	ErrNotConnected    = errors.New("tenant_not_connected")
)
