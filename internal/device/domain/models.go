package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Status is the device credential lifecycle state. The only legal transition
// is active -> revoked; revoked is terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Device is one registered Raspberry Pi unit. Rows are never deleted;
// revocation flips the status so the history stays auditable. The API key
// hash never leaves the database layer.
type Device struct {
	ID         snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID   string       `gorm:"column:tenant_id;type:text;not null;index" json:"tenantId"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	APIKeyHash string       `gorm:"column:api_key_hash;type:text;not null" json:"-"`
	Status     Status       `gorm:"type:text;not null" json:"status"`
	LastSeenAt *time.Time   `gorm:"column:last_seen_at" json:"lastSeenAt"`
	CreatedAt  time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, name string) (*CreateResponse, error)
	Revoke(ctx context.Context, deviceID string) error
	Heartbeat(ctx context.Context, deviceID, apiKey string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, device *Device) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Device, error)
	FindByIDForTenant(ctx context.Context, db *gorm.DB, tenantID string, id snowflake.ID) (*Device, error)
	ListByTenant(ctx context.Context, db *gorm.DB, tenantID string) ([]Device, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) error
	TouchLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}

// Response is a device record with the credential hash stripped.
type Response struct {
	ID         snowflake.ID `json:"id"`
	TenantID   string       `json:"tenantId"`
	Name       string       `json:"name"`
	Status     Status       `json:"status"`
	LastSeenAt *time.Time   `json:"lastSeenAt"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// ResponseWithKey carries the plaintext API key. It exists only in the
// creation response; the key is not retrievable afterwards.
type ResponseWithKey struct {
	Response
	APIKey string `json:"apiKey"`
}

type CreateResponse struct {
	Device  ResponseWithKey `json:"device"`
	Message string          `json:"message"`
}

var (
	ErrNameRequired      = errors.New("device_name_required")
	ErrDeviceIDRequired  = errors.New("device_id_required")
	ErrNotFound          = errors.New("device_not_found")
	ErrInvalidCredential = errors.New("invalid_device_credential")
)
