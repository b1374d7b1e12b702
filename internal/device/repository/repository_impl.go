package repository

import (
	"context"
	"time"

	"github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, device *domain.Device) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO devices (id, tenant_id, name, api_key_hash, status, last_seen_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.TenantID,
		device.Name,
		device.APIKeyHash,
		device.Status,
		device.LastSeenAt,
		device.CreatedAt,
		device.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Device, error) {
	var device domain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, api_key_hash, status, last_seen_at, created_at, updated_at
		 FROM devices WHERE id = ?`,
		id,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) FindByIDForTenant(ctx context.Context, db *gorm.DB, tenantID string, id snowflake.ID) (*domain.Device, error) {
	var device domain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, api_key_hash, status, last_seen_at, created_at, updated_at
		 FROM devices WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&device).Error
	if err != nil {
		return nil, err
	}
	if device.ID == 0 {
		return nil, nil
	}
	return &device, nil
}

func (r *repo) ListByTenant(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.Device, error) {
	var devices []domain.Device
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, api_key_hash, status, last_seen_at, created_at, updated_at
		 FROM devices WHERE tenant_id = ? ORDER BY created_at DESC`,
		tenantID,
	).Scan(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE devices SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	).Error
}

func (r *repo) TouchLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE devices SET last_seen_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}
