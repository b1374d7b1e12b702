package service

import (
	"context"
	"strings"
	"time"

	"github.com/autoprintfarm/connector/internal/credentials"
	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/autoprintfarm/connector/internal/shopctx"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const oneTimeKeyReminder = "Device created successfully. Save the API key - it won't be shown again."

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    devicedomain.Repository
	Tenants tenantdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    devicedomain.Repository
	tenants tenantdomain.Repository
}

func New(p Params) devicedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("device.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		tenants: p.Tenants,
	}
}

func (s *Service) List(ctx context.Context) ([]devicedomain.Response, error) {
	tenant, err := s.tenantFromContext(ctx)
	if err != nil {
		if err == tenantdomain.ErrNotConnected {
			return []devicedomain.Response{}, nil
		}
		return nil, err
	}

	devices, err := s.repo.ListByTenant(ctx, s.db, tenant.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]devicedomain.Response, 0, len(devices))
	for i := range devices {
		resp = append(resp, toResponse(&devices[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, name string) (*devicedomain.CreateResponse, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, devicedomain.ErrNameRequired
	}

	tenant, err := s.tenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	apiKey, err := credentials.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	hash, err := credentials.HashAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	device := &devicedomain.Device{
		ID:         s.genID.Generate(),
		TenantID:   tenant.ID,
		Name:       trimmed,
		APIKeyHash: hash,
		Status:     devicedomain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, device); err != nil {
		return nil, err
	}

	// The plaintext key lives only in this response. Log the device, never
	// the credential.
	s.log.Info("device created",
		zap.String("device_id", device.ID.String()),
		zap.String("shop_domain", tenant.ShopDomain),
	)

	return &devicedomain.CreateResponse{
		Device: devicedomain.ResponseWithKey{
			Response: toResponse(device),
			APIKey:   apiKey,
		},
		Message: oneTimeKeyReminder,
	}, nil
}

func (s *Service) Revoke(ctx context.Context, deviceID string) error {
	trimmed := strings.TrimSpace(deviceID)
	if trimmed == "" {
		return devicedomain.ErrDeviceIDRequired
	}

	tenant, err := s.tenantFromContext(ctx)
	if err != nil {
		return err
	}

	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return devicedomain.ErrNotFound
	}

	// Ownership check: a device ID alone is not authorization.
	device, err := s.repo.FindByIDForTenant(ctx, s.db, tenant.ID, id)
	if err != nil {
		return err
	}
	if device == nil {
		return devicedomain.ErrNotFound
	}

	if device.Status == devicedomain.StatusRevoked {
		// Terminal state; repeating the revoke has no further effect.
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, s.db, device.ID, devicedomain.StatusRevoked, time.Now().UTC()); err != nil {
		return err
	}

	s.log.Info("device revoked",
		zap.String("device_id", device.ID.String()),
		zap.String("shop_domain", tenant.ShopDomain),
	)
	return nil
}

func (s *Service) Heartbeat(ctx context.Context, deviceID, apiKey string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(deviceID))
	if err != nil {
		return devicedomain.ErrInvalidCredential
	}

	device, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if device == nil || device.Status != devicedomain.StatusActive {
		return devicedomain.ErrInvalidCredential
	}

	if !credentials.VerifyAPIKey(apiKey, device.APIKeyHash) {
		return devicedomain.ErrInvalidCredential
	}

	return s.repo.TouchLastSeen(ctx, s.db, device.ID, time.Now().UTC())
}

// tenantFromContext resolves the caller's tenant binding. ErrNotConnected is
// returned when the shop has not completed tenant binding yet.
func (s *Service) tenantFromContext(ctx context.Context) (*tenantdomain.Tenant, error) {
	shop, ok := shopctx.ShopDomainFromContext(ctx)
	if !ok {
		return nil, tenantdomain.ErrUnauthenticated
	}

	tenant, err := s.tenants.FindByShopDomain(ctx, s.db, shop)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, tenantdomain.ErrNotConnected
	}
	return tenant, nil
}

func toResponse(device *devicedomain.Device) devicedomain.Response {
	return devicedomain.Response{
		ID:         device.ID,
		TenantID:   device.TenantID,
		Name:       device.Name,
		Status:     device.Status,
		LastSeenAt: device.LastSeenAt,
		CreatedAt:  device.CreatedAt,
		UpdatedAt:  device.UpdatedAt,
	}
}
