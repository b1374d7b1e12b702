package service

import (
	"context"
	"strings"
	"time"

	"github.com/autoprintfarm/connector/internal/credentials"
	"github.com/autoprintfarm/connector/internal/shopctx"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	"github.com/autoprintfarm/connector/pkg/db"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo tenantdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo tenantdomain.Repository
}

func New(p Params) tenantdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("tenant.service"),
		repo: p.Repo,
	}
}

func (s *Service) Status(ctx context.Context) (*tenantdomain.StatusResponse, error) {
	shop, err := s.shopFromContext(ctx)
	if err != nil {
		return nil, err
	}

	tenant, err := s.repo.FindByShopDomain(ctx, s.db, shop)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return &tenantdomain.StatusResponse{Connected: false}, nil
	}

	count, err := s.repo.CountActiveDevices(ctx, s.db, tenant.ID)
	if err != nil {
		return nil, err
	}

	return &tenantdomain.StatusResponse{
		Connected: true,
		Tenant: &tenantdomain.StatusTenant{
			ID:          tenant.ID,
			MaskedID:    credentials.MaskTenantID(tenant.ID),
			ShopDomain:  tenant.ShopDomain,
			DeviceCount: count,
		},
	}, nil
}

func (s *Service) Connect(ctx context.Context, tenantID string) (*tenantdomain.ConnectResponse, error) {
	shop, err := s.shopFromContext(ctx)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(tenantID)
	if !isWellFormedTenantID(trimmed) {
		return nil, tenantdomain.ErrInvalidTenantID
	}

	existing, err := s.repo.FindByShopDomain(ctx, s.db, shop)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.ID == trimmed {
			return &tenantdomain.ConnectResponse{
				Success: true,
				Message: "Shop is already connected to this tenant",
				Tenant: &tenantdomain.ConnectedTenant{
					ID:          existing.ID,
					ShopDomain:  existing.ShopDomain,
					ConnectedAt: existing.ConnectedAt,
				},
			}, nil
		}

		// Re-point the existing binding. No pre-check on the new ID: the
		// unique constraint is the arbiter, so concurrent claims cannot race
		// past each other.
		if err := s.repo.UpdateID(ctx, s.db, shop, trimmed); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return nil, tenantdomain.ErrTenantIDClaimed
			}
			return nil, err
		}

		s.log.Info("tenant connection updated",
			zap.String("shop_domain", shop),
			zap.String("tenant_id", credentials.MaskTenantID(trimmed)),
		)

		return &tenantdomain.ConnectResponse{
			Success: true,
			Message: "Tenant connection updated successfully",
			Tenant: &tenantdomain.ConnectedTenant{
				ID:          trimmed,
				ShopDomain:  shop,
				ConnectedAt: existing.ConnectedAt,
			},
		}, nil
	}

	tenant := &tenantdomain.Tenant{
		ID:          trimmed,
		ShopDomain:  shop,
		ConnectedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tenantdomain.ErrTenantIDClaimed
		}
		return nil, err
	}

	s.log.Info("tenant connected",
		zap.String("shop_domain", shop),
		zap.String("tenant_id", credentials.MaskTenantID(tenant.ID)),
	)

	return &tenantdomain.ConnectResponse{
		Success: true,
		Message: "Tenant connected successfully",
		Tenant: &tenantdomain.ConnectedTenant{
			ID:          tenant.ID,
			ShopDomain:  tenant.ShopDomain,
			ConnectedAt: tenant.ConnectedAt,
		},
	}, nil
}

func (s *Service) shopFromContext(ctx context.Context) (string, error) {
	shop, ok := shopctx.ShopDomainFromContext(ctx)
	if !ok {
		return "", tenantdomain.ErrUnauthenticated
	}
	return shop, nil
}

// isWellFormedTenantID accepts only the canonical 8-4-4-4-12 UUID shape the
// print farm issues. uuid.Parse alone is too permissive here (it also takes
// braced and unhyphenated forms).
func isWellFormedTenantID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
