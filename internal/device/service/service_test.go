package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/autoprintfarm/connector/internal/credentials"
	devicedomain "github.com/autoprintfarm/connector/internal/device/domain"
	"github.com/autoprintfarm/connector/internal/device/repository"
	"github.com/autoprintfarm/connector/internal/shopctx"
	tenantdomain "github.com/autoprintfarm/connector/internal/tenant/domain"
	tenantrepository "github.com/autoprintfarm/connector/internal/tenant/repository"
	"github.com/autoprintfarm/connector/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tenantA = "11111111-1111-1111-1111-111111111111"
	tenantB = "22222222-2222-2222-2222-222222222222"
)

type fixture struct {
	svc     devicedomain.Service
	db      *gorm.DB
	tenants tenantdomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&tenantdomain.Tenant{}, &devicedomain.Device{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	tenants := tenantrepository.Provide()
	svc := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repository.Provide(),
		Tenants: tenants,
	})

	return &fixture{svc: svc, db: dbConn, tenants: tenants}
}

func (f *fixture) bindTenant(t *testing.T, id, shop string) {
	t.Helper()
	err := f.tenants.Insert(context.Background(), f.db, &tenantdomain.Tenant{
		ID:          id,
		ShopDomain:  shop,
		ConnectedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to bind tenant: %v", err)
	}
}

func shopCtx(shop string) context.Context {
	return shopctx.WithShopDomain(context.Background(), shop)
}

func TestCreateRejectsBlankName(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	for _, name := range []string{"", "   "} {
		if _, err := f.svc.Create(ctx, name); !errors.Is(err, devicedomain.ErrNameRequired) {
			t.Fatalf("Create(%q): expected ErrNameRequired, got %v", name, err)
		}
	}
}

func TestCreateRequiresConnectedTenant(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(shopCtx("a.myshopify.com"), "Pi #1"); !errors.Is(err, tenantdomain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestCreateIssuesOneTimeKey(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	resp, err := f.svc.Create(ctx, "  Pi #1  ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if resp.Device.Name != "Pi #1" {
		t.Fatalf("expected trimmed name, got %q", resp.Device.Name)
	}
	if resp.Device.Status != devicedomain.StatusActive {
		t.Fatalf("expected active status, got %q", resp.Device.Status)
	}
	if len(resp.Device.APIKey) != 43 {
		t.Fatalf("expected 43-character key, got %d", len(resp.Device.APIKey))
	}

	// The stored hash must verify the issued key and never equal it.
	var stored devicedomain.Device
	if err := f.db.First(&stored, "id = ?", resp.Device.ID).Error; err != nil {
		t.Fatalf("failed to load device: %v", err)
	}
	if stored.APIKeyHash == resp.Device.APIKey {
		t.Fatal("plaintext key must not be persisted")
	}
	if !credentials.VerifyAPIKey(resp.Device.APIKey, stored.APIKeyHash) {
		t.Fatal("issued key must verify against the stored hash")
	}

	// The hash must not survive serialization either.
	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	if strings.Contains(string(encoded), "apiKeyHash") || strings.Contains(string(encoded), stored.APIKeyHash) {
		t.Fatal("hash leaked into the create response")
	}
}

func TestListEmptyWithoutTenant(t *testing.T) {
	f := newFixture(t)

	devices, err := f.svc.List(shopCtx("a.myshopify.com"))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected empty list, got %d devices", len(devices))
	}
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	if _, err := f.svc.Create(ctx, "Pi #1"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := f.svc.Create(ctx, "Pi #2"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	devices, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Name != "Pi #2" || devices[1].Name != "Pi #1" {
		t.Fatalf("expected newest first, got %q then %q", devices[0].Name, devices[1].Name)
	}
}

func TestRevokeValidation(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	if err := f.svc.Revoke(ctx, ""); !errors.Is(err, devicedomain.ErrDeviceIDRequired) {
		t.Fatalf("expected ErrDeviceIDRequired, got %v", err)
	}
	if err := f.svc.Revoke(ctx, "999999999999999999"); !errors.Is(err, devicedomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRevokeChecksOwnership(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	f.bindTenant(t, tenantB, "b.myshopify.com")

	resp, err := f.svc.Create(shopCtx("b.myshopify.com"), "Pi B")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// The id exists but belongs to another tenant.
	err = f.svc.Revoke(shopCtx("a.myshopify.com"), resp.Device.ID.String())
	if !errors.Is(err, devicedomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var stored devicedomain.Device
	if err := f.db.First(&stored, "id = ?", resp.Device.ID).Error; err != nil {
		t.Fatalf("failed to load device: %v", err)
	}
	if stored.Status != devicedomain.StatusActive {
		t.Fatal("foreign revoke must not change the device")
	}
}

func TestRevokeIsTerminalAndIdempotent(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	resp, err := f.svc.Create(ctx, "Pi #1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.Revoke(ctx, resp.Device.ID.String()); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	var afterFirst devicedomain.Device
	if err := f.db.First(&afterFirst, "id = ?", resp.Device.ID).Error; err != nil {
		t.Fatalf("failed to load device: %v", err)
	}
	if afterFirst.Status != devicedomain.StatusRevoked {
		t.Fatalf("expected revoked status, got %q", afterFirst.Status)
	}

	if err := f.svc.Revoke(ctx, resp.Device.ID.String()); err != nil {
		t.Fatalf("second revoke must succeed without effect: %v", err)
	}

	var afterSecond devicedomain.Device
	if err := f.db.First(&afterSecond, "id = ?", resp.Device.ID).Error; err != nil {
		t.Fatalf("failed to load device: %v", err)
	}
	if !afterSecond.UpdatedAt.Equal(afterFirst.UpdatedAt) {
		t.Fatal("second revoke must not touch the row")
	}
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	f.bindTenant(t, tenantA, "a.myshopify.com")
	ctx := shopCtx("a.myshopify.com")

	resp, err := f.svc.Create(ctx, "Pi #1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := resp.Device.ID.String()

	if err := f.svc.Heartbeat(context.Background(), id, "wrong-key"); !errors.Is(err, devicedomain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for wrong key, got %v", err)
	}

	if err := f.svc.Heartbeat(context.Background(), id, resp.Device.APIKey); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	var stored devicedomain.Device
	if err := f.db.First(&stored, "id = ?", resp.Device.ID).Error; err != nil {
		t.Fatalf("failed to load device: %v", err)
	}
	if stored.LastSeenAt == nil {
		t.Fatal("heartbeat must record last seen time")
	}

	if err := f.svc.Revoke(ctx, id); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := f.svc.Heartbeat(context.Background(), id, resp.Device.APIKey); !errors.Is(err, devicedomain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential after revoke, got %v", err)
	}
}
