package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/accounts"
	"github.com/denizaksoy/ovenline-backend/internal/addresses"
	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/cart"
	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	checkoutsvc "github.com/denizaksoy/ovenline-backend/internal/checkout"
	"github.com/denizaksoy/ovenline-backend/internal/coupons"
	"github.com/denizaksoy/ovenline-backend/internal/orders"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/config"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{}, &models.Admin{}, &models.Courier{},
		&models.Product{}, &models.Stock{}, &models.StockMovement{},
		&models.CartItem{}, &models.Address{},
		&models.Order{}, &models.OrderItem{}, &models.StatusLogEntry{},
		&models.Coupon{}, &models.CouponUsage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "ovenline", ExpirationMinutes: 60},
		Password: config.PasswordConfig{
			ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
		Accounts: config.AccountsConfig{UsernameMaxAttempts: 5},
	}
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	tx := gormTxRunner{db: db}

	accountsRepo := accounts.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	stockRepo := stock.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	addressRepo := addresses.NewRepository(db)
	couponRepo := coupons.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	auditRepo := audit.NewRepository(db)

	accountsService, err := accounts.NewService(accountsRepo, cfg.JWT, cfg.Password, cfg.Accounts)
	if err != nil {
		t.Fatalf("accounts service: %v", err)
	}
	catalogService, err := catalog.NewService(catalogRepo, stockRepo, tx)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	cartService, err := cart.NewService(cartRepo, catalogRepo, stockRepo)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	addressService, err := addresses.NewService(addressRepo, tx)
	if err != nil {
		t.Fatalf("address service: %v", err)
	}
	auditService, err := audit.NewService(auditRepo)
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	stockService, err := stock.NewService(stockRepo, tx, nil)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	couponService, err := coupons.NewService(couponRepo, orderRepo, logg)
	if err != nil {
		t.Fatalf("coupon service: %v", err)
	}
	ordersService, err := orders.NewService(orderRepo, stockService, auditService, accounts.NewCourierDirectory(accountsRepo), tx, nil)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	checkoutService, err := checkoutsvc.NewService(cartRepo, catalogRepo, stockService, couponService, addressService, orderRepo, auditService, tx, nil)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return NewRouter(
		cfg, logg, stubPinger{}, nil, nil,
		accountsService, catalogService, cartService, addressService,
		checkoutService, ordersService, stockService, auditService,
	)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerCustomer(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"first_name": "Route",
		"last_name":  "Tester",
		"password":   "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if envelope.Data.Token == "" {
		t.Fatal("expected a session token")
	}
	return envelope.Data.Token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("X-Ovenline-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRegisterLoginAndBrowseCatalog(t *testing.T) {
	router := newTestRouter(t)
	token := registerCustomer(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/products", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("products status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router := newTestRouter(t)
	token := registerCustomer(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/stock", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCourierRoutesRequireCourierRole(t *testing.T) {
	router := newTestRouter(t)
	token := registerCustomer(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/courier/orders/claimable", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
