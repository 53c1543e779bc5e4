package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denizaksoy/ovenline-backend/api/controllers"
	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/internal/accounts"
	"github.com/denizaksoy/ovenline-backend/internal/addresses"
	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/cart"
	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	checkoutsvc "github.com/denizaksoy/ovenline-backend/internal/checkout"
	"github.com/denizaksoy/ovenline-backend/internal/orders"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/config"
	"github.com/denizaksoy/ovenline-backend/pkg/db"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
	pkgredis "github.com/denizaksoy/ovenline-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	accountsService accounts.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	addressService addresses.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	stockService stock.Service,
	auditService audit.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(accountsService, logg))
		r.Post("/login", controllers.AuthLogin(accountsService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(cfg.Idempotency, redisClient, logg))

		r.Get("/profile", controllers.ProfileGet(accountsService, logg))
		r.Put("/profile", controllers.ProfileUpdate(accountsService, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(catalogService, logg))
			r.Get("/{productID}", controllers.ProductsGet(catalogService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleCustomer, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Post("/items", controllers.CartAdd(cartService, logg))
				r.Post("/items/{productID}/increment", controllers.CartIncrement(cartService, logg))
				r.Post("/items/{productID}/decrement", controllers.CartDecrement(cartService, logg))
				r.Delete("/items/{productID}", controllers.CartRemove(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressesList(addressService, logg))
				r.Post("/", controllers.AddressesAdd(addressService, logg))
				r.Post("/{addressID}/default", controllers.AddressesSetDefault(addressService, logg))
				r.Delete("/{addressID}", controllers.AddressesDelete(addressService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersListMine(ordersService, logg))
				r.Get("/{orderID}", controllers.OrdersGet(ordersService, logg))
				r.Get("/{orderID}/history", controllers.OrdersHistory(ordersService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))

			r.Post("/products", controllers.ProductsCreate(catalogService, logg))
			r.Patch("/products/{productID}", controllers.ProductsUpdate(catalogService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersBoard(ordersService, logg))
				r.Get("/{orderID}", controllers.OrdersGet(ordersService, logg))
				r.Get("/{orderID}/history", controllers.OrdersHistory(ordersService, logg))
				r.Post("/{orderID}/{action}", controllers.AdminOrdersAction(ordersService, logg))
			})

			r.Route("/stock", func(r chi.Router) {
				r.Get("/", controllers.AdminStockList(stockService, logg))
				r.Post("/{productID}/adjust", controllers.AdminStockAdjust(stockService, logg))
				r.Get("/{productID}/movements", controllers.AdminStockMovements(stockService, logg))
				r.Get("/{productID}/audit", controllers.AdminStockAudit(stockService, logg))
			})

			r.Get("/activity/{actorID}", controllers.AdminActorActivity(auditService, stockService, logg))
			r.Get("/couriers", controllers.AdminCouriersList(accountsService, logg))
			r.Post("/accounts", controllers.AdminAccountsCreate(accountsService, logg))
		})

		r.Route("/courier", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleCourier, logg))

			r.Put("/availability", controllers.CourierAvailability(accountsService, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.CourierOrdersMine(ordersService, logg))
				r.Get("/claimable", controllers.CourierOrdersClaimable(ordersService, logg))
				r.Get("/{orderID}", controllers.OrdersGet(ordersService, logg))
				r.Post("/{orderID}/claim", controllers.CourierOrdersClaim(ordersService, logg))
				r.Post("/{orderID}/deliver", controllers.CourierOrdersDeliver(ordersService, logg))
			})
		})
	})

	return r
}
