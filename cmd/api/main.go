package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/tienda-api/internal/application/cart"
	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/internal/domain/pricing"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
	"github.com/jhoicas/tienda-api/internal/domain/shipping"
	"github.com/jhoicas/tienda-api/internal/infrastructure/memory"
	"github.com/jhoicas/tienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/tienda-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/tienda-api/internal/interfaces/http"
	"github.com/jhoicas/tienda-api/pkg/config"
	"github.com/jhoicas/tienda-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// stores puertos de persistencia según STORE_DRIVER.
type stores struct {
	txRunner inventory.TxRunner
	ledger   repository.StockMovementRepository
	catalog  repository.ProductRepository
	coupons  repository.CouponRepository
	carts    repository.CartStore
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.App.StoreDriver).Msg("inicializar almacenamiento")
	}
	defer st.close()

	ledgerUC := inventory.NewLedgerUseCase(st.txRunner, st.ledger, log)

	rules := pricing.DefaultRules()
	rules.TaxRate = cfg.Pricing.TaxRate
	rules.FreeShippingThreshold = cfg.Pricing.FreeShippingThreshold

	rates := shipping.DefaultRates()
	rates.OriginDepartment = cfg.Shipping.OriginDepartment
	rates.FreeShippingThreshold = cfg.Pricing.FreeShippingThreshold

	cartUC := cart.NewUseCase(
		st.carts, st.catalog, st.coupons,
		pricing.NewEngine(rules),
		shipping.NewCalculator(rates),
		cart.Config{MaxItemQuantity: cfg.Cart.MaxItemQuantity, TTL: cfg.Cart.TTL},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Tienda API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledgerUC,
		Cart:      cartUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver == "memory" {
		store := memory.NewStore(cfg.DB.LockTimeout)
		if cfg.App.CatalogFile != "" {
			cat, err := memory.LoadCatalogFile(cfg.App.CatalogFile)
			if err != nil {
				return nil, err
			}
			store.Seed(cat, time.Now().UTC())
			log.Info().Str("file", cfg.App.CatalogFile).Int("products", len(cat.Products)).Msg("catálogo cargado en memoria")
		}
		return &stores{
			txRunner: memory.NewTxRunner(store),
			ledger:   store.Movements(),
			catalog:  store,
			coupons:  store,
			carts:    memory.NewCartStore(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		txRunner: postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		ledger:   postgres.NewMovementRepository(pool),
		catalog:  postgres.NewProductRepository(pool),
		coupons:  postgres.NewCouponRepository(pool),
		carts:    redis.NewCartStore(rdb),
		close: func() {
			_ = rdb.Close()
			pool.Close()
		},
	}, nil
}
