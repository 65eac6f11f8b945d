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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/internal/infrastructure/pdf"
	"github.com/jhoicas/maxigas/internal/infrastructure/postgres"
	"github.com/jhoicas/maxigas/internal/infrastructure/seed"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/maxigas/internal/interfaces/http"
	"github.com/jhoicas/maxigas/internal/tab"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/config"
	"github.com/jhoicas/maxigas/pkg/jwt"
	"github.com/jhoicas/maxigas/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	clk := clock.Real()
	ids := localstore.NewIDGenerator(clk)

	// Almacenamiento compartido: en memoria (un proceso) o PostgreSQL (varios procesos)
	var hub storage.Hub
	var revenue ports.RevenueQuery
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("esquema kv_store")
		}
		kv := postgres.NewKVHub(pool, log.Component("kv_hub"))
		if err := kv.Listen(ctx); err != nil {
			log.Fatal().Err(err).Msg("LISTEN kv_changes")
		}
		defer kv.Close()
		hub = kv
		revenue = postgres.NewRevenueRepository(pool)
	default:
		hub = storage.NewMemoryHub()
	}

	if cfg.Storage.SeedOnStart {
		store := localstore.NewStore(hub.Tab("seed-"+uuid.NewString()), ids, log.Component("localstore"))
		if _, err := seed.NewSeeder(store, clk, log.Component("seed")).Apply(ctx, seed.Default()); err != nil {
			log.Fatal().Err(err).Msg("datos iniciales")
		}
	}

	tokens, err := jwt.NewService(cfg.JWT.Secret,
		jwt.WithTTL(cfg.JWT.TTL()),
		jwt.WithRenewBefore(cfg.JWT.RenewBefore()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("servicio de tokens")
	}

	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		log.Warn().Err(err).Msg("zona horaria no disponible, se usa UTC para el panel")
		loc = time.UTC
	}

	tabs := tab.NewManager(tab.Deps{
		Hub:           hub,
		IDs:           ids,
		Tokens:        tokens,
		Clock:         clk,
		Log:           log.Component("tab"),
		Shipping:      decimal.NewFromInt(cfg.Shop.ShippingFee),
		RenewInterval: cfg.Session.RenewInterval(),
		IdleTTL:       cfg.Session.TabIdleTTL(),
		MaxTabs:       cfg.Session.MaxTabs,
		Revenue:       revenue,
		Location:      loc,
	})
	defer tabs.Shutdown()

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go tabs.RunReaper(reaperCtx, tab.DefaultReapInterval)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "MaxiGas API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "tabs": tabs.Len()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Tabs:     tabs,
		Receipts: pdf.NewReceiptGenerator(loc),
		Clock:    clk,
		Log:      log.Component("http"),
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
