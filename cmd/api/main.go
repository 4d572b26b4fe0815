package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/metrics"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/notify"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/store"
	"github.com/jhoicas/solar-inventario/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/solar-inventario/internal/interfaces/http"
	"github.com/jhoicas/solar-inventario/pkg/config"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	repo, closeStore, err := store.OpenRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén de materiales")
	}
	defer closeStore()

	bus, err := store.OpenBus(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bus de cambios")
	}
	defer bus.Close()

	// Notificaciones: siempre al log; además a Telegram si hay token.
	notifiers := notify.Multi{notify.NewLogNotifier(log.Component("notify"))}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log.Component("telegram"))
		if err != nil {
			log.Fatal().Err(err).Msg("cliente de Telegram")
		}
		go tg.Run(ctx)
		notifiers = append(notifiers, tg)
	}

	var recorder ordering.Recorder
	registry := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		rec, err := metrics.NewRecorder(registry)
		if err != nil {
			log.Fatal().Err(err).Msg("registro de métricas")
		}
		recorder = rec
	}

	orderUC := ordering.NewOrderUseCase(repo, bus, notifiers, recorder, log, ordering.Options{
		WriteTimeout:    cfg.Ordering.WriteTimeout,
		CASMaxAttempts:  cfg.Ordering.CASMaxAttempts,
		BulkConcurrency: cfg.Ordering.BulkConcurrency,
	})
	orderListUC := ordering.NewOrderListUseCase(repo, xlsx.NewExporter(), log, cfg.Ordering.WriteTimeout)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// Sin WriteTimeout: el flujo SSE de /api/materials/events es de larga duración.
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Solar Inventario API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger.json no encontrado, UI desactivada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(registry)))
	}

	shutdown := make(chan struct{})
	httpRouter.Router(app, httpRouter.RouterDeps{
		Orders:     orderUC,
		OrderLists: orderListUC,
		Bus:        bus,
		JWTSecret:  cfg.JWT.Secret,
		Shutdown:   shutdown,
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
	close(shutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()

	log.Info().Msg("aplicación detenida")
}
