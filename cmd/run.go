package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scratcher/bot"
	"scratcher/config"
	"scratcher/database"
	"scratcher/events"
	"scratcher/infrastructure"
	"scratcher/repository"
	"scratcher/repository/memory"
	"scratcher/service"

	log "github.com/sirupsen/logrus"
)

// bonusExpiryInterval is how often lapsed bonuses are swept
const bonusExpiryInterval = time.Minute

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}
	log.WithField("environment", cfg.Environment).Info("Starting scratcher...")

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	games, err := catalog.GameConfigs()
	if err != nil {
		return fmt.Errorf("failed to build game configs: %w", err)
	}

	clock := service.NewSystemClock()
	eventBus := events.NewBus()
	metrics := infrastructure.NewMetrics()
	metrics.Subscribe(eventBus)
	healthChecks := map[string]infrastructure.HealthCheck{}

	// Storage
	var uowFactory service.UnitOfWorkFactory
	switch cfg.Storage {
	case config.StoragePostgres:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), 0)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := repository.SeedGameConfigs(ctx, db, games); err != nil {
			return err
		}
		uowFactory = repository.NewUnitOfWorkFactory(db, eventBus)
		healthChecks["database"] = func(ctx context.Context) error { return db.Ping(ctx) }
	case config.StorageMemory:
		store := memory.NewStore(clock)
		if err := store.Seed(games...); err != nil {
			return err
		}
		uowFactory = memory.NewUnitOfWorkFactory(store, eventBus)
		log.Warn("Using in-memory storage, state is lost on exit")
	}
	log.WithFields(log.Fields{
		"storage": cfg.Storage,
		"games":   len(games),
	}).Info("Game catalog seeded")

	// Settlement
	processor := service.NewSettlementProcessor(cfg.SettlementQueueLen)
	var gateway service.SettlementGateway
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()

		subjects := []string{cfg.SettlementSubject + ".>", cfg.CallbackSubject}
		if err := natsClient.EnsureStream(cfg.SettlementStream, subjects); err != nil {
			return err
		}
		listener := infrastructure.NewNATSSettlementListener(natsClient, cfg.CallbackSubject, processor)
		if err := listener.Start(ctx); err != nil {
			return err
		}
		gateway = infrastructure.NewNATSGateway(natsClient, cfg.SettlementSubject)
		healthChecks["nats"] = func(context.Context) error {
			if !natsClient.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	} else {
		gateway = service.NewSimulatedGateway(processor, cfg.SettlementDelay, clock)
		log.WithField("delay", cfg.SettlementDelay).Info("Using simulated settlement gateway")
	}

	// Services
	generator := service.NewOutcomeGenerator(service.NewRandomSource(), catalog.OddsCurve())
	playService := service.NewPlayService(uowFactory, generator, catalog.Progression, clock)
	walletService := service.NewWalletService(uowFactory, gateway, service.LimitsFromConfig(cfg), catalog.Progression, clock)
	progressionService := service.NewProgressionService(uowFactory, catalog.Progression, clock)
	accountService := service.NewAccountService(uowFactory, catalog.Progression, clock)
	statsService := service.NewStatsService(uowFactory, clock)

	processor.Start(ctx, walletService)
	if _, err := walletService.ResubmitPending(ctx); err != nil {
		log.WithError(err).Error("Failed to resubmit pending transactions")
	}
	go expireBonuses(ctx, progressionService)

	// Ops HTTP
	var opsServer *http.Server
	if cfg.MetricsAddr != "" {
		opsServer = infrastructure.NewOpsServer(cfg.MetricsAddr, infrastructure.NewOpsRouter(metrics.Registry, healthChecks))
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Serving metrics and health checks")
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Ops server failed")
			}
		}()
	}

	// Discord
	discordBot, err := bot.New(bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}, bot.Services{
		Play:        playService,
		Wallet:      walletService,
		Progression: progressionService,
		Account:     accountService,
		Stats:       statsService,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	log.Info("Scratcher is running")
	<-ctx.Done()
	log.Info("Shutting down...")

	if err := discordBot.Close(); err != nil {
		log.WithError(err).Error("Error closing Discord bot")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if opsServer != nil {
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ops server shutdown")
		}
	}

	processor.Stop()
	waited := make(chan struct{})
	go func() {
		processor.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		log.Info("Shutdown completed")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	}

	return nil
}

func expireBonuses(ctx context.Context, progression service.ProgressionService) {
	ticker := time.NewTicker(bonusExpiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := progression.ExpireBonuses(ctx)
			if err != nil {
				log.WithError(err).Error("Failed to expire bonuses")
				continue
			}
			if n > 0 {
				log.WithField("count", n).Info("Expired bonuses")
			}
		}
	}
}
