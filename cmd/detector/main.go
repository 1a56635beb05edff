package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arbitrage/internal/api"
	"arbitrage/internal/config"
	"arbitrage/internal/driver"
	"arbitrage/internal/exchange"
	"arbitrage/internal/rate"
	"arbitrage/internal/repository"
	"arbitrage/internal/roundtrip"
	"arbitrage/internal/streamhub"
	"arbitrage/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	once := flag.Bool("once", false, "populate every venue once, print ranked candidates, and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	blacklistRepo := repository.NewBlacklistRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	var credentialRepo *repository.VenueCredentialRepository
	if cfg.Security.EncryptionKey != "" {
		if len(cfg.Security.EncryptionKey) != 32 {
			logger.Sugar().Fatalf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256, got %d", len(cfg.Security.EncryptionKey))
		}
		credentialRepo = repository.NewVenueCredentialRepository(db, []byte(cfg.Security.EncryptionKey))
	}

	settings, err := settingsRepo.Get()
	if err != nil {
		logger.Sugar().Fatalf("failed to load settings: %v", err)
	}

	blacklist, err := loadBlacklist(blacklistRepo)
	if err != nil {
		logger.Sugar().Fatalf("failed to load blacklist: %v", err)
	}

	syn := buildSynonymSet(cfg.Bot.SynonymSource, settings.SynonymPairs)
	table := rate.NewTable(syn)
	enumerator := roundtrip.New(table, syn)

	clients := buildClients(cfg.Bot.Venues, credentialRepo, logger)

	hub := streamhub.NewHub()
	go hub.Run()

	d := driver.New(table, enumerator, clients, hub, driver.Options{
		StartCurrency:    cfg.Bot.StartCurrency,
		StartAmount:      cfg.Bot.StartAmount,
		ThresholdPcent:   settings.ArbitrageThreshold,
		MaxSteps:         settings.MaxSearchSteps,
		PopulateInterval: cfg.Bot.PopulateInterval,
		StatsUpdateFreq:  cfg.Bot.StatsUpdateFreq,
		Blacklist:        blacklist,
		DiffsFrom:        cfg.Bot.StartCurrency,
		RetryCount:       cfg.Bot.RetryCount,
		RetryBackoff:     cfg.Bot.RetryBackoff,
		LogFn:            logger.Sugar().Infof,
	})

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Bot.ExchangeCallTimeout*time.Duration(len(clients)+1))
		defer cancel()
		chains := d.Once(ctx)
		for _, c := range chains {
			fmt.Println(c.String())
		}
		return
	}

	deps := &api.Dependencies{
		BlacklistRepo: blacklistRepo,
		SettingsRepo:  settingsRepo,
		Table:         table,
		Hub:           hub,
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancelDriver := context.WithCancel(context.Background())
	go d.Forever(ctx)

	go func() {
		logger.Sugar().Infof("starting server on %s", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("server failed: %v", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Sugar().Fatalf("server failed: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelDriver()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func loadBlacklist(repo *repository.BlacklistRepository) (map[string]bool, error) {
	entries, err := repo.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.Symbol] = true
	}
	return out, nil
}

func buildSynonymSet(source string, overrides []string) *rate.SynonymSet {
	if source == "none" {
		return rate.NewSynonymSet()
	}
	pairs := [][2]string{{"XBT", "BTC"}, {"BCC", "BCH"}}
	for _, raw := range overrides {
		a, b, ok := repository.ParseSynonymPair(raw)
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{a, b})
	}
	return rate.NewSynonymSet(pairs...)
}

// buildClients turns a list of configured venue names into exchange.Clients.
// When credentialRepo is non-nil, a venue with a stored secret (set through
// the admin API, see repository.VenueCredentialRepository) gets it attached
// as an API key; venues with none configured still work unauthenticated.
func buildClients(venues []string, credentialRepo *repository.VenueCredentialRepository, logger *utils.Logger) []exchange.Client {
	clients := make([]exchange.Client, 0, len(venues))
	for _, v := range venues {
		venueLogger := logger.WithExchange(v)

		apiKey := ""
		if credentialRepo != nil {
			if cred, err := credentialRepo.Get(v); err == nil {
				apiKey = cred.APIKey
			} else if err != repository.ErrVenueCredentialNotFound {
				venueLogger.Warn("failed to load venue credential", utils.Err(err))
			}
		}

		client, err := exchange.NewRegisteredClientWithKey(v, apiKey)
		if err != nil {
			venueLogger.Warn("skipping unregistered venue", utils.Err(err))
			continue
		}
		clients = append(clients, client)
	}
	return clients
}
