package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"eventhub/cmd/buildCFG"
	"eventhub/internal/account"
	"eventhub/internal/api/api"
	"eventhub/internal/auth"
	"eventhub/internal/chat"
	rabbitReader "eventhub/internal/consumerWorker"
	"eventhub/internal/lifecycle"
	"eventhub/internal/mailer"
	"eventhub/internal/moderation"
	"eventhub/internal/notify"
	"eventhub/internal/rabbit"
	"eventhub/internal/repo"
	"eventhub/internal/service"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}
	repository, migrationPath := openRepository(cfg, storageCfg, &log)

	if storageCfg.SeedFile != "" {
		n, err := repo.SeedUsers(context.Background(), repository, storageCfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed users")
		}
		log.Info().Int("users", n).Msg("users seeded")
	}

	authCfg, err := buildCFG.BuildAuthConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth config")
	}
	tokens := auth.NewTokens(authCfg.Secret, authCfg.TokenTTL)

	mail := mailer.New(buildCFG.BuildSMTPConfig(cfg, &log), &log)

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var dispatcher notify.Dispatcher = notify.NewDirectDispatcher(mail)
	var reader *rabbitReader.Reader
	if rabbitCfg.Enabled {
		rmq, err := rabbit.NewRabbit(rabbitCfg.Config, &log)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()

		dispatcher = notify.NewRabbitDispatcher(rmq, &log)
		reader = rabbitReader.NewReader(rmq, mail, &log)
		reader.Start(workerCtx)
	}

	broker := chat.NewBroker(repository, &log)
	events := lifecycle.NewManager(repository, dispatcher, &log)
	events.AttachRooms(broker)
	mod := moderation.NewEngine(repository, events, dispatcher, &log)

	accounts := account.NewService(repository, tokens, dispatcher, authCfg.ResetURL, &log)

	serviceInstance := service.NewService(accounts, events, mod, broker, &log)
	app := api.NewRouters(&api.Routers{
		Service: serviceInstance,
		Tokens:  tokens,
		Chat:    broker.Handler(tokens, buildCFG.BuildChatConfig(cfg).QueueSize),
		Log:     &log,
		Mode:    serverCfg.Mode,
		Origin:  serverCfg.AllowOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: app,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	// Hijacked websocket connections are not tracked by Shutdown.
	broker.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}

	if storageCfg.RollbackOnExit && migrationPath != "" {
		log.Info().Msg("Rolling back migrations...")
		if err := repository.MigrateDown(migrationPath); err != nil {
			log.Error().Msgf("failed to rollback migrations: %v", err)
		}
	}
	log.Info().Msg("Shutdown complete")
}

// openRepository returns the configured store and, for postgres, the applied
// migrations directory.
func openRepository(cfg *config.Config, sc buildCFG.StorageConfig, log *zerolog.Logger) (repo.Repository, string) {
	if sc.Driver == "memory" {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return repo.NewMemoryRepository(), ""
	}

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}

	repository, err := repo.NewRepository(db, log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	migrationPath := sc.MigrationsPath
	if !filepath.IsAbs(migrationPath) {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("cannot get working directory")
		}
		migrationPath = filepath.Join(cwd, migrationPath)
	}
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")
	return repository, migrationPath
}
