package buildCFG

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/mailer"
	"eventhub/internal/rabbit"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port            string
	Mode            string
	AllowOrigins    []string
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	// ResetURL is the page that receives ?token= from password reset emails.
	ResetURL string
}

type StorageConfig struct {
	// Driver is postgres or memory.
	Driver         string
	SeedFile       string
	MigrationsPath string
	// RollbackOnExit runs the down migrations at shutdown.
	RollbackOnExit bool
}

type RabbitConfig struct {
	Enabled bool
	rabbit.Config
}

type ChatConfig struct {
	QueueSize int
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func duration(cfg *config.Config, key string, def time.Duration, log *zerolog.Logger) time.Duration {
	raw := cfg.GetString(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("bad duration in config, using default")
		return def
	}
	return d
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, using 8080")
	}
	mode := cfg.GetString("server.mode")
	if mode == "" {
		mode = "release"
	}
	return ServerConfig{
		Port:            port,
		Mode:            mode,
		AllowOrigins:    splitList(cfg.GetString("server.allow_origins")),
		ShutdownTimeout: duration(cfg, "server.shutdown_timeout", 10*time.Second, log),
	}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	master := cfg.GetString("db.master_dsn")
	if master == "" {
		return "", nil, nil, errors.New("db.master_dsn is required")
	}
	slaves := splitList(cfg.GetString("db.slave_dsns"))

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: duration(cfg, "db.conn_max_lifetime", 5*time.Minute, log),
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().Int("slaves", len(slaves)).Int("max_open_conns", opts.MaxOpenConns).Msg("db config loaded")
	return master, slaves, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Enabled: cfg.GetBool("rabbit.enabled"),
		Config: rabbit.Config{
			URL:      cfg.GetString("rabbit.url"),
			Exchange: cfg.GetString("rabbit.exchange"),
			Queue:    cfg.GetString("rabbit.queue"),
			Prefetch: cfg.GetInt("rabbit.prefetch"),
		},
	}
	if !rc.Enabled {
		log.Info().Msg("rabbit disabled, notifications are sent inline")
		return rc, nil
	}
	if rc.URL == "" || rc.Exchange == "" || rc.Queue == "" {
		return rc, fmt.Errorf("rabbit.url, rabbit.exchange and rabbit.queue are required when rabbit is enabled")
	}
	return rc, nil
}

// BuildSMTPConfig reads credentials from config; an empty host disables sending.
func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		Username: cfg.GetString("smtp.username"),
		Password: cfg.GetString("smtp.password"),
		From:     cfg.GetString("smtp.from"),
	}
	if mc.Port == 0 {
		mc.Port = 587
	}
	if mc.From == "" {
		mc.From = mc.Username
	}
	if mc.Host == "" {
		log.Warn().Msg("smtp.host not set, emails will only be logged")
	}
	return mc
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if len(secret) < 16 {
		return AuthConfig{}, errors.New("auth.jwt_secret must be at least 16 characters")
	}
	return AuthConfig{
		Secret:   secret,
		TokenTTL: duration(cfg, "auth.token_ttl", 24*time.Hour, log),
		ResetURL: cfg.GetString("auth.reset_url"),
	}, nil
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	sc := StorageConfig{
		Driver:         strings.ToLower(cfg.GetString("storage.driver")),
		SeedFile:       cfg.GetString("storage.seed_file"),
		MigrationsPath: cfg.GetString("storage.migrations_path"),
		RollbackOnExit: cfg.GetBool("storage.rollback_on_exit"),
	}
	if sc.Driver == "" {
		sc.Driver = "postgres"
	}
	if sc.Driver != "postgres" && sc.Driver != "memory" {
		return sc, fmt.Errorf("unknown storage.driver %q", sc.Driver)
	}
	if sc.MigrationsPath == "" {
		sc.MigrationsPath = "migrations/postgres"
	}
	log.Info().Str("driver", sc.Driver).Msg("storage config loaded")
	return sc, nil
}

func BuildChatConfig(cfg *config.Config) ChatConfig {
	size := cfg.GetInt("chat.queue_size")
	if size <= 0 {
		size = 64
	}
	return ChatConfig{QueueSize: size}
}
