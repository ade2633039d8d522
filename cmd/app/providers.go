package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/urban-heat-advisor/internal/domain/advisor"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
	"github.com/yanqian/urban-heat-advisor/internal/domain/session"
	"github.com/yanqian/urban-heat-advisor/internal/domain/survey"
	"github.com/yanqian/urban-heat-advisor/internal/infra/catalogsource"
	"github.com/yanqian/urban-heat-advisor/internal/infra/config"
	"github.com/yanqian/urban-heat-advisor/internal/infra/resultrepo"
	"github.com/yanqian/urban-heat-advisor/internal/infra/sessionstore"
	"github.com/yanqian/urban-heat-advisor/internal/infra/storage"
	httpiface "github.com/yanqian/urban-heat-advisor/internal/interface/http"
)

// provideCatalog loads the heat zone reference data. A broken catalog is fatal.
func provideCatalog(cfg *config.Config, logger *slog.Logger) (*heatzone.Catalog, error) {
	loader := catalogsource.NewLoader(cfg.Catalog.FetchTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.FetchTimeout+5*time.Second)
	defer cancel()
	catalog, err := loader.Load(ctx, cfg.Catalog.Source)
	if err != nil {
		return nil, fmt.Errorf("load heat zone catalog from %q: %w", cfg.Catalog.Source, err)
	}
	logger.Info("heat zone catalog loaded", "source", cfg.Catalog.Source, "zones", len(catalog.ZoneNames()), "locations", catalog.Len())
	return catalog, nil
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{
		DefaultGridSize: cfg.Grid.DefaultSize,
		DefaultRadius:   cfg.Grid.DefaultRadius,
		MaxGridSize:     cfg.Grid.MaxSize,
		MaxRadius:       cfg.Grid.MaxRadius,
		Workers:         cfg.Grid.Workers,
		MaxPixels:       cfg.Upload.MaxPixels,
	}
}

func provideSurveyConfig(cfg *config.Config) survey.Config {
	return survey.Config{
		MaxFileBytes:      cfg.Upload.MaxFileBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}
}

func provideSessionConfig(cfg *config.Config, logger *slog.Logger) (session.Config, error) {
	secret := strings.TrimSpace(cfg.Session.Secret)
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return session.Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("session secret not set, generated an ephemeral one; sessions will not survive restarts")
	}
	return session.Config{Secret: secret, TTL: cfg.Session.TTL}, nil
}

func provideHandler(cfg *config.Config, advisorSvc advisor.Service, surveySvc *survey.Service, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(advisorSvc, surveySvc, cfg.Upload.MaxFileBytes, logger)
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger) (survey.SessionStore, func()) {
	fallback := func() (survey.SessionStore, func()) {
		return sessionstore.NewMemoryStore(cfg.Session.TTL), func() {}
	}
	if !cfg.Session.Redis.Enabled {
		return fallback()
	}
	opt, err := buildValkeyOptions(cfg.Session.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory session store", "error", err)
		return fallback()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory session store", "error", err)
		return fallback()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory session store", "error", err)
		client.Close()
		return fallback()
	}
	logger.Info("valkey session store enabled", "addr", cfg.Session.Redis.Addr)
	return sessionstore.NewValkeyStore(client, cfg.Session.Redis.Prefix, cfg.Session.TTL), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) survey.ObjectStorage {
	r2 := cfg.Storage.R2
	if strings.TrimSpace(r2.Endpoint) == "" {
		logger.Info("r2 endpoint not set, keeping schematics in memory")
		return storage.NewMemoryStorage()
	}
	store, err := storage.NewR2Storage(storage.R2Config{
		Endpoint:  r2.Endpoint,
		AccessKey: r2.AccessKey,
		SecretKey: r2.SecretKey,
		Bucket:    r2.Bucket,
		Region:    r2.Region,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, keeping schematics in memory", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("r2 schematic storage enabled", "bucket", r2.Bucket)
	return store
}

func provideResultRepository(cfg *config.Config, logger *slog.Logger) (survey.ResultRepository, func()) {
	fallback := resultrepo.NewMemoryRepository(cfg.Postgres.MaxResults)
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory result repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory result repository", "error", err)
		return fallback, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory result repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory result repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := resultrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("postgres schema setup failed, using memory result repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("postgres result repository enabled")
	return repo, pool.Close
}
