package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"
	"github.com/target/jobboard-portal/config"
	"github.com/target/jobboard-portal/internal/migrate"
)

const connectTimeout = 5 * time.Second

// postgresDSN builds the connection URL; url.URL escapes credentials.
func postgresDSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// openPostgres opens and pings the session database, applying the embedded
// schema when RunMigrationsOnStart is set.
func openPostgres(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Session records are tiny and written rarely.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}
	logger.InfoContext(ctx, "database connected", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)

	if cfg.RunMigrationsOnStart {
		if err := migrate.Run(ctx, db); err != nil {
			return nil, errors.Join(fmt.Errorf("run migrations: %w", err), db.Close())
		}
		logger.InfoContext(ctx, "database migrations completed")
	}
	return db, nil
}

// openRedis connects to a single node, a sentinel group or a cluster and
// pings it before returning.
//
//nolint:ireturn // the concrete client depends on the deployment mode.
func openRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, desc, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis: %w", err), client.Close())
	}
	logger.InfoContext(ctx, "redis connected", "addr", desc)
	return client, nil
}

// newRedisClient picks the client for the configured mode. The returned
// description never carries credentials.
//
//nolint:ireturn // the concrete client depends on the deployment mode.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	uri := strings.TrimSpace(cfg.URI)

	switch {
	case cfg.UseCluster:
		opts := &redis.ClusterOptions{Addrs: trimAll(cfg.ClusterNodes), Password: cfg.Password}
		if len(opts.Addrs) == 0 && uri != "" {
			// Managed clusters usually expose one configuration endpoint.
			node, err := parseRedisURI(uri, cfg)
			if err != nil {
				return nil, "", fmt.Errorf("parse redis cluster url: %w", err)
			}
			opts.Addrs = []string{node.Addr}
			opts.Username = node.Username
			opts.Password = node.Password
			opts.TLSConfig = node.TLSConfig
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		return redis.NewClusterClient(opts), "cluster:" + strings.Join(opts.Addrs, ","), nil

	case cfg.UseSentinel:
		sentinels := trimAll(cfg.SentinelNodes)
		if len(sentinels) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    sentinels,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		}), "sentinel:" + cfg.SentinelMasterName, nil

	default:
		if uri == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		opts, err := parseRedisURI(uri, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), opts.Addr, nil
	}
}

// parseRedisURI accepts redis:// and rediss:// URLs or a bare host:port.
// Password and DB from the URL win over REDIS_PASSWORD and REDIS_DB.
func parseRedisURI(uri string, cfg config.RedisConfig) (*redis.Options, error) {
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.Options{Addr: uri, Password: cfg.Password, DB: cfg.DB}, nil
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	if opts.Password == "" {
		opts.Password = cfg.Password
	}
	return opts, nil
}

func trimAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
