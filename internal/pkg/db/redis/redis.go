package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"ewsclient/internal/pkg/config"
	"ewsclient/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientConstructor builds the client from options; tests swap it for redismock.
type ClientConstructor func(opt *redis.Options) *redis.Client

var errInvalidPEM = errors.New("failed to parse PEM content as a valid CA certificate or client key pair")

// Connect opens the connection holding EWS back-off state and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig, newClient ClientConstructor) (*redis.Client, error) {
	logger.CtxInfo(ctx, "Connecting to Redis",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Bool("enable_tls", cfg.EnableTLS),
	)

	options := &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.ConnectTimeout,
	}

	if cfg.EnableTLS {
		tlsConfig, err := buildTLSConfig(ctx, cfg)
		if err != nil {
			logger.CtxError(ctx, "Failed to build TLS config", err)
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		options.TLSConfig = tlsConfig
	}

	if newClient == nil {
		newClient = redis.NewClient
	}
	client := newClient(options)

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.CtxError(ctx, "Redis ping failed", err)
		_ = client.Close()
		return nil, err
	}

	logger.CtxInfo(ctx, "Successfully connected to Redis", zap.String("addr", cfg.Addr))
	return client, nil
}

func buildTLSConfig(ctx context.Context, cfg config.RedisConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CertContent == "" {
		return tlsConfig, nil
	}

	pemBytes := []byte(cfg.CertContent)
	loaded := false

	// The same PEM bundle may hold a client key pair, CA certificates or both.
	if cert, err := tls.X509KeyPair(pemBytes, pemBytes); err == nil {
		tlsConfig.Certificates = []tls.Certificate{cert}
		logger.CtxDebug(ctx, "Loaded Redis client certificate")
		loaded = true
	}
	pool := x509.NewCertPool()
	if pool.AppendCertsFromPEM(pemBytes) {
		tlsConfig.RootCAs = pool
		logger.CtxDebug(ctx, "Loaded Redis CA certificates")
		loaded = true
	}

	if !loaded {
		return nil, errInvalidPEM
	}
	return tlsConfig, nil
}

func Disconnect(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
