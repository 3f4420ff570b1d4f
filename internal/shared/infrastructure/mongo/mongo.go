package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"Regnum/internal/shared/config"
)

const defaultConnectTimeout = 3 * time.Second

// Validate 只检查必填项，不连库。
func Validate(cfg config.MongoDBConfig) error {
	switch {
	case cfg.URI == "":
		return fmt.Errorf("mongodb: uri is empty")
	case cfg.Database == "":
		return fmt.Errorf("mongodb: database is empty")
	}
	return nil
}

func connectTimeout(cfg config.MongoDBConfig) time.Duration {
	if cfg.ConnectTimeoutS <= 0 {
		return defaultConnectTimeout
	}
	return time.Duration(cfg.ConnectTimeoutS) * time.Second
}

// Open 连接后向 primary Ping 一次，失败时断开；返回的是库句柄，调用方用 db.Client().Disconnect 关闭。
func Open(ctx context.Context, cfg config.MongoDBConfig, l *zap.Logger) (*mongo.Database, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if l == nil {
		l = zap.NewNop()
	}
	timeout := connectTimeout(cfg)

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("regnum").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	l.Info("open mongodb success",
		zap.String("database", cfg.Database),
		zap.Duration("timeout", timeout),
	)
	return client.Database(cfg.Database), nil
}
