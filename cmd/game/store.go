package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"Regnum/internal/game/app/port"
	"Regnum/internal/game/infra/persistence/memory"
	"Regnum/internal/game/infra/persistence/mongodb"
	"Regnum/internal/game/infra/persistence/mysql"
	"Regnum/internal/shared/config"
	"Regnum/internal/shared/infrastructure/db"
	mongoinfra "Regnum/internal/shared/infrastructure/mongo"
	"Regnum/internal/shared/logs"
)

// openStore 按 store.driver 选写回存储，返回的 close 在最后一次 flush 之后调用。
func openStore(ctx context.Context, cfg config.Config) (port.WorldRepository, func(), error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return memory.NewWorldRepository(), func() {}, nil
	case "mongodb":
		database, err := mongoinfra.Open(ctx, cfg.MongoDB, logs.Logger())
		if err != nil {
			return nil, nil, fmt.Errorf("open mongodb: %w", err)
		}
		repo := mongodb.NewWorldRepository(database)
		return repo, func() {
			if err := database.Client().Disconnect(context.Background()); err != nil {
				logs.Warn("mongodb disconnect failed", zap.Error(err))
			}
		}, nil
	case "mysql":
		gdb, err := db.Open(cfg.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		repo := mysql.NewWorldRepository(gdb)
		if err := repo.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("migrate mysql: %w", err)
		}
		return repo, func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
