package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/config"
	"github.com/efreitasn/toymarket/internal/store"
)

// maxConnectWait bounds how long startup retries an unreachable database.
const maxConnectWait = 30 * time.Second

// openStore connects to the configured database, retrying with exponential
// backoff while it is unreachable. Open also applies the schema.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxConnectWait

	var db *store.DB
	err := backoff.RetryNotify(func() error {
		var err error
		db, err = store.Open(ctx, cfg.DBDriver, cfg.DBDSN, cfg.StoreTimeout, logger)
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying",
			zap.String("driver", cfg.DBDriver),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
