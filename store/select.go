package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"instafacts-api/config"
	"instafacts-api/database"
	"instafacts-api/storage"
)

// New picks the data layer once at startup: the hosted one when the database
// and storage settings are present, the local fallback otherwise. The chosen
// instance is held for the whole session lifetime.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	if !cfg.RemoteConfigured() {
		log.Info("remote backend not configured, using local data layer",
			zap.String("data_dir", cfg.DataDir))
		local, err := NewLocal(cfg, log)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := database.SeedData(db); err != nil {
		log.Warn("seeding skipped", zap.Error(err))
	}

	media, err := storage.New(ctx, cfg.StorageEndpoint, cfg.StorageAccessKey,
		cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	log.Info("using remote data layer",
		zap.String("storage_endpoint", cfg.StorageEndpoint),
		zap.String("bucket", cfg.StorageBucket))
	return NewRemote(db, media, cfg, log), nil
}
