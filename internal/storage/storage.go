package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of courses.
	Store(courses []*types.Course) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Open creates the configured storage: the CSV file, fanned out to MongoDB
// when that sink is enabled.
func Open(cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	csvStore, err := NewCSVStorage(cfg.OutputPath, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Mongo.Enabled {
		return csvStore, nil
	}

	mongoStore, err := NewMongoStorage(&cfg.Mongo, logger)
	if err != nil {
		_ = csvStore.Close()
		return nil, fmt.Errorf("open mongo sink: %w", err)
	}
	return NewMultiStorage([]Storage{csvStore, mongoStore}, logger), nil
}
