package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/CourseLens/internal/config"
	"github.com/IshaanNene/CourseLens/internal/types"
)

// MongoStorage mirrors the record set into a MongoDB collection.
// Each run replaces the collection content, matching the CSV file.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	mu         sync.Mutex
	replaced   bool
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to MongoDB and verifies the connection.
func NewMongoStorage(cfg *config.MongoConfig, logger *slog.Logger) (*MongoStorage, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    timeout,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

// Store drops the previous content on the first call of the run, then
// inserts the courses.
func (s *MongoStorage) Store(courses []*types.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if !s.replaced {
		if err := s.collection.Drop(ctx); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("drop collection: %w", err)}
		}
		s.replaced = true
	}

	if len(courses) == 0 {
		return nil
	}

	docs := make([]any, len(courses))
	for i, c := range courses {
		docs[i] = c
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert: %w", err)}
	}

	s.count += len(courses)
	s.logger.Debug("courses stored in mongodb", "count", len(courses), "total", s.count)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_courses", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes courses to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend and returns the first error.
func (s *MultiStorage) Store(courses []*types.Course) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(courses); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
