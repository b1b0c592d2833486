package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Storage is the interface for all comparison result sinks.
type Storage interface {
	// Store persists a batch of comparison results.
	Store(results []*types.ComparisonResult) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the backend selected by cfg.Type. A comma-separated type such
// as "jsonl,mongodb" fans out to every listed backend. It returns nil for
// "none".
func New(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	kinds := config.StorageTypes(cfg.Type)
	if len(kinds) > 1 {
		backends := make([]Storage, 0, len(kinds))
		for _, kind := range kinds {
			sub := cfg
			sub.Type = kind
			b, err := New(sub, logger)
			if err != nil {
				for _, opened := range backends {
					_ = opened.Close()
				}
				return nil, err
			}
			if b != nil {
				backends = append(backends, b)
			}
		}
		return NewMultiStorage(backends, logger), nil
	}

	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "json", "jsonl", "csv":
		return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	case "mongodb":
		s, err := NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, &types.StorageError{Backend: cfg.Type, Err: fmt.Errorf("unsupported storage type")}
	}
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch storageType {
	case "json":
		s, err = wrapFile(NewJSONStorage(filepath.Join(outputDir, "comparisons.json"), logger))
	case "jsonl":
		s, err = wrapFile(NewJSONLStorage(filepath.Join(outputDir, "comparisons.jsonl"), logger))
	case "csv":
		s, err = wrapFile(NewCSVStorage(filepath.Join(outputDir, "listings.csv"), logger))
	default:
		err = fmt.Errorf("unsupported storage type: %s", storageType)
	}
	return s, err
}

// wrapFile keeps a failed constructor from yielding a typed nil Storage.
func wrapFile[T Storage](s T, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
