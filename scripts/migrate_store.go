// Command migrate_store copies every collection from one storage backend to
// another, or restores a backup snapshot file into a backend. Typical use is
// moving an installation from the file backend to sqlite or redis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"rentease/internal/storage"
	"rentease/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		fromBackend = flag.String("from", "file", "source backend: file, sqlite or redis")
		fromPath    = flag.String("from-path", "data", "source path (directory for file, db path for sqlite, address for redis)")
		toBackend   = flag.String("to", "sqlite", "destination backend: file, sqlite or redis")
		toPath      = flag.String("to-path", "data/rentease.db", "destination path")
		snapshot    = flag.String("snapshot", "", "restore this backup snapshot file instead of reading a source backend")
		prefix      = flag.String("prefix", "rentease", "key prefix of both namespaces")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := loadSnapshot(ctx, *snapshot, *fromBackend, *fromPath, *prefix, &logger)
	if err != nil {
		return err
	}

	dst, err := openStore(ctx, *toBackend, *toPath, *prefix, &logger)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer dst.Close()

	if err := dst.Restore(ctx, data); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	fmt.Printf("done: migrated %d collections to %s\n", len(data), *toBackend)
	return nil
}

func loadSnapshot(ctx context.Context, snapshotPath, backend, path, prefix string, logger *zerolog.Logger) (map[string]json.RawMessage, error) {
	if snapshotPath != "" {
		raw, err := os.ReadFile(snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		var data map[string]json.RawMessage
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		return data, nil
	}

	src, err := openStore(ctx, backend, path, prefix, logger)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	data, err := src.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

func openStore(ctx context.Context, backendName, path, prefix string, logger *zerolog.Logger) (*store.Store, error) {
	var (
		backend storage.Backend
		err     error
	)
	switch backendName {
	case "file":
		backend, err = storage.NewFileBackend(path)
	case "sqlite":
		backend, err = storage.NewSQLiteBackend(path)
	case "redis":
		backend = storage.NewRedisBackend(storage.NewRedisClient(storage.RedisOptions{Address: path}))
	default:
		return nil, fmt.Errorf("unknown backend %q", backendName)
	}
	if err != nil {
		return nil, err
	}

	return store.Open(ctx, backend, prefix, nil, logger)
}
