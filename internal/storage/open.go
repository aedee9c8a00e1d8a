package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/taiwoajasa245/gita-reader-api/internal/database"
	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Open returns the backend named by cfg.Reader.HistoryDriver for profile.
func Open(ctx context.Context, cfg *config.Config, profile string) (KV, error) {
	switch cfg.Reader.HistoryDriver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(filepath.Join(cfg.Reader.HistoryPath, profile+".json"))
	case DriverBadger, "":
		return NewBadger(filepath.Join(cfg.Reader.HistoryPath, "badger", profile))
	case DriverPostgres:
		svc, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		if health := svc.Health(); health["status"] != "up" {
			svc.Close()
			return nil, fmt.Errorf("database unavailable: %s", health["error"])
		}
		kv, err := NewPostgres(ctx, svc, profile)
		if err != nil {
			svc.Close()
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q (supported: memory, file, badger, postgres)", cfg.Reader.HistoryDriver)
	}
}
