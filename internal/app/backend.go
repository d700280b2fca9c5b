// Package app wires configuration to a concrete store for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/safar/crm-store/internal/config"
	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/graph"
	"github.com/safar/crm-store/internal/models"
	"github.com/safar/crm-store/internal/store"
	"github.com/safar/crm-store/internal/store/memory"
	"github.com/sirupsen/logrus"
)

// Backend is everything the binaries need from a store.
type Backend interface {
	crm.Store
	graph.Reader
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
}

// Open returns the configured backend and a function that releases it.
func Open(cfg config.DatabaseConfig, log logrus.FieldLogger) (Backend, func() error, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return memory.New(), func() error { return nil }, nil
	case "postgres":
		db, err := database.NewConnection(&cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to database")
		return store.NewPostgres(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
