package catalog

import (
	"context"
	"log/slog"

	"github.com/glslr/levels-etl/internal/domain"
)

// Store is the slice of the persistence layer catalog seeding needs.
type Store interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
	SaveCatalog(ctx context.Context, cat domain.Catalog) error
}

// Bootstrap returns the stored station catalog, seeding the store from the
// stations file on first run so every command sees the same catalog.
func Bootstrap(ctx context.Context, store Store, path string, logger *slog.Logger) (domain.Catalog, error) {
	cat, err := store.LoadCatalog(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}
	if cat.Len() > 0 {
		return cat, nil
	}

	logger.Info("station catalog empty, seeding from file", "path", path)
	cat, err = LoadCSV(path)
	if err != nil {
		return domain.Catalog{}, err
	}
	if err := store.SaveCatalog(ctx, cat); err != nil {
		return domain.Catalog{}, err
	}
	return cat, nil
}
