package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glslr/levels-etl/internal/domain"
)

type mockStore struct {
	stored  domain.Catalog
	saved   *domain.Catalog
	loadErr error
	saveErr error
}

func (m *mockStore) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	return m.stored, m.loadErr
}

func (m *mockStore) SaveCatalog(_ context.Context, cat domain.Catalog) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &cat
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootstrap_SeedsEmptyStore(t *testing.T) {
	path := writeStations(t, "id,provider,name,cd\n15930,CHS,Sorel,3.775\n")
	store := &mockStore{}

	cat, err := Bootstrap(context.Background(), store, path, quietLogger())

	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())
	assert.Equal(t, "15930", cat.Stations[0].ID)
	require.NotNil(t, store.saved, "seeded catalog must be written back to the store")
	assert.Equal(t, cat, *store.saved)
}

func TestBootstrap_PrefersStoredCatalog(t *testing.T) {
	store := &mockStore{stored: domain.Catalog{Stations: []domain.Station{
		{ID: "9052030", Provider: domain.ProviderNOAA, Name: "Oswego"},
	}}}

	// The file does not exist; a populated store must never read it.
	cat, err := Bootstrap(context.Background(), store,
		filepath.Join(t.TempDir(), "nope.csv"), quietLogger())

	require.NoError(t, err)
	assert.Equal(t, store.stored, cat)
	assert.Nil(t, store.saved)
}

func TestBootstrap_Errors(t *testing.T) {
	t.Run("load failure", func(t *testing.T) {
		store := &mockStore{loadErr: errors.New("connection refused")}
		_, err := Bootstrap(context.Background(), store, "stations.csv", quietLogger())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		store := &mockStore{}
		_, err := Bootstrap(context.Background(), store,
			filepath.Join(t.TempDir(), "nope.csv"), quietLogger())
		assert.Error(t, err)
	})

	t.Run("save failure", func(t *testing.T) {
		path := writeStations(t, "id,provider,name\n15930,CHS,Sorel\n")
		store := &mockStore{saveErr: errors.New("disk full")}
		_, err := Bootstrap(context.Background(), store, path, quietLogger())
		assert.Error(t, err)
	})
}
