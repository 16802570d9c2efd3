package gpkg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// TestCreateOpenRoundtrip verifies a created container reopens cleanly.
func TestCreateOpenRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.gpkg")

	created, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, created.Close())

	opened, err := Open(path)
	require.NoError(t, err)
	defer opened.Close()
	assert.Equal(t, path, opened.Path())
}

// TestOpenRejectsShapefiles verifies sidecar formats never open.
func TestOpenRejectsShapefiles(t *testing.T) {
	for _, name := range []string{"roads.shp", "roads.SHP", "roads.dbf", "roads.prj"} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(filepath.Join(t.TempDir(), name))
			var rejected *engine.ErrFormatRejected
			require.ErrorAs(t, err, &rejected)
		})
	}

	_, err := Create(filepath.Join(t.TempDir(), "out.shp"))
	var rejected *engine.ErrFormatRejected
	require.ErrorAs(t, err, &rejected)
}

// TestOpenRejectsForeignDatabase verifies the application id gate.
func TestOpenRejectsForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	db, err := openDB(path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	var rejected *engine.ErrFormatRejected
	require.ErrorAs(t, err, &rejected)
}

// TestOpenMissingFile verifies a missing path is reported, not created.
func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.gpkg"))
	require.Error(t, err)
}

// TestRemoveStaleJournals verifies sidecar cleanup.
func TestRemoveStaleJournals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "survey.gpkg")
	require.NoError(t, os.WriteFile(path, []byte("db"), 0o644))
	require.NoError(t, os.WriteFile(path+"-wal", []byte("wal"), 0o644))
	require.NoError(t, os.WriteFile(path+"-shm", []byte("shm"), 0o644))

	removed, err := RemoveStaleJournals(path)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	_, err = os.Stat(path + "-wal")
	assert.True(t, os.IsNotExist(err), "wal sidecar survived")
	_, err = os.Stat(path + "-shm")
	assert.True(t, os.IsNotExist(err), "shm sidecar survived")

	removed, err = RemoveStaleJournals(path)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

// TestCompact verifies maintenance vacuuming runs.
func TestCompact(t *testing.T) {
	ctx := context.Background()
	c, err := Create(filepath.Join(t.TempDir(), "survey.gpkg"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.AddCoverageLayer(ctx, "dem"))
	for i := 0; i < 100; i++ {
		v := float64(i)
		require.NoError(t, c.InsertSample(ctx, "dem", float64(i), 0, &v))
	}
	_, err = c.db.ExecContext(ctx, "DELETE FROM dem")
	require.NoError(t, err)

	require.NoError(t, c.Compact(ctx))
}

// TestLayerRegistration verifies creation helpers validate their input.
func TestLayerRegistration(t *testing.T) {
	ctx := context.Background()
	c, err := Create(filepath.Join(t.TempDir(), "survey.gpkg"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.AddFeatureLayer(ctx, "geology", "POLYGON", "lith_code INTEGER"))
	require.NoError(t, c.AddCoverageLayer(ctx, "dem"))

	var cfgErr *engine.ErrConfiguration
	t.Run("bad layer name", func(t *testing.T) {
		err := c.AddFeatureLayer(ctx, `bad"name`, "POLYGON")
		require.ErrorAs(t, err, &cfgErr)
	})
	t.Run("bad column spec", func(t *testing.T) {
		err := c.AddFeatureLayer(ctx, "soils", "POLYGON", "lith_code")
		require.ErrorAs(t, err, &cfgErr)
	})
	t.Run("duplicate layer", func(t *testing.T) {
		err := c.AddFeatureLayer(ctx, "geology", "POLYGON")
		require.Error(t, err)
	})
	t.Run("extent of unregistered layer", func(t *testing.T) {
		err := c.UpdateExtent(ctx, "absent", [4]float64{0, 0, 1, 1})
		require.ErrorAs(t, err, &cfgErr)
	})
}

// TestQuoteIdent verifies identifier validation.
func TestQuoteIdent(t *testing.T) {
	for _, name := range []string{"grid_1km", "1km_grid", "GEO_SHDI_1"} {
		quoted, err := quoteIdent(name)
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, quoted)
	}

	for _, name := range []string{"", "grid 1km", "grid-1km", `x";DROP TABLE y;--`} {
		_, err := quoteIdent(name)
		assert.Error(t, err, "identifier %q accepted", name)
	}

	var cfgErr *engine.ErrConfiguration
	_, err := quoteIdent("grid 1km")
	assert.True(t, errors.As(err, &cfgErr))
}
