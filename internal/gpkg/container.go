// Package gpkg reads and writes GeoPackage-style SQLite containers:
// vector layers as fid+WKB tables, rasters as gridded coverage sample
// tables, both registered through gpkg_contents. It implements the
// geodiv provider interfaces over a single container file.
package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// GeoPackage application identifiers, current and legacy.
var acceptedApplicationIDs = map[int64]bool{
	0x47504B47: true, // "GPKG"
	0x47503131: true, // "GP11"
	0x47503130: true, // "GP10"
}

const applicationID = 0x47504B47

// Extensions of sidecar-based formats the engine refuses to read. The
// original workflow required container storage; loose shapefile sets
// lack the transactional attribute table the field writer needs.
var rejectedExtensions = map[string]string{
	".shp": "shapefile",
	".shx": "shapefile index",
	".dbf": "shapefile attribute table",
	".prj": "shapefile projection sidecar",
}

// Container is an open GeoPackage-style SQLite file holding grid, layer,
// and coverage tables.
type Container struct {
	db   *sql.DB
	path string
}

// Open opens an existing container and verifies it is one: shapefile
// paths are rejected outright, and the SQLite application id must carry
// a GeoPackage signature.
func Open(path string) (*Container, error) {
	if format, ok := rejectedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return nil, &engine.ErrFormatRejected{
			Path:   path,
			Reason: fmt.Sprintf("%s input is not supported, provide a container file", format),
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var appID int64
	if err := db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		db.Close()
		return nil, fmt.Errorf("read application id: %w", err)
	}
	if !acceptedApplicationIDs[appID] {
		db.Close()
		return nil, &engine.ErrFormatRejected{
			Path:   path,
			Reason: fmt.Sprintf("application id %#x is not a GeoPackage signature", appID),
		}
	}

	return &Container{db: db, path: path}, nil
}

// Create makes a new container with the core metadata tables and opens
// it. The parent directory must exist.
func Create(path string) (*Container, error) {
	if format, ok := rejectedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return nil, &engine.ErrFormatRejected{
			Path:   path,
			Reason: fmt.Sprintf("refusing to create a %s", format),
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	c := &Container{db: db, path: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Writes are serialized by SQLite anyway; keep the pool small.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func (c *Container) initSchema() error {
	statements := []string{
		fmt.Sprintf("PRAGMA application_id = %d", applicationID),
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT,
			srs_id INTEGER NOT NULL DEFAULT 0,
			min_x REAL, min_y REAL, max_x REAL, max_y REAL
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (table_name, column_name)
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("initialize container schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (c *Container) Close() error {
	return c.db.Close()
}

// Path returns the container file path.
func (c *Container) Path() string {
	return c.path
}

// Compact reclaims space after temp-table churn. Implements the
// geodiv.TempStore maintenance hook.
func (c *Container) Compact(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum container: %w", err)
	}
	return nil
}

// RemoveStaleJournals deletes -wal and -shm sidecars left next to the
// container by a crashed run. Call only while no process has the
// container open; returns the paths it removed.
func RemoveStaleJournals(path string) ([]string, error) {
	var removed []string
	for _, suffix := range []string{"-wal", "-shm"} {
		sidecar := path + suffix
		if _, err := os.Stat(sidecar); err != nil {
			continue
		}
		if err := os.Remove(sidecar); err != nil {
			return removed, fmt.Errorf("remove stale journal %s: %w", sidecar, err)
		}
		removed = append(removed, sidecar)
	}
	return removed, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// quoteIdent validates a table or column name and returns it quoted for
// embedding in SQL. Names are restricted to word characters so layer
// names from specs and flags cannot smuggle statements in.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", &engine.ErrConfiguration{Reason: fmt.Sprintf("invalid identifier %q", name)}
	}
	return `"` + name + `"`, nil
}

// AddFeatureLayer creates a vector layer table (fid, geom, attributes)
// and registers it. Attribute columns are given as "name TYPE" pairs.
func (c *Container) AddFeatureLayer(ctx context.Context, name, geometryType string, columns ...string) error {
	quoted, err := quoteIdent(name)
	if err != nil {
		return err
	}
	cols := "fid INTEGER PRIMARY KEY, geom BLOB"
	for _, col := range columns {
		parts := strings.Fields(col)
		if len(parts) != 2 {
			return &engine.ErrConfiguration{Reason: fmt.Sprintf("attribute column %q must be \"name TYPE\"", col)}
		}
		colName, err := quoteIdent(parts[0])
		if err != nil {
			return err
		}
		cols += fmt.Sprintf(", %s %s", colName, parts[1])
	}

	if _, err := c.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, cols)); err != nil {
		return fmt.Errorf("create layer %s: %w", name, err)
	}
	if _, err := c.db.ExecContext(ctx,
		"INSERT INTO gpkg_contents (table_name, data_type, identifier) VALUES (?, 'features', ?)",
		name, name); err != nil {
		return fmt.Errorf("register layer %s: %w", name, err)
	}
	if _, err := c.db.ExecContext(ctx,
		"INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name) VALUES (?, 'geom', ?)",
		name, geometryType); err != nil {
		return fmt.Errorf("register geometry column of %s: %w", name, err)
	}
	return nil
}

// AddCoverageLayer creates a gridded coverage table holding cell-center
// samples (x, y, value; NULL value marks NoData) and registers it.
func (c *Container) AddCoverageLayer(ctx context.Context, name string) error {
	quoted, err := quoteIdent(name)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (fid INTEGER PRIMARY KEY, x REAL NOT NULL, y REAL NOT NULL, value REAL)", quoted)
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create coverage %s: %w", name, err)
	}
	if _, err := c.db.ExecContext(ctx,
		"INSERT INTO gpkg_contents (table_name, data_type, identifier) VALUES (?, '2d-gridded-coverage', ?)",
		name, name); err != nil {
		return fmt.Errorf("register coverage %s: %w", name, err)
	}
	return nil
}

// InsertFeature appends one row to a vector layer. The geometry is a
// GeoPackage or bare WKB blob; attrs may be nil.
func (c *Container) InsertFeature(ctx context.Context, layer string, geom []byte, attrs map[string]interface{}) error {
	quoted, err := quoteIdent(layer)
	if err != nil {
		return err
	}
	cols := []string{"geom"}
	args := []interface{}{geom}
	for name, value := range attrs {
		colName, err := quoteIdent(name)
		if err != nil {
			return err
		}
		cols = append(cols, colName)
		args = append(args, value)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoted, strings.Join(cols, ", "), placeholders)
	if _, err := c.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", layer, err)
	}
	return nil
}

// InsertSample appends one coverage cell. A nil value stores NoData.
func (c *Container) InsertSample(ctx context.Context, layer string, x, y float64, value *float64) error {
	quoted, err := quoteIdent(layer)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("INSERT INTO %s (x, y, value) VALUES (?, ?, ?)", quoted)
	var v interface{}
	if value != nil {
		v = *value
	}
	if _, err := c.db.ExecContext(ctx, stmt, x, y, v); err != nil {
		return fmt.Errorf("insert sample into %s: %w", layer, err)
	}
	return nil
}

// UpdateExtent records a layer's extent in the contents table so
// readers can skip the data scan.
func (c *Container) UpdateExtent(ctx context.Context, layer string, extent [4]float64) error {
	res, err := c.db.ExecContext(ctx,
		"UPDATE gpkg_contents SET min_x = ?, min_y = ?, max_x = ?, max_y = ? WHERE table_name = ?",
		extent[0], extent[1], extent[2], extent[3], layer)
	if err != nil {
		return fmt.Errorf("update extent of %s: %w", layer, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &engine.ErrConfiguration{Reason: fmt.Sprintf("layer %q is not registered", layer)}
	}
	return nil
}
