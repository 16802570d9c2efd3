package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/tomaszbartus/GeodiversityTools/pkg/geodiv"
)

var (
	_ geodiv.ZoneSource      = (*zoneLayer)(nil)
	_ geodiv.FeatureSource   = (*featureLayer)(nil)
	_ geodiv.RasterSource    = (*rasterLayer)(nil)
	_ geodiv.AttributeWriter = (*tableWriter)(nil)
	_ geodiv.TempStore       = (*Container)(nil)
)

// Writer returns an attribute writer committing per-zone values onto a
// vector layer's table, keyed by fid. With a workspace, values stage
// through an intermediate table that is joined into the layer and
// dropped when the workspace is released; without one, rows update
// directly.
func (c *Container) Writer(layer string, ws *geodiv.Workspace) geodiv.AttributeWriter {
	return &tableWriter{c: c, table: layer, ws: ws}
}

type tableWriter struct {
	c     *Container
	table string
	ws    *geodiv.Workspace
}

func (w *tableWriter) Fields(ctx context.Context) ([]geodiv.FieldInfo, error) {
	if err := w.c.checkRegistered(ctx, w.table, "features"); err != nil {
		return nil, err
	}
	quoted, err := quoteIdent(w.table)
	if err != nil {
		return nil, err
	}
	rows, err := w.c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", w.table, err)
	}
	defer rows.Close()

	var fields []geodiv.FieldInfo
	for rows.Next() {
		var (
			cid     int64
			name    string
			colType string
			notNull int64
			dflt    interface{}
			pk      int64
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", w.table, err)
		}
		fields = append(fields, geodiv.FieldInfo{Name: name, Numeric: numericType(colType)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", w.table, err)
	}
	return fields, nil
}

// numericType reports whether a declared SQLite column type has numeric
// affinity.
func numericType(declared string) bool {
	t := strings.ToUpper(declared)
	for _, marker := range []string{"INT", "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL"} {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

func (w *tableWriter) EnsureField(ctx context.Context, name string) error {
	quotedTable, err := quoteIdent(w.table)
	if err != nil {
		return err
	}
	quotedField, err := quoteIdent(name)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s REAL", quotedTable, quotedField)
	if _, err := w.c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add field %s to %s: %w", name, w.table, err)
	}
	return nil
}

func (w *tableWriter) WriteValues(ctx context.Context, field string, values map[int64]geodiv.Result) error {
	quotedTable, err := quoteIdent(w.table)
	if err != nil {
		return err
	}
	quotedField, err := quoteIdent(field)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if w.ws != nil {
		return w.writeStaged(ctx, quotedTable, quotedField, field, ids, values)
	}
	return w.writeDirect(ctx, quotedTable, quotedField, field, ids, values)
}

// writeDirect updates the layer row by row inside one transaction.
func (w *tableWriter) writeDirect(ctx context.Context, quotedTable, quotedField, field string, ids []int64, values map[int64]geodiv.Result) error {
	tx, err := w.c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write field %s: %w", field, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = ? WHERE fid = ?", quotedTable, quotedField))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("write field %s: %w", field, err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, nullable(values[id]), id); err != nil {
			tx.Rollback()
			return fmt.Errorf("write field %s for zone %d: %w", field, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit field %s: %w", field, err)
	}
	return nil
}

// writeStaged loads values into a workspace-scoped intermediate table
// and joins it into the layer in one statement. The intermediate table
// is dropped when the workspace is released.
func (w *tableWriter) writeStaged(ctx context.Context, quotedTable, quotedField, field string, ids []int64, values map[int64]geodiv.Result) error {
	stage := w.ws.TempName("stage_" + strings.ToLower(field))
	quotedStage, err := quoteIdent(stage)
	if err != nil {
		return err
	}

	if _, err := w.c.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (fid INTEGER PRIMARY KEY, v REAL)", quotedStage)); err != nil {
		return fmt.Errorf("create staging table %s: %w", stage, err)
	}
	db := w.c.db
	w.ws.OnRelease("temp table "+stage, func() error {
		_, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedStage))
		return err
	})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write field %s: %w", field, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quotedStage)); err != nil {
		tx.Rollback()
		return fmt.Errorf("reset staging table %s: %w", stage, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (fid, v) VALUES (?, ?)", quotedStage))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("write field %s: %w", field, err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, nullable(values[id])); err != nil {
			tx.Rollback()
			return fmt.Errorf("stage field %s for zone %d: %w", field, id, err)
		}
	}

	join := fmt.Sprintf(
		"UPDATE %s SET %s = (SELECT v FROM %s WHERE %s.fid = %s.fid) WHERE fid IN (SELECT fid FROM %s)",
		quotedTable, quotedField, quotedStage, quotedStage, quotedTable, quotedStage)
	if _, err := tx.ExecContext(ctx, join); err != nil {
		tx.Rollback()
		return fmt.Errorf("join field %s: %w", field, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit field %s: %w", field, err)
	}
	return nil
}

// nullable maps an invalid result to SQL NULL.
func nullable(r geodiv.Result) interface{} {
	if !r.Valid {
		return nil
	}
	return r.Value
}
