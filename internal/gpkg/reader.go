package gpkg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
	"github.com/tomaszbartus/GeodiversityTools/pkg/geodiv"
)

// Zones returns a zone source reading grid polygons from a vector layer.
// Every row must decode to exactly one polygon without holes; the engine
// validates convexity when it builds the catalog.
func (c *Container) Zones(layer string) geodiv.ZoneSource {
	return &zoneLayer{c: c, name: layer}
}

type zoneLayer struct {
	c    *Container
	name string
}

func (z *zoneLayer) Zones(ctx context.Context) ([]geodiv.Zone, error) {
	geomCol, err := z.c.featureColumns(ctx, z.name)
	if err != nil {
		return nil, err
	}
	quoted, err := quoteIdent(z.name)
	if err != nil {
		return nil, err
	}
	rows, err := z.c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT fid, %s FROM %s ORDER BY fid", geomCol, quoted))
	if err != nil {
		return nil, fmt.Errorf("read zones from %s: %w", z.name, err)
	}
	defer rows.Close()

	var zones []geodiv.Zone
	for rows.Next() {
		var fid int64
		var blob []byte
		if err := rows.Scan(&fid, &blob); err != nil {
			return nil, fmt.Errorf("scan zone row: %w", err)
		}
		parts, envelope, hasEnvelope, err := decodeGeometry(blob)
		if err != nil {
			return nil, &engine.ErrZoneGeometry{ZoneID: fid, Reason: err.Error()}
		}
		if len(parts) != 1 {
			return nil, &engine.ErrZoneGeometry{ZoneID: fid,
				Reason: fmt.Sprintf("zone must be a single polygon, got %d parts", len(parts))}
		}
		part := parts[0]
		if part.Type != geodiv.GeometryTypePolygon {
			return nil, &engine.ErrZoneGeometry{ZoneID: fid,
				Reason: "zone geometry is not a polygon"}
		}
		if len(part.Holes) > 0 {
			return nil, &engine.ErrZoneGeometry{ZoneID: fid, Reason: "zone polygon has holes"}
		}
		zone := geodiv.Zone{ID: fid, Boundary: part.Coordinates}
		if hasEnvelope {
			zone.Extent = envelope
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read zones from %s: %w", z.name, err)
	}
	return zones, nil
}

// Features returns a feature source streaming a vector layer. The
// category field may be empty for metrics that ignore categories.
// Multi-part geometries are delivered part by part, each carrying the
// row's identifier and category.
func (c *Container) Features(layer, categoryField string) geodiv.FeatureSource {
	return &featureLayer{c: c, name: layer, category: categoryField}
}

type featureLayer struct {
	c        *Container
	name     string
	category string
}

func (f *featureLayer) Name() string { return f.name }

func (f *featureLayer) Extent(ctx context.Context) (geodiv.Extent, error) {
	if ext, ok, err := f.c.contentsExtent(ctx, f.name); err != nil || ok {
		return ext, err
	}
	// The contents row carries no extent; fall back to scanning the
	// geometry column.
	return f.c.scanFeatureExtent(ctx, f.name)
}

func (f *featureLayer) Each(ctx context.Context, fn func(geodiv.Feature) error) error {
	geomCol, err := f.c.featureColumns(ctx, f.name)
	if err != nil {
		return err
	}
	quoted, err := quoteIdent(f.name)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT fid, %s FROM %s ORDER BY fid", geomCol, quoted)
	withCategory := f.category != ""
	if withCategory {
		catCol, err := quoteIdent(f.category)
		if err != nil {
			return err
		}
		query = fmt.Sprintf("SELECT fid, %s, %s FROM %s ORDER BY fid", geomCol, catCol, quoted)
	}

	rows, err := f.c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("read features from %s: %w", f.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var fid int64
		var blob []byte
		var category interface{}
		if withCategory {
			err = rows.Scan(&fid, &blob, &category)
		} else {
			err = rows.Scan(&fid, &blob)
		}
		if err != nil {
			return fmt.Errorf("scan feature row: %w", err)
		}

		parts, _, _, decodeErr := decodeGeometry(blob)
		if decodeErr != nil || len(parts) == 0 {
			// An unreadable or empty geometry is a per-feature
			// condition; hand the runner a degenerate marker so the
			// skip accounting sees it.
			if err := fn(geodiv.Feature{ID: fid,
				Geometry: geodiv.Geometry{Type: geodiv.GeometryTypePolygon}}); err != nil {
				return err
			}
			continue
		}
		for _, part := range parts {
			if err := fn(geodiv.Feature{ID: fid, Geometry: part, Category: category}); err != nil {
				return err
			}
		}
	}
	return rows.Err()
}

// Raster returns a raster source streaming a gridded coverage layer's
// cell-center samples. NULL values carry NoData.
func (c *Container) Raster(layer string) geodiv.RasterSource {
	return &rasterLayer{c: c, name: layer}
}

type rasterLayer struct {
	c    *Container
	name string
}

func (r *rasterLayer) Name() string { return r.name }

func (r *rasterLayer) Extent(ctx context.Context) (geodiv.Extent, error) {
	if err := r.c.checkRegistered(ctx, r.name, "2d-gridded-coverage"); err != nil {
		return geodiv.Extent{}, err
	}
	if ext, ok, err := r.c.contentsExtent(ctx, r.name); err != nil || ok {
		return ext, err
	}

	quoted, err := quoteIdent(r.name)
	if err != nil {
		return geodiv.Extent{}, err
	}
	var minX, minY, maxX, maxY sql.NullFloat64
	err = r.c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MIN(x), MIN(y), MAX(x), MAX(y) FROM %s", quoted)).
		Scan(&minX, &minY, &maxX, &maxY)
	if err != nil {
		return geodiv.Extent{}, fmt.Errorf("scan extent of %s: %w", r.name, err)
	}
	if !minX.Valid {
		return geodiv.Extent{}, &engine.ErrConfiguration{
			Reason: fmt.Sprintf("coverage %q holds no samples", r.name)}
	}
	return geodiv.Extent{
		MinX: minX.Float64, MaxX: maxX.Float64,
		MinY: minY.Float64, MaxY: maxY.Float64,
	}, nil
}

func (r *rasterLayer) Samples(ctx context.Context, fn func(geodiv.RasterSample) error) error {
	if err := r.c.checkRegistered(ctx, r.name, "2d-gridded-coverage"); err != nil {
		return err
	}
	quoted, err := quoteIdent(r.name)
	if err != nil {
		return err
	}
	rows, err := r.c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT x, y, value FROM %s ORDER BY fid", quoted))
	if err != nil {
		return fmt.Errorf("read samples from %s: %w", r.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var x, y float64
		var value sql.NullFloat64
		if err := rows.Scan(&x, &y, &value); err != nil {
			return fmt.Errorf("scan sample row: %w", err)
		}
		sample := geodiv.RasterSample{X: x, Y: y, NoData: !value.Valid}
		if value.Valid {
			sample.Value = value.Float64
		}
		if err := fn(sample); err != nil {
			return err
		}
	}
	return rows.Err()
}

// checkRegistered verifies a layer exists in the contents table with
// the wanted data type.
func (c *Container) checkRegistered(ctx context.Context, layer, wantType string) error {
	var dataType string
	err := c.db.QueryRowContext(ctx,
		"SELECT data_type FROM gpkg_contents WHERE table_name = ?", layer).Scan(&dataType)
	if errors.Is(err, sql.ErrNoRows) {
		return &engine.ErrConfiguration{Reason: fmt.Sprintf("layer %q is not registered in the container", layer)}
	}
	if err != nil {
		return fmt.Errorf("look up layer %s: %w", layer, err)
	}
	if dataType != wantType {
		return &engine.ErrConfiguration{
			Reason: fmt.Sprintf("layer %q is registered as %s, not %s", layer, dataType, wantType)}
	}
	return nil
}

// featureColumns verifies the layer is a registered vector layer and
// returns its quoted geometry column.
func (c *Container) featureColumns(ctx context.Context, layer string) (string, error) {
	if err := c.checkRegistered(ctx, layer, "features"); err != nil {
		return "", err
	}
	var geomCol string
	err := c.db.QueryRowContext(ctx,
		"SELECT column_name FROM gpkg_geometry_columns WHERE table_name = ?", layer).Scan(&geomCol)
	if errors.Is(err, sql.ErrNoRows) {
		geomCol = "geom"
	} else if err != nil {
		return "", fmt.Errorf("look up geometry column of %s: %w", layer, err)
	}
	return quoteIdent(geomCol)
}

// contentsExtent reads the layer extent recorded in the contents table.
// The second return reports whether a full extent was present.
func (c *Container) contentsExtent(ctx context.Context, layer string) (geodiv.Extent, bool, error) {
	var minX, minY, maxX, maxY sql.NullFloat64
	err := c.db.QueryRowContext(ctx,
		"SELECT min_x, min_y, max_x, max_y FROM gpkg_contents WHERE table_name = ?", layer).
		Scan(&minX, &minY, &maxX, &maxY)
	if errors.Is(err, sql.ErrNoRows) {
		return geodiv.Extent{}, false, &engine.ErrConfiguration{
			Reason: fmt.Sprintf("layer %q is not registered in the container", layer)}
	}
	if err != nil {
		return geodiv.Extent{}, false, fmt.Errorf("read extent of %s: %w", layer, err)
	}
	if !minX.Valid || !minY.Valid || !maxX.Valid || !maxY.Valid {
		return geodiv.Extent{}, false, nil
	}
	return geodiv.Extent{
		MinX: minX.Float64, MaxX: maxX.Float64,
		MinY: minY.Float64, MaxY: maxY.Float64,
	}, true, nil
}

// scanFeatureExtent derives a vector layer's extent from its data, for
// layers whose contents row never had one recorded.
func (c *Container) scanFeatureExtent(ctx context.Context, layer string) (geodiv.Extent, error) {
	geomCol, err := c.featureColumns(ctx, layer)
	if err != nil {
		return geodiv.Extent{}, err
	}
	quoted, err := quoteIdent(layer)
	if err != nil {
		return geodiv.Extent{}, err
	}
	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s", geomCol, quoted))
	if err != nil {
		return geodiv.Extent{}, fmt.Errorf("scan extent of %s: %w", layer, err)
	}
	defer rows.Close()

	var ext geodiv.Extent
	started := false
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return geodiv.Extent{}, fmt.Errorf("scan extent of %s: %w", layer, err)
		}
		parts, envelope, hasEnvelope, err := decodeGeometry(blob)
		if err != nil {
			continue
		}
		if hasEnvelope {
			expandExtent(&ext, &started, envelope.MinX, envelope.MinY)
			expandExtent(&ext, &started, envelope.MaxX, envelope.MaxY)
			continue
		}
		for _, part := range parts {
			for _, coord := range part.Coordinates {
				if len(coord) >= 2 {
					expandExtent(&ext, &started, coord[0], coord[1])
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return geodiv.Extent{}, fmt.Errorf("scan extent of %s: %w", layer, err)
	}
	if !started {
		return geodiv.Extent{}, &engine.ErrConfiguration{
			Reason: fmt.Sprintf("layer %q holds no readable geometry", layer)}
	}
	return ext, nil
}

func expandExtent(ext *geodiv.Extent, started *bool, x, y float64) {
	if !*started {
		*ext = geodiv.Extent{MinX: x, MaxX: x, MinY: y, MaxY: y}
		*started = true
		return
	}
	if x < ext.MinX {
		ext.MinX = x
	}
	if x > ext.MaxX {
		ext.MaxX = x
	}
	if y < ext.MinY {
		ext.MinY = y
	}
	if y > ext.MaxY {
		ext.MaxY = y
	}
}

// LayerInfo describes one registered layer, for inspection without
// loading features.
type LayerInfo struct {
	Name         string
	DataType     string
	GeometryType string
	SRID         int64
	FeatureCount int64
	Extent       geodiv.Extent
	HasExtent    bool
}

// Layers lists every registered layer with its metadata and row count.
func (c *Container) Layers(ctx context.Context) ([]LayerInfo, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT c.table_name, c.data_type, c.srs_id,
		       c.min_x, c.min_y, c.max_x, c.max_y,
		       g.geometry_type_name
		FROM gpkg_contents c
		LEFT JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		ORDER BY c.table_name`)
	if err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	defer rows.Close()

	var layers []LayerInfo
	for rows.Next() {
		var info LayerInfo
		var minX, minY, maxX, maxY sql.NullFloat64
		var geomType sql.NullString
		if err := rows.Scan(&info.Name, &info.DataType, &info.SRID,
			&minX, &minY, &maxX, &maxY, &geomType); err != nil {
			return nil, fmt.Errorf("scan layer row: %w", err)
		}
		if geomType.Valid {
			info.GeometryType = geomType.String
		}
		if minX.Valid && minY.Valid && maxX.Valid && maxY.Valid {
			info.Extent = geodiv.Extent{
				MinX: minX.Float64, MaxX: maxX.Float64,
				MinY: minY.Float64, MaxY: maxY.Float64,
			}
			info.HasExtent = true
		}
		layers = append(layers, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}

	for i := range layers {
		quoted, err := quoteIdent(layers[i].Name)
		if err != nil {
			continue
		}
		if err := c.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&layers[i].FeatureCount); err != nil {
			return nil, fmt.Errorf("count rows of %s: %w", layers[i].Name, err)
		}
	}
	return layers, nil
}
