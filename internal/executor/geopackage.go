package executor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// GeoPackage executes SQL against a .gpkg file. GeoPackage is SQLite
// under the hood, so the file is attached through the engine's sqlite
// scanner and its tables exposed under their bare names.
type GeoPackage struct {
	db   *sql.DB
	path string
}

var _ Source = (*GeoPackage)(nil)

// NewGeoPackage opens an in-process analytical database and attaches the
// GeoPackage file read-only.
func NewGeoPackage(ctx context.Context, path string) (*GeoPackage, error) {
	if path == "" {
		return nil, fmt.Errorf("geopackage path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("geopackage file: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	for _, stmt := range []string{
		"INSTALL sqlite",
		"LOAD sqlite",
		fmt.Sprintf("ATTACH '%s' AS gpkg (TYPE sqlite, READ_ONLY)", strings.ReplaceAll(path, "'", "''")),
		"USE gpkg",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("attach geopackage: %w", err)
		}
	}

	return &GeoPackage{db: db, path: path}, nil
}

func (g *GeoPackage) Kind() SourceKind { return KindGeoPackage }

func (g *GeoPackage) Execute(ctx context.Context, sqlText string) (res *Result, err error) {
	start := time.Now()
	defer func() { instrument(KindGeoPackage, start, err) }()

	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("sql is required")
	}

	rows, err := g.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	res, err = collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// Describe reads the GeoPackage metadata tables. gpkg_contents lists the
// feature tables; gpkg_geometry_columns carries geometry type and SRID.
func (g *GeoPackage) Describe(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{
		DBType:      "geopackage",
		TableFields: make(map[string][]string),
	}

	rows, err := g.db.QueryContext(ctx,
		`SELECT table_name FROM gpkg_contents WHERE data_type = 'features' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("read gpkg_contents: %w", err)
	}
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan gpkg_contents: %w", err)
		}
		cat.Tables = append(cat.Tables, table)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate gpkg_contents: %w", err)
	}
	rows.Close()

	for _, table := range cat.Tables {
		fields, err := g.tableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		cat.TableFields[table] = fields
	}

	geomRows, err := g.db.QueryContext(ctx,
		`SELECT table_name, geometry_type_name, srs_id FROM gpkg_geometry_columns`)
	if err != nil {
		return cat, nil
	}
	defer geomRows.Close()

	for geomRows.Next() {
		var table, geomType string
		var srsID int
		if err := geomRows.Scan(&table, &geomType, &srsID); err != nil {
			return nil, fmt.Errorf("scan gpkg_geometry_columns: %w", err)
		}
		cat.Layers = append(cat.Layers, LayerInfo{
			Name:         table,
			GeometryType: geomType,
			Fields:       cat.TableFields[table],
		})
		if cat.CRS == "" && srsID > 0 {
			cat.CRS = fmt.Sprintf("EPSG:%d", srsID)
		}
	}
	return cat, geomRows.Err()
}

func (g *GeoPackage) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, fmt.Sprintf("DESCRIBE %s", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", table, err)
	}
	defer rows.Close()

	res, err := collectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read describe output: %w", err)
	}
	fields := make([]string, 0, res.RowCount)
	for _, row := range res.Rows {
		if name, ok := row["column_name"].(string); ok {
			fields = append(fields, name)
		}
	}
	return fields, nil
}

// CreateLayer is unsupported: the file is attached read-only.
func (g *GeoPackage) CreateLayer(ctx context.Context, name string, res *Result) error {
	return fmt.Errorf("geopackage source is read-only; cannot create layer %q", name)
}

func (g *GeoPackage) Close() error { return g.db.Close() }
