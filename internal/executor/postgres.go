package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/geoquery/geoquery/internal/config"
)

// Postgres executes SQL against a PostGIS-enabled database through the
// stdlib driver interface.
type Postgres struct {
	db *sql.DB
}

var _ Source = (*Postgres)(nil)

// NewPostgres opens and pings a connection pool.
func NewPostgres(ctx context.Context, cfg config.DataSourceConfig) (*Postgres, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{db: db}, nil
}

// newPostgresWithDB wires an existing handle; used by tests with a mock.
func newPostgresWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Kind() SourceKind { return KindPostgres }

func (p *Postgres) Execute(ctx context.Context, sqlText string) (res *Result, err error) {
	start := time.Now()
	defer func() { instrument(KindPostgres, start, err) }()

	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("sql is required")
	}

	if !returnsRows(sqlText) {
		tag, execErr := p.db.ExecContext(ctx, sqlText)
		if execErr != nil {
			return nil, fmt.Errorf("execute statement: %w", execErr)
		}
		affected, _ := tag.RowsAffected()
		return &Result{
			Message: fmt.Sprintf("statement executed, %d row(s) affected", affected),
			Elapsed: time.Since(start),
		}, nil
	}

	rows, err := p.db.QueryContext(ctx, sqlText)
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

// Describe introspects public tables, their columns, and any PostGIS
// geometry columns with their declared SRID.
func (p *Postgres) Describe(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{
		DBType:      "postgresql",
		TableFields: make(map[string][]string),
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		if _, seen := cat.TableFields[table]; !seen {
			cat.Tables = append(cat.Tables, table)
		}
		cat.TableFields[table] = append(cat.TableFields[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	// geometry_columns is only present when PostGIS is installed; a
	// failure here degrades to a plain relational catalog.
	geomRows, err := p.db.QueryContext(ctx, `
		SELECT f_table_name, type, srid
		FROM geometry_columns
		WHERE f_table_schema = 'public'`)
	if err != nil {
		return cat, nil
	}
	defer geomRows.Close()

	for geomRows.Next() {
		var table, geomType string
		var srid int
		if err := geomRows.Scan(&table, &geomType, &srid); err != nil {
			return nil, fmt.Errorf("scan geometry row: %w", err)
		}
		cat.Layers = append(cat.Layers, LayerInfo{
			Name:         table,
			GeometryType: geomType,
			Fields:       cat.TableFields[table],
		})
		if cat.CRS == "" && srid > 0 {
			cat.CRS = fmt.Sprintf("EPSG:%d", srid)
		}
	}
	return cat, geomRows.Err()
}

// CreateLayer materializes a result set as a new table.
func (p *Postgres) CreateLayer(ctx context.Context, name string, res *Result) error {
	if len(res.Columns) == 0 {
		return fmt.Errorf("result has no columns")
	}

	ident := quoteIdent(name)
	cols := ""
	for i, c := range res.Columns {
		if i > 0 {
			cols += ", "
		}
		cols += quoteIdent(c) + " TEXT"
	}
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident, cols)); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	placeholders := ""
	for i := range res.Columns {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", ident, placeholders)
	for _, row := range res.Rows {
		args := make([]interface{}, len(res.Columns))
		for i, c := range res.Columns {
			args[i] = fmt.Sprintf("%v", row[c])
		}
		if _, err := p.db.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert into %q: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
