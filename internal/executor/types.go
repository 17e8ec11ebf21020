// Package executor runs generated SQL against the configured data source.
// Exactly one source is active per process: a PostGIS database, a
// GeoPackage file opened through an embedded analytical engine, or an
// in-memory layer store for desktop-style sessions without a database.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/geoquery/geoquery/internal/config"
	"github.com/geoquery/geoquery/internal/observability"
)

// SourceKind identifies a data source backend.
type SourceKind string

const (
	KindPostgres   SourceKind = "postgres"
	KindGeoPackage SourceKind = "geopackage"
	KindMemory     SourceKind = "memory"
)

// Result is the outcome of one SQL execution.
type Result struct {
	Columns  []string
	Rows     []map[string]interface{}
	RowCount int
	// Message is set for statements that return no rows (DDL, writes).
	Message string
	Elapsed time.Duration
}

// LayerInfo describes one vector layer (or spatial table) in the source.
type LayerInfo struct {
	Name         string
	GeometryType string
	FeatureCount int64
	Fields       []string
}

// Catalog is the introspected shape of a source, consumed by the schema
// cache and ultimately embedded into LLM prompts.
type Catalog struct {
	DBType      string
	CRS         string
	Tables      []string
	TableFields map[string][]string
	Layers      []LayerInfo
	ActiveLayer string
}

// Source is one SQL execution backend.
type Source interface {
	Kind() SourceKind
	Execute(ctx context.Context, sqlText string) (*Result, error)
	Describe(ctx context.Context) (*Catalog, error)
	// CreateLayer materializes a result set as a new named layer or table.
	CreateLayer(ctx context.Context, name string, res *Result) error
	Close() error
}

// Open constructs the source named by cfg.Kind.
func Open(ctx context.Context, cfg config.DataSourceConfig) (Source, error) {
	switch SourceKind(cfg.Kind) {
	case KindPostgres:
		return NewPostgres(ctx, cfg)
	case KindGeoPackage:
		return NewGeoPackage(ctx, cfg.GeoPackagePath)
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown data source kind %q", cfg.Kind)
	}
}

// instrument wraps an Execute call with the shared execution metrics.
func instrument(kind SourceKind, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.ObserveQueryExecution(string(kind), outcome, time.Since(start))
}
