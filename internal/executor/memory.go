package executor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore holds vector layers in memory and answers a restricted SQL
// dialect against them. It exists for sessions without a database: the
// generated statement is reduced to its WHERE clause and evaluated as an
// attribute filter over the target layer, mirroring how a desktop GIS
// applies expression filters to loaded layers.
type MemoryStore struct {
	mu     sync.RWMutex
	layers map[string]*Layer
	active string
}

// Layer is one in-memory vector layer.
type Layer struct {
	Name         string
	GeometryType string
	Fields       []string
	Rows         []map[string]interface{}
}

var _ Source = (*MemoryStore)(nil)

var (
	fromRe  = regexp.MustCompile(`(?is)\bFROM\s+"?([A-Za-z_][A-Za-z0-9_ ]*?)"?(?:\s|$)`)
	whereRe = regexp.MustCompile(`(?is)\bWHERE\s+(.+?)(?:\s+ORDER\s+BY|\s+LIMIT|\s*$)`)
	limitRe = regexp.MustCompile(`(?is)\bLIMIT\s+(\d+)`)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layers: make(map[string]*Layer)}
}

func (m *MemoryStore) Kind() SourceKind { return KindMemory }

// AddLayer registers a layer. The first layer added becomes active.
func (m *MemoryStore) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[strings.ToLower(layer.Name)] = layer
	if m.active == "" {
		m.active = layer.Name
	}
}

// SetActive marks the layer used when a statement names no table.
func (m *MemoryStore) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[strings.ToLower(name)]; !ok {
		return fmt.Errorf("unknown layer %q", name)
	}
	m.active = name
	return nil
}

// Execute evaluates a SELECT-shaped statement as an attribute filter.
// Joins, aggregates, and write statements are not supported here.
func (m *MemoryStore) Execute(ctx context.Context, sqlText string) (res *Result, err error) {
	start := time.Now()
	defer func() { instrument(KindMemory, start, err) }()

	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return nil, fmt.Errorf("sql is required")
	}
	if !returnsRows(sqlText) {
		return nil, fmt.Errorf("only SELECT statements are supported on the in-memory source")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	layer, err := m.resolveLayer(sqlText)
	if err != nil {
		return nil, err
	}

	var filter *condition
	if wm := whereRe.FindStringSubmatch(sqlText); wm != nil {
		filter, err = parseCondition(wm[1])
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}

	limit := -1
	if lm := limitRe.FindStringSubmatch(sqlText); lm != nil {
		limit, _ = strconv.Atoi(lm[1])
	}

	matched := make([]map[string]interface{}, 0)
	for _, row := range layer.Rows {
		if filter == nil || filter.eval(row) {
			matched = append(matched, row)
			if limit >= 0 && len(matched) >= limit {
				break
			}
		}
	}

	return &Result{
		Columns:  layer.Fields,
		Rows:     matched,
		RowCount: len(matched),
		Elapsed:  time.Since(start),
	}, nil
}

func (m *MemoryStore) resolveLayer(sqlText string) (*Layer, error) {
	if fm := fromRe.FindStringSubmatch(sqlText); fm != nil {
		name := strings.TrimSpace(fm[1])
		if layer, ok := m.layers[strings.ToLower(name)]; ok {
			return layer, nil
		}
		return nil, fmt.Errorf("unknown layer %q", name)
	}
	if m.active != "" {
		return m.layers[strings.ToLower(m.active)], nil
	}
	return nil, fmt.Errorf("statement names no layer and no layer is active")
}

func (m *MemoryStore) Describe(ctx context.Context) (*Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat := &Catalog{
		DBType:      "memory",
		TableFields: make(map[string][]string),
		ActiveLayer: m.active,
	}
	for _, layer := range m.layers {
		cat.Tables = append(cat.Tables, layer.Name)
		cat.TableFields[layer.Name] = layer.Fields
		cat.Layers = append(cat.Layers, LayerInfo{
			Name:         layer.Name,
			GeometryType: layer.GeometryType,
			FeatureCount: int64(len(layer.Rows)),
			Fields:       layer.Fields,
		})
	}
	return cat, nil
}

// CreateLayer stores a result set as a new layer.
func (m *MemoryStore) CreateLayer(ctx context.Context, name string, res *Result) error {
	if name == "" {
		return fmt.Errorf("layer name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.layers[strings.ToLower(name)]; exists {
		return fmt.Errorf("layer %q already exists", name)
	}
	m.layers[strings.ToLower(name)] = &Layer{
		Name:   name,
		Fields: res.Columns,
		Rows:   res.Rows,
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// ─── Attribute filter evaluation ──────────────────────────────────────────────

// condition is a WHERE clause reduced to OR groups of AND comparisons.
// No parentheses: the dialect matches what attribute filters need.
type condition struct {
	orGroups [][]comparison
}

type comparison struct {
	field string
	op    string
	value string
}

var (
	orSplitRe  = regexp.MustCompile(`(?i)\s+OR\s+`)
	andSplitRe = regexp.MustCompile(`(?i)\s+AND\s+`)
	compRe     = regexp.MustCompile(`(?i)^"?([A-Za-z_][A-Za-z0-9_]*)"?\s*(<=|>=|!=|<>|=|<|>|LIKE)\s*(.+)$`)
)

func parseCondition(clause string) (*condition, error) {
	cond := &condition{}
	for _, group := range orSplitRe.Split(strings.TrimSpace(clause), -1) {
		var comps []comparison
		for _, part := range andSplitRe.Split(group, -1) {
			cm := compRe.FindStringSubmatch(strings.TrimSpace(part))
			if cm == nil {
				return nil, fmt.Errorf("unsupported condition %q", part)
			}
			comps = append(comps, comparison{
				field: cm[1],
				op:    strings.ToUpper(cm[2]),
				value: unquote(strings.TrimSpace(cm[3])),
			})
		}
		cond.orGroups = append(cond.orGroups, comps)
	}
	return cond, nil
}

func (c *condition) eval(row map[string]interface{}) bool {
	for _, group := range c.orGroups {
		all := true
		for _, comp := range group {
			if !comp.eval(row) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (c comparison) eval(row map[string]interface{}) bool {
	raw, ok := lookupField(row, c.field)
	if !ok {
		return false
	}
	got := fmt.Sprintf("%v", raw)

	if c.op == "LIKE" {
		return likeMatch(c.value, got)
	}

	// Numeric comparison when both sides parse; string comparison otherwise.
	gotNum, gotErr := strconv.ParseFloat(got, 64)
	wantNum, wantErr := strconv.ParseFloat(c.value, 64)
	if gotErr == nil && wantErr == nil {
		return compareFloats(gotNum, wantNum, c.op)
	}
	return compareStrings(got, c.value, c.op)
}

func lookupField(row map[string]interface{}, field string) (interface{}, bool) {
	if v, ok := row[field]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, field) {
			return v, true
		}
	}
	return nil, false
}

func compareFloats(got, want float64, op string) bool {
	switch op {
	case "=":
		return got == want
	case "!=", "<>":
		return got != want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	}
	return false
}

func compareStrings(got, want, op string) bool {
	switch op {
	case "=":
		return strings.EqualFold(got, want)
	case "!=", "<>":
		return !strings.EqualFold(got, want)
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	}
	return false
}

func likeMatch(pattern, value string) bool {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, "%", ".*")
	escaped = strings.ReplaceAll(escaped, "_", ".")
	re, err := regexp.Compile(`(?is)^` + escaped + `$`)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}
	return value
}
