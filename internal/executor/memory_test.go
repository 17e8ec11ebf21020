package executor

import (
	"context"
	"testing"
)

func roadsLayer() *Layer {
	return &Layer{
		Name:         "roads",
		GeometryType: "LineString",
		Fields:       []string{"id", "name", "lanes", "surface"},
		Rows: []map[string]interface{}{
			{"id": 1, "name": "Main Street", "lanes": 4, "surface": "asphalt"},
			{"id": 2, "name": "Forest Track", "lanes": 1, "surface": "gravel"},
			{"id": 3, "name": "High Street", "lanes": 2, "surface": "asphalt"},
		},
	}
}

func newStoreWithRoads() *MemoryStore {
	store := NewMemoryStore()
	store.AddLayer(roadsLayer())
	return store
}

func TestMemoryExecuteNoFilter(t *testing.T) {
	store := newStoreWithRoads()
	res, err := store.Execute(context.Background(), `SELECT * FROM roads`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", res.RowCount)
	}
}

func TestMemoryExecuteWhere(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
	}{
		{"numeric equality", `SELECT * FROM roads WHERE lanes = 4`, 1},
		{"numeric greater", `SELECT * FROM roads WHERE lanes > 1`, 2},
		{"string equality", `SELECT * FROM roads WHERE surface = 'asphalt'`, 2},
		{"not equal", `SELECT * FROM roads WHERE surface <> 'asphalt'`, 1},
		{"and", `SELECT * FROM roads WHERE surface = 'asphalt' AND lanes >= 4`, 1},
		{"or", `SELECT * FROM roads WHERE lanes = 1 OR lanes = 2`, 2},
		{"like", `SELECT * FROM roads WHERE name LIKE '%street%'`, 2},
		{"where before limit", `SELECT * FROM roads WHERE surface = 'asphalt' LIMIT 1`, 1},
		{"where before order by", `SELECT * FROM roads WHERE lanes > 0 ORDER BY name`, 3},
		{"no match", `SELECT * FROM roads WHERE lanes > 10`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newStoreWithRoads().Execute(context.Background(), tt.sql)
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", tt.sql, err)
			}
			if res.RowCount != tt.want {
				t.Errorf("Execute(%q) rows = %d, want %d", tt.sql, res.RowCount, tt.want)
			}
		})
	}
}

func TestMemoryExecuteActiveLayerFallback(t *testing.T) {
	store := newStoreWithRoads()
	res, err := store.Execute(context.Background(), `SELECT * WHERE lanes = 4`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1 from the active layer", res.RowCount)
	}
}

func TestMemoryExecuteUnknownLayer(t *testing.T) {
	store := newStoreWithRoads()
	if _, err := store.Execute(context.Background(), `SELECT * FROM rivers`); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestMemoryExecuteRejectsWrites(t *testing.T) {
	store := newStoreWithRoads()
	if _, err := store.Execute(context.Background(), `DELETE FROM roads`); err == nil {
		t.Error("expected error for non-SELECT statement")
	}
}

func TestMemoryCreateLayerFromResult(t *testing.T) {
	store := newStoreWithRoads()
	res, err := store.Execute(context.Background(), `SELECT * FROM roads WHERE surface = 'asphalt'`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := store.CreateLayer(context.Background(), "asphalt_roads", res); err != nil {
		t.Fatalf("CreateLayer() error = %v", err)
	}

	again, err := store.Execute(context.Background(), `SELECT * FROM asphalt_roads`)
	if err != nil {
		t.Fatalf("Execute() on new layer error = %v", err)
	}
	if again.RowCount != 2 {
		t.Errorf("new layer rows = %d, want 2", again.RowCount)
	}

	if err := store.CreateLayer(context.Background(), "asphalt_roads", res); err == nil {
		t.Error("expected error for duplicate layer name")
	}
}

func TestMemoryDescribe(t *testing.T) {
	store := newStoreWithRoads()
	cat, err := store.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if cat.DBType != "memory" {
		t.Errorf("DBType = %q", cat.DBType)
	}
	if len(cat.Tables) != 1 || cat.Tables[0] != "roads" {
		t.Errorf("Tables = %v", cat.Tables)
	}
	if cat.ActiveLayer != "roads" {
		t.Errorf("ActiveLayer = %q", cat.ActiveLayer)
	}
	if got := cat.TableFields["roads"]; len(got) != 4 {
		t.Errorf("TableFields[roads] = %v", got)
	}
}
