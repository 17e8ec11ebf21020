package executor

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresExecuteSelect(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT name FROM cities`).WillReturnRows(
		sqlmock.NewRows([]string{"name"}).
			AddRow("Vienna").
			AddRow([]byte("Graz")))

	p := newPostgresWithDB(db)
	res, err := p.Execute(context.Background(), "SELECT name FROM cities;")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", res.RowCount)
	}
	if res.Rows[1]["name"] != "Graz" {
		t.Errorf("byte slice not normalized to string: %#v", res.Rows[1]["name"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresExecuteStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE roads SET lanes = 2`).
		WillReturnResult(sqlmock.NewResult(0, 5))

	p := newPostgresWithDB(db)
	res, err := p.Execute(context.Background(), "UPDATE roads SET lanes = 2")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0 for a write", res.RowCount)
	}
	if res.Message == "" {
		t.Error("expected an affected-rows message")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresExecuteEmpty(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	p := newPostgresWithDB(db)
	if _, err := p.Execute(context.Background(), "  ; "); err == nil {
		t.Error("expected error for empty sql")
	}
}

func TestPostgresDescribe(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`information_schema.columns`).WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "column_name"}).
			AddRow("buildings", "id").
			AddRow("buildings", "geom").
			AddRow("parks", "id"))
	mock.ExpectQuery(`geometry_columns`).WillReturnRows(
		sqlmock.NewRows([]string{"f_table_name", "type", "srid"}).
			AddRow("buildings", "POLYGON", 4326))

	p := newPostgresWithDB(db)
	cat, err := p.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(cat.Tables) != 2 {
		t.Errorf("Tables = %v", cat.Tables)
	}
	if got := cat.TableFields["buildings"]; len(got) != 2 {
		t.Errorf("TableFields[buildings] = %v", got)
	}
	if cat.CRS != "EPSG:4326" {
		t.Errorf("CRS = %q", cat.CRS)
	}
	if len(cat.Layers) != 1 || cat.Layers[0].GeometryType != "POLYGON" {
		t.Errorf("Layers = %+v", cat.Layers)
	}
}
