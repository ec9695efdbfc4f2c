package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type account struct {
	ID        uint
	Name      string
	Role      string
	CreatedAt time.Time
}

var accountColumns = Columns{
	"name":      "name",
	"role":      "role",
	"createdAt": "created_at",
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db
}

func TestApplyGorm(t *testing.T) {
	db := dryRunDB(t)
	spec := &Spec{
		Filter: Filter{
			{Field: "role", Operator: OpIn, Value: []any{"user", "publisher"}},
			{Field: "createdAt", Operator: OpGte, Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Field: "name", Operator: OpEq, Value: "Rahim"},
		},
		Select: []string{"name", "role"},
		Sort:   []SortField{{Field: "createdAt", Desc: true}},
		Page:   2,
		Limit:  5,
	}

	tx, err := ApplyGorm(db.Model(&account{}), spec, accountColumns)
	if err != nil {
		t.Fatalf("ApplyGorm: %v", err)
	}
	var rows []account
	stmt := tx.Find(&rows).Statement
	sql := stmt.SQL.String()

	for _, want := range []string{
		`SELECT "name","role" FROM "accounts"`,
		`"created_at" >= $`,
		`"name" = $`,
		`"role" IN ($`,
		`ORDER BY "created_at" DESC`,
		`LIMIT`,
		`OFFSET`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("Expected SQL to contain %q, got %s", want, sql)
		}
	}

	var sawName bool
	for _, v := range stmt.Vars {
		if v == "Rahim" {
			sawName = true
		}
	}
	if !sawName {
		t.Errorf("Expected bound value Rahim in %v", stmt.Vars)
	}
}

func TestApplyGorm_RejectsUnknownColumns(t *testing.T) {
	db := dryRunDB(t)

	tests := []struct {
		name string
		spec *Spec
	}{
		{"filter", &Spec{Filter: Filter{{Field: "password", Operator: OpEq, Value: "x"}}, Page: 1, Limit: 1}},
		{"select", &Spec{Select: []string{"password"}, Page: 1, Limit: 1}},
		{"sort", &Spec{Sort: []SortField{{Field: "password"}}, Page: 1, Limit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyGorm(db.Model(&account{}), tt.spec, accountColumns)
			if !errors.Is(err, ErrUnknownField) || !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Expected ErrUnknownField, got %v", err)
			}
		})
	}
}
