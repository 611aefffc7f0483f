package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
)

type MockCatalog struct {
	entity.Catalog
	Email string `db:"email" json:"email"`
	Notes string `json:"notes"`
}

type MockDocument struct {
	entity.Document
	Total float64 `db:"total" json:"total"`
}

func TestExtractDBColumns_EmbeddedCatalog(t *testing.T) {
	cols := ExtractDBColumns[MockCatalog]()

	expectedCols := []string{
		"id", "deletion_mark", "version", "code", "name", "created_at", "updated_at", "email",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}

	// fields without a db tag never become columns
	assert.NotContains(t, cols, "notes")
	assert.NotContains(t, cols, "Notes")
}

func TestExtractDBColumns_EmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[MockDocument]()

	expectedCols := []string{
		"id", "version", "number", "date", "comment", "created_at", "created_by", "total",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	cat := MockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
			Code: "CUST-001",
			Name: "Test Customer",
		},
		Email: "test@example.com",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "CUST-001", m["code"])
	assert.Equal(t, "Test Customer", m["name"])
	assert.Equal(t, "test@example.com", m["email"])
	assert.NotContains(t, m, "notes")
}

func TestStructToMap_PointerAndDocument(t *testing.T) {
	doc := &MockDocument{
		Document: entity.NewDocument(),
		Total:    199.99,
	}
	doc.Number = "SO-20260830-0001"
	doc.Date = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, "SO-20260830-0001", m["number"])
	assert.Equal(t, doc.Date, m["date"])
	assert.Equal(t, 199.99, m["total"])
}
