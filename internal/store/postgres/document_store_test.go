package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/internal/schema"
)

func TestSelectDocumentsQuotesIdentifiers(t *testing.T) {
	dt := schema.DocumentType{
		Name:     "Product",
		Table:    "products",
		IDColumn: "id",
		Fields:   []schema.FieldSpec{{Name: "title", N: 2}, {Name: "Description", N: 3}},
	}
	assert.Equal(t,
		`SELECT "id"::text, "title", "Description" FROM "products"`,
		selectDocuments(dt))
}
