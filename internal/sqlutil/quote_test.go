package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple table name", input: "seed_users", expected: "`seed_users`"},
		{name: "mixed case", input: "SeedTasks", expected: "`SeedTasks`"},
		{name: "numeric suffix", input: "batch2", expected: "`batch2`"},
		{name: "embedded backtick escaped", input: "se`ed", expected: "`se``ed`"},
		{name: "empty string", input: "", expected: "``"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"seed_users", "seed_orders", "Tasks123", "___"}
	for _, name := range valid {
		assert.True(t, IsValidIdentifier(name), name)
	}

	invalid := []string{
		"",
		"seed users",
		"seed-users",
		"db.table",
		"se`ed",
		"users; DROP TABLE seed_users--",
		"table$",
	}
	for _, name := range invalid {
		assert.False(t, IsValidIdentifier(name), name)
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("seed_products")
	require.NoError(t, err)
	assert.Equal(t, "`seed_products`", quoted)

	quoted, err = QuoteIdentifierSafe("bad name")
	assert.Error(t, err)
	assert.Empty(t, quoted)
	assert.IsType(t, &InvalidIdentifierError{}, err)
	assert.Contains(t, err.Error(), "invalid identifier")
}
