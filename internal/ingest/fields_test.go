package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases and trims", input: "  Employee Name  ", want: "employee name"},
		{name: "folds underscores", input: "clocked_hours", want: "clocked hours"},
		{name: "folds mixed separators", input: "Golden-Ratio (GR)", want: "golden ratio gr"},
		{name: "collapses runs", input: "Total   Sales", want: "total sales"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.input))
		})
	}
}

func TestResolveFields(t *testing.T) {
	t.Run("exact aliases win", func(t *testing.T) {
		got, err := ResolveFields([]string{"Employee", "Date", "Total Sales", "Clocked Hours"})
		require.NoError(t, err)
		assert.Equal(t, map[int]string{
			0: FieldEmployee,
			1: FieldDate,
			2: FieldSales,
			3: FieldClockedHours,
		}, got)
	})

	t.Run("containment catches decorated headers", func(t *testing.T) {
		got, err := ResolveFields([]string{"Chatter Name (Full)", "Net Sales ($)", "Avg Response Time (mm:ss)"})
		require.NoError(t, err)
		assert.Equal(t, FieldEmployee, got[0])
		assert.Equal(t, FieldSales, got[1])
		assert.Equal(t, FieldResponseTime, got[2])
	})

	t.Run("each field claimed once", func(t *testing.T) {
		got, err := ResolveFields([]string{"Employee", "Employee Name", "Sales"})
		require.NoError(t, err)
		assert.Equal(t, FieldEmployee, got[0])
		// The second employee-looking header must not steal the claim.
		_, claimed := got[1]
		assert.False(t, claimed)
	})

	t.Run("unrecognized headers dropped silently", func(t *testing.T) {
		got, err := ResolveFields([]string{"Employee", "Sales", "Zodiac Sign"})
		require.NoError(t, err)
		_, ok := got[2]
		assert.False(t, ok)
	})

	t.Run("missing identity column rejects", func(t *testing.T) {
		_, err := ResolveFields([]string{"Date", "Sales"})
		var missing *MissingRequiredFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, FieldEmployee, missing.Field)
	})

	t.Run("missing sales column rejects", func(t *testing.T) {
		_, err := ResolveFields([]string{"Employee", "Date"})
		var missing *MissingRequiredFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, FieldSales, missing.Field)
	})
}
