package internal

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tool-rack-lookup/internal/inventory"
)

func TestParseSearchParams(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		query string
		field inventory.Field
	}{
		{"Defaults", "/tools/1", "", inventory.FieldAll},
		{"Query is not trimmed", "/tools/1?q=%20T-1", " T-1", inventory.FieldAll},
		{"Known field", "/tools/1?q=12&field=rack_no", "12", inventory.FieldRackNo},
		{"Unknown field falls back", "/tools/1?q=x&field=serial", "x", inventory.FieldAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseSearchParams(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.query, p.query)
			assert.Equal(t, tt.field, p.field)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3", "1.5"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestExportURL(t *testing.T) {
	assert.Equal(t, "/tools/3/export.xlsx", exportURL("3", searchParams{field: inventory.FieldAll}))
	assert.Equal(t, "/tools/3/export.xlsx?field=location&q=bay+b",
		exportURL("3", searchParams{query: "bay b", field: inventory.FieldLocation}))
}

func TestFieldOptions(t *testing.T) {
	opts := fieldOptions(inventory.FieldWorkOrder)
	require.Len(t, opts, len(inventory.Fields))
	for _, o := range opts {
		assert.Equal(t, o.Value == inventory.FieldWorkOrder, o.Selected, o.Value)
	}
	assert.Equal(t, "All Fields", opts[0].Label)
}
