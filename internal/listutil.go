package internal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tool-rack-lookup/internal/inventory"
)

// searchParams holds the tool search query string parameters.
type searchParams struct {
	query string
	field inventory.Field
}

// parseSearchParams reads q and field. The query is used verbatim; an unknown
// field falls back to all fields.
func parseSearchParams(r *http.Request) searchParams {
	values := r.URL.Query()
	field, _ := inventory.ParseField(values.Get("field"))
	return searchParams{
		query: values.Get("q"),
		field: field,
	}
}

// parseID parses a positive integer path id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

type fieldOption struct {
	Value       inventory.Field
	Label       string
	Placeholder string
	Selected    bool
}

func fieldOptions(selected inventory.Field) []fieldOption {
	opts := make([]fieldOption, 0, len(inventory.Fields))
	for _, f := range inventory.Fields {
		opts = append(opts, fieldOption{
			Value:       f,
			Label:       f.Label(),
			Placeholder: f.Placeholder(),
			Selected:    f == selected,
		})
	}
	return opts
}
