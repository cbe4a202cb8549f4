// Package inventory implements the search/filter applied to a customer's
// tool list.
package inventory

import (
	"strings"

	"tool-rack-lookup/internal/models"
)

// Field selects which tool attribute a search query is matched against.
type Field string

const (
	FieldAll       Field = "all"
	FieldToolNo    Field = "tool_no"
	FieldWorkOrder Field = "wo_no"
	FieldRackNo    Field = "rack_no"
	FieldLocation  Field = "location"
)

// Fields lists the selectable fields in display order.
var Fields = []Field{FieldAll, FieldToolNo, FieldWorkOrder, FieldRackNo, FieldLocation}

var labels = map[Field]string{
	FieldAll:       "All Fields",
	FieldToolNo:    "Tool Number",
	FieldWorkOrder: "Work Order",
	FieldRackNo:    "Rack Number",
	FieldLocation:  "Location",
}

var accessors = map[Field]func(models.Tool) string{
	FieldToolNo:    func(t models.Tool) string { return t.ToolNo },
	FieldWorkOrder: func(t models.Tool) string { return t.WorkOrderNo },
	FieldRackNo:    func(t models.Tool) string { return t.RackNo },
	FieldLocation:  func(t models.Tool) string { return t.Location },
}

// searchable is the set of fields OR-ed together for FieldAll.
var searchable = []Field{FieldToolNo, FieldWorkOrder, FieldRackNo, FieldLocation}

// ParseField maps a query parameter value to a Field. Unknown or empty values
// fall back to FieldAll and report false.
func ParseField(s string) (Field, bool) {
	f := Field(strings.TrimSpace(s))
	if _, ok := labels[f]; ok {
		return f, true
	}
	return FieldAll, false
}

func (f Field) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return labels[FieldAll]
}

// Placeholder is the hint shown in the search box for the selected field.
func (f Field) Placeholder() string {
	if f == FieldAll {
		return "Search across all fields..."
	}
	return "Search by " + f.Label() + "..."
}

// Value returns the tool attribute the field reads. FieldAll has no single
// value and returns "".
func (f Field) Value(t models.Tool) string {
	if get, ok := accessors[f]; ok {
		return get(t)
	}
	return ""
}

// Matches reports whether query is a case-insensitive substring of the
// selected field, or of any searchable field when f is FieldAll.
func Matches(t models.Tool, query string, f Field) bool {
	return matches(t, strings.ToLower(query), f)
}

func matches(t models.Tool, lowered string, f Field) bool {
	if get, ok := accessors[f]; ok {
		return strings.Contains(strings.ToLower(get(t)), lowered)
	}
	for _, sf := range searchable {
		if strings.Contains(strings.ToLower(accessors[sf](t)), lowered) {
			return true
		}
	}
	return false
}

// Filter returns the tools matching query on field f, preserving order.
// An empty query returns tools unchanged.
func Filter(tools []models.Tool, query string, f Field) []models.Tool {
	if query == "" {
		return tools
	}
	lowered := strings.ToLower(query)
	out := make([]models.Tool, 0, len(tools))
	for _, t := range tools {
		if matches(t, lowered, f) {
			out = append(out, t)
		}
	}
	return out
}
