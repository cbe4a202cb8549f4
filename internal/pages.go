package internal

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tool-rack-lookup/internal/inventory"
	"tool-rack-lookup/internal/models"
	"tool-rack-lookup/internal/rack"
	"tool-rack-lookup/internal/store"
)

type listingsPage struct {
	Customers []models.Customer
}

type toolCard struct {
	models.Tool
	Visible bool
}

type toolsPage struct {
	CustomerID  string
	Customer    *models.CustomerRef
	Cards       []toolCard
	Matched     int
	Query       string
	Field       inventory.Field
	Fields      []fieldOption
	Placeholder string
	ExportURL   string
}

type toolPage struct {
	Tool         *models.Tool
	Rack         rack.Layout
	ScrollTarget string
	Err          string
	NotFound     bool
}

// pageScroller records the cell the rack effect asked to centre so the page
// can hand it to the client script.
type pageScroller struct {
	target string
}

func (p *pageScroller) ScrollIntoView(cellID string) {
	p.target = cellID
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home.html", nil)
}

// listings renders one card per customer. A failed lookup is logged and shows
// an empty grid.
func (s *Server) listings(w http.ResponseWriter, r *http.Request) {
	customers, err := s.Store.ListCustomers(r.Context())
	if err != nil {
		loggerFrom(r.Context(), s.Log).Error("fetch customers failed", zap.Error(err))
		customers = nil
	}
	s.render(w, r, http.StatusOK, "listings.html", listingsPage{Customers: customers})
}

// customerTools renders every tool of the customer, hiding the cards the
// current search excludes so the client-side filter can reveal them again.
func (s *Server) customerTools(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context(), s.Log)
	params := parseSearchParams(r)
	rawID := chi.URLParam(r, "customerID")

	var tools []models.Tool
	if id, err := parseID(rawID); err != nil {
		log.Warn("invalid customer id", zap.String("customer_id", rawID))
	} else if tools, err = s.Store.ListToolsByCustomer(r.Context(), id); err != nil {
		log.Error("fetch tools failed", zap.Int64("customer_id", id), zap.Error(err))
		tools = nil
	}

	page := toolsPage{
		CustomerID:  rawID,
		Cards:       make([]toolCard, 0, len(tools)),
		Query:       params.query,
		Field:       params.field,
		Fields:      fieldOptions(params.field),
		Placeholder: params.field.Placeholder(),
		ExportURL:   exportURL(rawID, params),
	}
	if len(tools) > 0 {
		page.Customer = tools[0].Customer
	}
	for _, t := range tools {
		visible := params.query == "" || inventory.Matches(t, params.query, params.field)
		if visible {
			page.Matched++
		}
		page.Cards = append(page.Cards, toolCard{Tool: t, Visible: visible})
	}

	s.render(w, r, http.StatusOK, "tools.html", page)
}

func exportURL(customerID string, p searchParams) string {
	u := fmt.Sprintf("/tools/%s/export.xlsx", url.PathEscape(customerID))
	v := url.Values{}
	if p.query != "" {
		v.Set("q", p.query)
	}
	if p.field != inventory.FieldAll {
		v.Set("field", string(p.field))
	}
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

// tool renders the detail page. The error panel and the not-found panel are
// exclusive with the tool fields.
func (s *Server) tool(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context(), s.Log)
	rawID := chi.URLParam(r, "toolID")

	id, err := parseID(rawID)
	if err != nil {
		s.render(w, r, http.StatusNotFound, "tool.html", toolPage{NotFound: true})
		return
	}

	tool, err := s.Store.GetTool(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.render(w, r, http.StatusNotFound, "tool.html", toolPage{NotFound: true})
		return
	case err != nil:
		log.Error("fetch tool failed", zap.Int64("tool_id", id), zap.Error(err))
		s.render(w, r, http.StatusInternalServerError, "tool.html", toolPage{Err: err.Error()})
		return
	}

	layout := rack.Build(tool.RackNo)
	var (
		scroller pageScroller
		effect   rack.ScrollEffect
	)
	effect.Apply(layout, &scroller)

	s.render(w, r, http.StatusOK, "tool.html", toolPage{
		Tool:         tool,
		Rack:         layout,
		ScrollTarget: scroller.target,
	})
}

// render executes the page into a buffer first so a template failure still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		loggerFrom(r.Context(), s.Log).Error("unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		loggerFrom(r.Context(), s.Log).Error("render page failed", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		loggerFrom(r.Context(), s.Log).Warn("write page failed", zap.Error(err))
	}
}
