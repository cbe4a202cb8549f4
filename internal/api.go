package internal

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tool-rack-lookup/internal/handlers"
	"tool-rack-lookup/internal/inventory"
	"tool-rack-lookup/internal/models"
	"tool-rack-lookup/internal/store"
)

type toolsMeta struct {
	Total   int             `json:"total"`
	Matched int             `json:"matched"`
	Query   string          `json:"q"`
	Field   inventory.Field `json:"field"`
}

type toolsResponse struct {
	Data []models.Tool `json:"data"`
	Meta toolsMeta     `json:"meta"`
}

func (s *Server) apiCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.Store.ListCustomers(r.Context())
	if err != nil {
		loggerFrom(r.Context(), s.Log).Error("fetch customers failed", zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, "failed to load customers", "STORE_ERROR")
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]any{"data": customers})
}

func (s *Server) apiCustomerTools(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "customerID"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_ID")
		return
	}

	tools, err := s.Store.ListToolsByCustomer(r.Context(), id)
	if err != nil {
		loggerFrom(r.Context(), s.Log).Error("fetch tools failed", zap.Int64("customer_id", id), zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, "failed to load tools", "STORE_ERROR")
		return
	}

	params := parseSearchParams(r)
	matched := inventory.Filter(tools, params.query, params.field)
	if matched == nil {
		matched = []models.Tool{}
	}
	handlers.WriteJSON(w, http.StatusOK, toolsResponse{
		Data: matched,
		Meta: toolsMeta{
			Total:   len(tools),
			Matched: len(matched),
			Query:   params.query,
			Field:   params.field,
		},
	})
}

func (s *Server) apiTool(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "toolID"))
	if err != nil {
		handlers.WriteError(w, http.StatusNotFound, "tool not found", "NOT_FOUND")
		return
	}

	tool, err := s.Store.GetTool(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "tool not found", "NOT_FOUND")
		return
	case err != nil:
		loggerFrom(r.Context(), s.Log).Error("fetch tool failed", zap.Int64("tool_id", id), zap.Error(err))
		handlers.WriteError(w, http.StatusInternalServerError, err.Error(), "STORE_ERROR")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]any{"data": tool})
}
