package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/zap"

	"tool-rack-lookup/internal/inventory"
	"tool-rack-lookup/internal/models"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// ExportSheet is the name of the worksheet written by BuildWorkbook.
	ExportSheet = "Tools"
)

// ExportColumns are the header cells of the exported sheet, in order.
var ExportColumns = []string{"Tool No", "Work Order", "Rack No", "Location", "Status", "Last Maintained"}

// ToolLister is the part of the store the export needs.
type ToolLister interface {
	ListToolsByCustomer(ctx context.Context, customerID int64) ([]models.Tool, error)
}

// ExportHandler streams a customer's tools, filtered by the q and field query
// parameters, as an .xlsx workbook.
type ExportHandler struct {
	Tools ToolLister
	Log   *zap.Logger
}

func NewExportHandler(tools ToolLister, log *zap.Logger) *ExportHandler {
	return &ExportHandler{Tools: tools, Log: log}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "customerID")
	customerID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || customerID <= 0 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid customer id %q", raw), "INVALID_ID")
		return
	}

	tools, err := h.Tools.ListToolsByCustomer(r.Context(), customerID)
	if err != nil {
		h.Log.Error("export: fetch tools failed", zap.Int64("customer_id", customerID), zap.Error(err))
		WriteError(w, http.StatusBadGateway, "failed to load tools", "EXPORT_FAILED")
		return
	}

	query := r.URL.Query()
	field, _ := inventory.ParseField(query.Get("field"))
	tools = inventory.Filter(tools, query.Get("q"), field)

	file, err := BuildWorkbook(tools)
	if err != nil {
		h.Log.Error("export: build workbook failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to build workbook", "EXPORT_FAILED")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tools-%d.xlsx"`, customerID))
	if err := file.Write(w); err != nil {
		h.Log.Warn("export: write workbook failed", zap.Error(err))
	}
}

// BuildWorkbook writes a header row and one row per tool.
func BuildWorkbook(tools []models.Tool) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(ExportSheet)
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range ExportColumns {
		header.AddCell().SetString(col)
	}

	for _, t := range tools {
		row := sheet.AddRow()
		row.AddCell().SetString(t.ToolNo)
		row.AddCell().SetString(t.WorkOrderNo)
		row.AddCell().SetString(t.RackNo)
		row.AddCell().SetString(t.Location)
		row.AddCell().SetString(t.StatusLabel())
		maintained := ""
		if t.LastMaintained != nil {
			maintained = t.LastMaintained.Format("2006-01-02")
		}
		row.AddCell().SetString(maintained)
	}
	return file, nil
}
