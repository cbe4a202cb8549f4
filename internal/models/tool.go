package models

import "time"

// Tool status values stored in tool_rack_layout.status.
const (
	ToolStatusAvailable   = "available"
	ToolStatusInUse       = "in_use"
	ToolStatusMaintenance = "maintenance"
)

type Tool struct {
	ID             int64        `json:"id"`
	CustomerID     int64        `json:"customer_id"`
	ToolNo         string       `json:"tool_no"`
	WorkOrderNo    string       `json:"wo_no"`
	RackNo         string       `json:"rack_no"`
	Location       string       `json:"location"`
	Name           *string      `json:"name,omitempty"`
	Description    *string      `json:"description,omitempty"`
	Category       *string      `json:"category,omitempty"`
	Status         *string      `json:"status,omitempty"`
	LastMaintained *time.Time   `json:"last_maintained,omitempty"`
	ImageURL       *string      `json:"image_url,omitempty"`
	Customer       *CustomerRef `json:"customer,omitempty"`
}

// StatusLabel returns a display label for the tool status, or "" when unset.
// Unknown values are returned verbatim.
func (t Tool) StatusLabel() string {
	if t.Status == nil {
		return ""
	}
	switch *t.Status {
	case ToolStatusAvailable:
		return "Available"
	case ToolStatusInUse:
		return "In Use"
	case ToolStatusMaintenance:
		return "Maintenance"
	default:
		return *t.Status
	}
}
