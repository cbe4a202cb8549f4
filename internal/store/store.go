// Package store reads customers and their tools from the data store.
package store

import (
	"context"
	"errors"

	"tool-rack-lookup/internal/models"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store is the read-only view of the data store used by the web application.
type Store interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListToolsByCustomer(ctx context.Context, customerID int64) ([]models.Tool, error)
	// GetTool returns the tool joined with its owning customer, or ErrNotFound.
	GetTool(ctx context.Context, id int64) (*models.Tool, error)
	Ping(ctx context.Context) error
}
