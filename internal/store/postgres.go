package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tool-rack-lookup/internal/models"
)

const (
	customersTable = "customers"
	toolsTable     = "tool_rack_layout"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Searchable text columns are coalesced so callers never see NULL.
var toolColumns = []string{
	"t.id",
	"t.customer_id",
	"COALESCE(t.tool_no, '')",
	"COALESCE(t.wo_no, '')",
	"COALESCE(t.rack_no, '')",
	"COALESCE(t.location, '')",
	"t.name",
	"t.description",
	"t.category",
	"t.status",
	"t.last_maintained",
	"t.image_url",
	"c.id",
	"c.customer_name",
	"c.customer_logo",
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db      querier
	timeout time.Duration
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgres returns a Store that runs each query under timeout.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	return &Postgres{db: pool, timeout: timeout}
}

func customersQuery() sq.SelectBuilder {
	return psql.Select("id", "COALESCE(customer_name, '')", "COALESCE(customer_logo, '')").
		From(customersTable).
		OrderBy("id")
}

func toolsQuery() sq.SelectBuilder {
	return psql.Select(toolColumns...).
		From(toolsTable + " t").
		LeftJoin(customersTable + " c ON c.id = t.customer_id")
}

func toolsByCustomerQuery(customerID int64) sq.SelectBuilder {
	return toolsQuery().Where(sq.Eq{"t.customer_id": customerID}).OrderBy("t.id")
}

func toolByIDQuery(id int64) sq.SelectBuilder {
	return toolsQuery().Where(sq.Eq{"t.id": id}).Limit(1)
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Postgres) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	query, args, err := customersQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build customers query: %w", err)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Logo); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read customers: %w", err)
	}
	return customers, nil
}

func (p *Postgres) ListToolsByCustomer(ctx context.Context, customerID int64) ([]models.Tool, error) {
	query, args, err := toolsByCustomerQuery(customerID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tools query: %w", err)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tools for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	tools := []models.Tool{}
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		tools = append(tools, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tools: %w", err)
	}
	return tools, nil
}

func (p *Postgres) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	query, args, err := toolByIDQuery(id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tool query: %w", err)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	t, err := scanTool(p.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query tool %d: %w", id, err)
	}
	return &t, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.db.Ping(ctx)
}

func scanTool(row pgx.Row) (models.Tool, error) {
	var (
		t          models.Tool
		customerID *int64
		refID      *int64
		refName    *string
		refLogo    *string
	)
	err := row.Scan(
		&t.ID, &customerID, &t.ToolNo, &t.WorkOrderNo, &t.RackNo, &t.Location,
		&t.Name, &t.Description, &t.Category, &t.Status, &t.LastMaintained, &t.ImageURL,
		&refID, &refName, &refLogo,
	)
	if err != nil {
		return models.Tool{}, err
	}
	if customerID != nil {
		t.CustomerID = *customerID
	}
	if refID != nil {
		t.Customer = &models.CustomerRef{ID: *refID}
		if refName != nil {
			t.Customer.Name = *refName
		}
		if refLogo != nil {
			t.Customer.Logo = *refLogo
		}
	}
	return t, nil
}
