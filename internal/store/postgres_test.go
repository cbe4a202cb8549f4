package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		if r.values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	queryErr error
	pingErr  error

	lastSQL  string
	lastArgs []any
	deadline bool
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	_, f.deadline = ctx.Deadline()
	return nil, f.queryErr
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	_, f.deadline = ctx.Deadline()
	return f.row
}

func (f *fakeQuerier) Ping(ctx context.Context) error {
	return f.pingErr
}

func ptr[T any](v T) *T { return &v }

func TestCustomersQuery(t *testing.T) {
	sql, args, err := customersQuery().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, COALESCE(customer_name, ''), COALESCE(customer_logo, '') FROM customers ORDER BY id", sql)
	assert.Empty(t, args)
}

func TestToolsByCustomerQuery(t *testing.T) {
	sql, args, err := toolsByCustomerQuery(42).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM tool_rack_layout t LEFT JOIN customers c ON c.id = t.customer_id")
	assert.Contains(t, sql, "WHERE t.customer_id = $1")
	assert.Contains(t, sql, "ORDER BY t.id")
	assert.Contains(t, sql, "COALESCE(t.rack_no, '')")
	assert.Equal(t, []any{int64(42)}, args)
}

func TestToolByIDQuery(t *testing.T) {
	sql, args, err := toolByIDQuery(7).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE t.id = $1")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Contains(t, sql, "c.customer_name, c.customer_logo")
	assert.Equal(t, []any{int64(7)}, args)
}

func TestGetToolNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	p := &Postgres{db: q, timeout: time.Second}

	tool, err := p.GetTool(context.Background(), 99)
	assert.Nil(t, tool)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, q.deadline, "query should run under a timeout")
}

func TestGetToolQueryError(t *testing.T) {
	boom := errors.New("relation does not exist")
	p := &Postgres{db: &fakeQuerier{row: fakeRow{err: boom}}}

	_, err := p.GetTool(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetToolScansJoinedCustomer(t *testing.T) {
	maintained := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row := fakeRow{values: []any{
		int64(7), ptr(int64(3)), "T-7", "WO-1", "23", "Bay 2",
		ptr("Drill"), ptr("Cordless"), nil, ptr("available"), &maintained, nil,
		ptr(int64(3)), ptr("Acme"), ptr("https://logos.example.com/acme.png"),
	}}
	p := &Postgres{db: &fakeQuerier{row: row}}

	tool, err := p.GetTool(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), tool.ID)
	assert.Equal(t, int64(3), tool.CustomerID)
	assert.Equal(t, "23", tool.RackNo)
	assert.Equal(t, "Drill", *tool.Name)
	assert.Nil(t, tool.Category)
	assert.Equal(t, maintained, *tool.LastMaintained)
	require.NotNil(t, tool.Customer)
	assert.Equal(t, "Acme", tool.Customer.Name)
}

func TestGetToolWithoutCustomer(t *testing.T) {
	row := fakeRow{values: []any{
		int64(8), nil, "T-8", "", "", "",
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil,
	}}
	p := &Postgres{db: &fakeQuerier{row: row}}

	tool, err := p.GetTool(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, tool.Customer)
	assert.Zero(t, tool.CustomerID)
}

func TestListErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	q := &fakeQuerier{queryErr: boom}
	p := &Postgres{db: q}

	_, err := p.ListCustomers(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, q.deadline)

	_, err = p.ListToolsByCustomer(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []any{int64(5)}, q.lastArgs)
}

func TestPing(t *testing.T) {
	p := &Postgres{db: &fakeQuerier{pingErr: errors.New("down")}}
	assert.Error(t, p.Ping(context.Background()))
}
