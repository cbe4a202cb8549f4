package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tool-rack-lookup/internal/models"
)

type memCache struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingStore struct {
	customers []models.Customer
	tools     []models.Tool
	err       error
	calls     map[string]int
}

func (s *countingStore) hit(op string) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[op]++
}

func (s *countingStore) ListCustomers(context.Context) ([]models.Customer, error) {
	s.hit("customers")
	return s.customers, s.err
}

func (s *countingStore) ListToolsByCustomer(_ context.Context, id int64) ([]models.Tool, error) {
	s.hit("tools")
	return s.tools, s.err
}

func (s *countingStore) GetTool(_ context.Context, id int64) (*models.Tool, error) {
	s.hit("tool")
	if s.err != nil {
		return nil, s.err
	}
	for _, t := range s.tools {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *countingStore) Ping(context.Context) error { return s.err }

func TestCachedListCustomersReadsThrough(t *testing.T) {
	next := &countingStore{customers: []models.Customer{{ID: 1, Name: "Acme"}}}
	mc := newMemCache()
	c := NewCached(next, mc, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		got, err := c.ListCustomers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, next.customers, got)
	}
	assert.Equal(t, 1, next.calls["customers"])
	assert.Equal(t, time.Minute, mc.ttls["toolrack:customers"])
}

func TestCachedToolsAreKeyedByCustomer(t *testing.T) {
	next := &countingStore{tools: []models.Tool{{ID: 9, CustomerID: 2, RackNo: "12"}}}
	mc := newMemCache()
	c := NewCached(next, mc, time.Minute, zap.NewNop())

	_, err := c.ListToolsByCustomer(context.Background(), 2)
	require.NoError(t, err)
	_, err = c.ListToolsByCustomer(context.Background(), 3)
	require.NoError(t, err)
	_, err = c.ListToolsByCustomer(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls["tools"])
	assert.Contains(t, mc.entries, "toolrack:tools:customer:2")
	assert.Contains(t, mc.entries, "toolrack:tools:customer:3")
}

func TestCachedDoesNotCacheNotFoundOrErrors(t *testing.T) {
	next := &countingStore{}
	mc := newMemCache()
	c := NewCached(next, mc, time.Minute, zap.NewNop())

	_, err := c.GetTool(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.GetTool(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, next.calls["tool"])
	assert.Empty(t, mc.entries)

	next.err = errors.New("timeout")
	_, err = c.ListCustomers(context.Background())
	assert.Error(t, err)
	assert.Empty(t, mc.entries)
}

func TestCachedGetToolRoundTripsJoinedCustomer(t *testing.T) {
	next := &countingStore{tools: []models.Tool{{
		ID: 4, RackNo: "31", Customer: &models.CustomerRef{ID: 2, Name: "Acme"},
	}}}
	c := NewCached(next, newMemCache(), time.Minute, zap.NewNop())

	first, err := c.GetTool(context.Background(), 4)
	require.NoError(t, err)
	second, err := c.GetTool(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Acme", second.Customer.Name)
	assert.Equal(t, 1, next.calls["tool"])
}

func TestCachedFallsThroughOnCacheFailure(t *testing.T) {
	next := &countingStore{customers: []models.Customer{{ID: 1}}}
	mc := newMemCache()
	mc.getErr = errors.New("redis down")
	c := NewCached(next, mc, time.Minute, zap.NewNop())

	got, err := c.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	mc.getErr = nil
	mc.entries["toolrack:customers"] = []byte("{not json")
	got, err = c.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, next.calls["customers"])
}
