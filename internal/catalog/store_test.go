package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog_database.csv")
	s, err := NewStore(path)
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s *Store, name string, price float64, qty int64) {
	t.Helper()
	s.stocks[name] = &Stock{Name: name, Price: price, Quantity: qty}
}

func TestNewStore_CreatesHeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog_database.csv")
	_, err := NewStore(path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,price,quantity,volume\n", string(b))
}

func TestLookupStock_Miss(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.LookupStock("AAPL")
	assert.False(t, ok)
}

func TestLookupStock_Hit(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "AAPL", 100.0, 5)

	st, ok := s.LookupStock("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(5), st.Quantity)
	assert.Equal(t, 100.0, st.Price)
}

func TestUpdateStock_NotFound(t *testing.T) {
	s := newTestStore(t)
	result, err := s.UpdateStock("AAPL", -1)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Stock not found", result.Message)
}

func TestUpdateStock_Insufficient(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "AAPL", 100.0, 5)

	result, err := s.UpdateStock("AAPL", -100)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Insufficient stock", result.Message)

	st, _ := s.LookupStock("AAPL")
	assert.Equal(t, int64(5), st.Quantity, "quantity must be unchanged on failure")
}

func TestUpdateStock_BuyDecreasesQuantity(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "AAPL", 100.0, 5)

	result, err := s.UpdateStock("AAPL", -2)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(3), result.NewQuantity)

	st, _ := s.LookupStock("AAPL")
	assert.Equal(t, int64(2), st.Volume, "volume must increase by |quantity_change|")
}

func TestUpdateStock_SellIncreasesQuantity(t *testing.T) {
	// Preserves the original, unusual behavior: a sell returns shares to the
	// pool rather than removing them from a per-owner inventory.
	s := newTestStore(t)
	seed(t, s, "AAPL", 100.0, 5)

	result, err := s.UpdateStock("AAPL", 2)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(7), result.NewQuantity)
}

func TestUpdateStock_NeverGoesNegative(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "AAPL", 100.0, 1)

	for i := 0; i < 5; i++ {
		_, err := s.UpdateStock("AAPL", -1)
		require.NoError(t, err)
	}

	st, _ := s.LookupStock("AAPL")
	assert.GreaterOrEqual(t, st.Quantity, int64(0))
}

func TestUpdateStock_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog_database.csv")
	s, err := NewStore(path)
	require.NoError(t, err)
	seed(t, s, "AAPL", 100.0, 5)
	_, err = s.UpdateStock("AAPL", -2)
	require.NoError(t, err)

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	st, ok := reloaded.LookupStock("AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(3), st.Quantity)
	assert.Equal(t, int64(2), st.Volume)
}
