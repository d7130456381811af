package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
)

type fakeCatalogClient struct {
	lookupResp *catalogpb.LookupStockResponse
	lookupErr  error
}

func (f *fakeCatalogClient) LookupStock(context.Context, *catalogpb.LookupStockRequest, ...grpc.CallOption) (*catalogpb.LookupStockResponse, error) {
	return f.lookupResp, f.lookupErr
}

func (f *fakeCatalogClient) UpdateStock(context.Context, *catalogpb.UpdateStockRequest, ...grpc.CallOption) (*catalogpb.UpdateStockResponse, error) {
	panic("not used by the frontend HTTP surface")
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env dataEnvelope
	env.Data = out
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error
}

func TestHandleLookupStock_CacheHit(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	cache.Set(StockView{Name: "AAPL", Price: 100, Quantity: 5})

	s := NewServer(cache, &fakeCatalogClient{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/stocks/AAPL", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got stockResponse
	decodeData(t, rec, &got)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestHandleLookupStock_CacheMissFallsBackToCatalog(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	catalog := &fakeCatalogClient{lookupResp: &catalogpb.LookupStockResponse{
		Exists: true,
		Stock:  catalogpb.Stock{Name: "MSFT", Price: 50, Quantity: 9},
	}}

	s := NewServer(cache, catalog, nil)
	req := httptest.NewRequest(http.MethodGet, "/stocks/MSFT", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got stockResponse
	decodeData(t, rec, &got)
	assert.Equal(t, int64(9), got.Quantity)

	view, ok := cache.Get("MSFT")
	require.True(t, ok, "a catalog hit should populate the cache")
	assert.Equal(t, int64(9), view.Quantity)
}

func TestHandleLookupStock_NotFound(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	catalog := &fakeCatalogClient{lookupResp: &catalogpb.LookupStockResponse{Exists: false}}

	s := NewServer(cache, catalog, nil)
	req := httptest.NewRequest(http.MethodGet, "/stocks/GHOST", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePlaceOrder_RejectsBadInput(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	s := NewServer(cache, &fakeCatalogClient{}, nil)

	body := bytes.NewBufferString(`{"name":"AAPL","type":"hold","quantity":1}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePlaceOrder_SuccessInvalidatesCacheAndReturnsTransactionID(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	cache.Set(StockView{Name: "AAPL", Price: 100, Quantity: 5})

	coord := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, placeOrderResp: &orderpb.PlaceOrderResponse{Success: true, TransactionID: 42}},
	})

	s := NewServer(cache, &fakeCatalogClient{}, coord)
	body := bytes.NewBufferString(`{"name":"AAPL","type":"buy","quantity":1}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got transactionResponse
	decodeData(t, rec, &got)
	assert.Equal(t, int64(42), got.TransactionID)

	_, ok := cache.Get("AAPL")
	assert.False(t, ok, "a successful order must invalidate the stock's cache entry")
}

func TestHandlePlaceOrder_BusinessFailureReturns400(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	coord := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, placeOrderResp: &orderpb.PlaceOrderResponse{Success: false, Message: "Insufficient stock", TransactionID: -1}},
	})

	s := NewServer(cache, &fakeCatalogClient{}, coord)
	body := bytes.NewBufferString(`{"name":"AAPL","type":"buy","quantity":100}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeError(t, rec)
	assert.Equal(t, "Insufficient stock", errBody.Message)
}

func TestHandleLookupOrder_NonIntegerID(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	s := NewServer(cache, &fakeCatalogClient{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-number", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLookupOrder_Found(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)
	coord := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, lookupOrderResp: &orderpb.LookUpOrderResponse{
			Exists: true, TransactionID: 9, StockName: "AAPL", OrderType: "buy", Quantity: 2,
		}},
	})

	s := NewServer(cache, &fakeCatalogClient{}, coord)
	req := httptest.NewRequest(http.MethodGet, "/orders/9", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got orderResponse
	decodeData(t, rec, &got)
	assert.Equal(t, "AAPL", got.Name)
	assert.Equal(t, int64(2), got.Quantity)
}
