package orderreplica

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
)

// fakeCatalogClient is a hand-rolled stand-in for the generated catalog
// client, used so PlaceOrder tests don't need a real gRPC connection.
type fakeCatalogClient struct {
	lookupResp *catalogpb.LookupStockResponse
	lookupErr  error
	updateResp *catalogpb.UpdateStockResponse
	updateErr  error
}

func (f *fakeCatalogClient) LookupStock(_ context.Context, _ *catalogpb.LookupStockRequest, _ ...grpc.CallOption) (*catalogpb.LookupStockResponse, error) {
	return f.lookupResp, f.lookupErr
}

func (f *fakeCatalogClient) UpdateStock(_ context.Context, _ *catalogpb.UpdateStockRequest, _ ...grpc.CallOption) (*catalogpb.UpdateStockResponse, error) {
	return f.updateResp, f.updateErr
}

func newTestServer(t *testing.T, catalog CatalogClient) *Server {
	t.Helper()
	store := newTestStore(t)
	return NewServer(store, catalog)
}

func TestPlaceOrder_StockNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeCatalogClient{lookupResp: &catalogpb.LookupStockResponse{Exists: false}})

	resp, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 1})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Stock not found", resp.Message)
	assert.Equal(t, int64(-1), resp.TransactionID)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	catalog := &fakeCatalogClient{
		lookupResp: &catalogpb.LookupStockResponse{Exists: true, Stock: catalogpb.Stock{Name: "AAPL", Quantity: 1, Price: 100}},
	}
	srv := newTestServer(t, catalog)

	resp, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 5})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Insufficient stock", resp.Message)
}

func TestPlaceOrder_BuySuccess(t *testing.T) {
	catalog := &fakeCatalogClient{
		lookupResp: &catalogpb.LookupStockResponse{Exists: true, Stock: catalogpb.Stock{Name: "AAPL", Quantity: 5, Price: 100}},
		updateResp: &catalogpb.UpdateStockResponse{Success: true, Message: "Stock updated successfully", NewQuantity: 3},
	}
	srv := newTestServer(t, catalog)

	resp, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 2})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(0), resp.TransactionID)

	rec, ok := srv.store.LookUpOrder(0)
	require.True(t, ok)
	assert.Equal(t, Buy, rec.OrderType)
	assert.Equal(t, int64(2), rec.Quantity)
}

func TestPlaceOrder_SellPassesPositiveQuantityChange(t *testing.T) {
	var sawChange int64
	catalog := &fakeCatalogClient{
		lookupResp: &catalogpb.LookupStockResponse{Exists: true, Stock: catalogpb.Stock{Name: "AAPL", Quantity: 5, Price: 100}},
		updateResp: &catalogpb.UpdateStockResponse{Success: true, NewQuantity: 7},
	}
	srv := newTestServer(t, catalog)

	// Wrap to capture the quantity_change actually sent.
	capturing := &capturingCatalogClient{fakeCatalogClient: catalog, onUpdate: func(qc int64) { sawChange = qc }}
	srv.catalog = capturing

	resp, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "sell", Quantity: 2})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), sawChange, "sell must send a positive quantity_change")
}

type capturingCatalogClient struct {
	*fakeCatalogClient
	onUpdate func(quantityChange int64)
}

func (c *capturingCatalogClient) UpdateStock(ctx context.Context, req *catalogpb.UpdateStockRequest, opts ...grpc.CallOption) (*catalogpb.UpdateStockResponse, error) {
	c.onUpdate(req.QuantityChange)
	return c.fakeCatalogClient.UpdateStock(ctx, req, opts...)
}

func TestPlaceOrder_CatalogUnreachable(t *testing.T) {
	srv := newTestServer(t, &fakeCatalogClient{lookupErr: errors.New("connection refused")})

	resp, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 1})
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestPlaceOrder_InvalidOrderType(t *testing.T) {
	srv := newTestServer(t, &fakeCatalogClient{})
	_, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "short", Quantity: 1})
	assert.Error(t, err)
}

func TestLookUpOrder_RoundTrip(t *testing.T) {
	catalog := &fakeCatalogClient{
		lookupResp: &catalogpb.LookupStockResponse{Exists: true, Stock: catalogpb.Stock{Name: "AAPL", Quantity: 5}},
		updateResp: &catalogpb.UpdateStockResponse{Success: true, NewQuantity: 3},
	}
	srv := newTestServer(t, catalog)
	placed, err := srv.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 2})
	require.NoError(t, err)

	resp, err := srv.LookUpOrder(context.Background(), &orderpb.LookUpOrderRequest{TransactionID: placed.TransactionID})
	require.NoError(t, err)
	assert.True(t, resp.Exists)
	assert.Equal(t, "AAPL", resp.StockName)
}

func TestHealthCheck_AlwaysSucceeds(t *testing.T) {
	srv := newTestServer(t, &fakeCatalogClient{})
	resp, err := srv.HealthCheck(context.Background(), &orderpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}
