package orderreplica

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/metrics"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
	"github.com/stockmesh/stockmesh/pkg/rpcerr"
)

// Server adapts a Store (plus a Catalog client for PlaceOrder's cross-service
// leg) to the orderpb.OrderServer RPC surface.
type Server struct {
	store   *Store
	catalog CatalogClient
	logger  zerolog.Logger
}

// NewServer builds an Order replica server. catalog is used only by
// PlaceOrder; followers still need one wired since a follower "accepts the
// call" per the spec even though the frontend must not route place
// operations to it.
func NewServer(store *Store, catalog CatalogClient) *Server {
	return &Server{store: store, catalog: catalog, logger: log.WithReplicaID(store.replicaID)}
}

var _ orderpb.OrderServer = (*Server)(nil)

func (s *Server) PlaceOrder(ctx context.Context, req *orderpb.PlaceOrderRequest) (*orderpb.PlaceOrderResponse, error) {
	replica := strconv.Itoa(s.store.replicaID)

	orderType := OrderType(req.OrderType)
	if orderType != Buy && orderType != Sell {
		return nil, rpcerr.New(rpcerr.InvalidArgument, fmt.Sprintf("invalid order type %q", req.OrderType))
	}
	if req.Quantity <= 0 {
		return nil, rpcerr.New(rpcerr.InvalidArgument, "quantity must be positive")
	}

	lookup, err := lookupStock(ctx, s.catalog, req.StockName)
	if err != nil {
		metrics.OrdersPlacedTotal.WithLabelValues(replica, "catalog_error").Inc()
		return nil, rpcerr.New(rpcerr.UpstreamInternal, fmt.Sprintf("catalog lookup failed: %v", err))
	}
	if !lookup.Exists {
		metrics.OrdersPlacedTotal.WithLabelValues(replica, "stock_not_found").Inc()
		return &orderpb.PlaceOrderResponse{Success: false, Message: "Stock not found", TransactionID: -1}, nil
	}

	if orderType == Buy && lookup.Stock.Quantity < req.Quantity {
		metrics.OrdersPlacedTotal.WithLabelValues(replica, "insufficient_stock").Inc()
		return &orderpb.PlaceOrderResponse{Success: false, Message: "Insufficient stock", TransactionID: -1}, nil
	}

	quantityChange := req.Quantity
	if orderType == Buy {
		quantityChange = -req.Quantity
	}

	update, err := updateStock(ctx, s.catalog, req.StockName, quantityChange)
	if err != nil {
		metrics.OrdersPlacedTotal.WithLabelValues(replica, "catalog_error").Inc()
		return nil, rpcerr.New(rpcerr.UpstreamInternal, fmt.Sprintf("catalog update failed: %v", err))
	}
	if !update.Success {
		metrics.OrdersPlacedTotal.WithLabelValues(replica, "insufficient_stock").Inc()
		return &orderpb.PlaceOrderResponse{Success: false, Message: update.Message, TransactionID: -1}, nil
	}

	id, err := s.store.AppendAsLeader(req.StockName, orderType, req.Quantity)
	if err != nil {
		return nil, rpcerr.New(rpcerr.Internal, err.Error())
	}

	metrics.OrdersPlacedTotal.WithLabelValues(replica, "success").Inc()
	return &orderpb.PlaceOrderResponse{Success: true, Message: "Order placed successfully", TransactionID: id}, nil
}

func (s *Server) LookUpOrder(_ context.Context, req *orderpb.LookUpOrderRequest) (*orderpb.LookUpOrderResponse, error) {
	rec, ok := s.store.LookUpOrder(req.TransactionID)
	if !ok {
		return &orderpb.LookUpOrderResponse{Exists: false, Message: "Order not found"}, nil
	}
	return &orderpb.LookUpOrderResponse{
		Exists:        true,
		TransactionID: rec.TransactionID,
		StockName:     rec.StockName,
		OrderType:     string(rec.OrderType),
		Quantity:      rec.Quantity,
	}, nil
}

func (s *Server) LatestID(_ context.Context, _ *orderpb.LatestIDRequest) (*orderpb.LatestIDResponse, error) {
	return &orderpb.LatestIDResponse{Success: true, TransactionID: s.store.LatestID()}, nil
}

func (s *Server) LookUpOrdersByID(_ context.Context, req *orderpb.LookUpOrdersByIDRequest) (*orderpb.LookUpOrdersByIDResponse, error) {
	recs := s.store.LookUpOrdersAfter(req.TransactionID)
	if len(recs) == 0 {
		return &orderpb.LookUpOrdersByIDResponse{Exists: false}, nil
	}
	data := make([]orderpb.OrderRecord, len(recs))
	for i, rec := range recs {
		data[i] = orderpb.OrderRecord{
			TransactionID: rec.TransactionID,
			StockName:     rec.StockName,
			OrderType:     string(rec.OrderType),
			Quantity:      rec.Quantity,
		}
	}
	return &orderpb.LookUpOrdersByIDResponse{Exists: true, Data: data}, nil
}

func (s *Server) SyncOrder(_ context.Context, req *orderpb.SyncOrderRequest) (*orderpb.SyncOrderResponse, error) {
	replica := strconv.Itoa(s.store.replicaID)
	success, message := s.store.SyncOrder(Record{
		TransactionID: req.TransactionID,
		StockName:     req.StockName,
		OrderType:     OrderType(req.OrderType),
		Quantity:      req.Quantity,
	})
	metrics.OrderSyncTotal.WithLabelValues(replica, "sync").Inc()
	return &orderpb.SyncOrderResponse{Success: success, Message: message}, nil
}

func (s *Server) BulkUpsert(_ context.Context, req *orderpb.BulkUpsertRequest) (*orderpb.BulkUpsertResponse, error) {
	replica := strconv.Itoa(s.store.replicaID)
	records := make([]Record, len(req.Data))
	for i, rec := range req.Data {
		records[i] = Record{
			TransactionID: rec.TransactionID,
			StockName:     rec.StockName,
			OrderType:     OrderType(rec.OrderType),
			Quantity:      rec.Quantity,
		}
	}
	success, message := s.store.BulkUpsert(records)
	metrics.OrderSyncTotal.WithLabelValues(replica, "bulk_upsert").Inc()
	return &orderpb.BulkUpsertResponse{Success: success, Message: message}, nil
}

// HealthCheck always reports success; it exists purely as a liveness probe
// for the frontend's health-sweep loop, matching the replica contract every
// example in this system relies on.
func (s *Server) HealthCheck(_ context.Context, _ *orderpb.HealthCheckRequest) (*orderpb.HealthCheckResponse, error) {
	return &orderpb.HealthCheckResponse{Success: true}, nil
}
