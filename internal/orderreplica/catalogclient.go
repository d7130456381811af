package orderreplica

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
)

// rpcTimeout bounds every outbound Order→Catalog call.
const rpcTimeout = 3 * time.Second

// CatalogClient is the subset of catalogpb.CatalogClient PlaceOrder depends
// on. It is an interface so tests can substitute a fake without dialing a
// real connection.
type CatalogClient interface {
	LookupStock(ctx context.Context, in *catalogpb.LookupStockRequest, opts ...grpc.CallOption) (*catalogpb.LookupStockResponse, error)
	UpdateStock(ctx context.Context, in *catalogpb.UpdateStockRequest, opts ...grpc.CallOption) (*catalogpb.UpdateStockResponse, error)
}

// lookupStock calls Catalog.LookupStock with a bounded deadline.
func lookupStock(ctx context.Context, c CatalogClient, name string) (*catalogpb.LookupStockResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	return c.LookupStock(ctx, &catalogpb.LookupStockRequest{Name: name})
}

// updateStock calls Catalog.UpdateStock with a bounded deadline.
func updateStock(ctx context.Context, c CatalogClient, name string, quantityChange int64) (*catalogpb.UpdateStockResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	return c.UpdateStock(ctx, &catalogpb.UpdateStockRequest{Name: name, QuantityChange: quantityChange})
}

