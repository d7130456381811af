package frontend

import (
	"context"
	"time"

	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
)

// catalogTimeout bounds every outbound Frontend→Catalog call.
const catalogTimeout = 3 * time.Second

func lookupStock(ctx context.Context, c catalogpb.CatalogClient, name string) (*catalogpb.LookupStockResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()
	return c.LookupStock(ctx, &catalogpb.LookupStockRequest{Name: name})
}
