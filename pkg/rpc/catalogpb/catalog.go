// Package catalogpb holds the message and service types for the Catalog
// RPC surface described by proto/catalog.proto. There is no protoc toolchain
// wired into this module, so the types below are hand-written structs and
// the service registration mirrors what protoc-gen-go-grpc would otherwise
// generate, wired onto a JSON wire codec (see pkg/rpc/jsoncodec) instead of
// protobuf.
package catalogpb

import (
	"context"

	"google.golang.org/grpc"
)

// Stock is a single catalog record.
type Stock struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

// LookupStockRequest looks up a stock by name.
type LookupStockRequest struct {
	Name string `json:"name"`
}

// LookupStockResponse carries the matched stock record, if any.
type LookupStockResponse struct {
	Exists bool  `json:"exists"`
	Stock  Stock `json:"stock"`
}

// UpdateStockRequest adjusts a stock's available quantity. QuantityChange is
// negative for a buy (shares leave the pool) and positive for a sell
// (shares return to the pool).
type UpdateStockRequest struct {
	Name           string `json:"name"`
	QuantityChange int64  `json:"quantity_change"`
}

// UpdateStockResponse reports the outcome of an UpdateStock call.
type UpdateStockResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	NewQuantity int64  `json:"new_quantity"`
}

// CatalogServer is implemented by the catalog service.
type CatalogServer interface {
	LookupStock(context.Context, *LookupStockRequest) (*LookupStockResponse, error)
	UpdateStock(context.Context, *UpdateStockRequest) (*UpdateStockResponse, error)
}

// CatalogClient is implemented by generated and hand-written catalog clients.
type CatalogClient interface {
	LookupStock(ctx context.Context, in *LookupStockRequest, opts ...grpc.CallOption) (*LookupStockResponse, error)
	UpdateStock(ctx context.Context, in *UpdateStockRequest, opts ...grpc.CallOption) (*UpdateStockResponse, error)
}

type catalogClient struct {
	cc grpc.ClientConnInterface
}

// NewCatalogClient wraps an existing connection as a CatalogClient.
func NewCatalogClient(cc grpc.ClientConnInterface) CatalogClient {
	return &catalogClient{cc}
}

func (c *catalogClient) LookupStock(ctx context.Context, in *LookupStockRequest, opts ...grpc.CallOption) (*LookupStockResponse, error) {
	out := new(LookupStockResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.catalog.Catalog/LookupStock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogClient) UpdateStock(ctx context.Context, in *UpdateStockRequest, opts ...grpc.CallOption) (*UpdateStockResponse, error) {
	out := new(UpdateStockResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.catalog.Catalog/UpdateStock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterCatalogServer registers srv with s under the Catalog service descriptor.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func catalogLookupStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LookupStockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).LookupStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.catalog.Catalog/LookupStock"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).LookupStock(ctx, req.(*LookupStockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func catalogUpdateStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateStockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).UpdateStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.catalog.Catalog/UpdateStock"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).UpdateStock(ctx, req.(*UpdateStockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: "stockmesh.catalog.Catalog",
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LookupStock", Handler: catalogLookupStockHandler},
		{MethodName: "UpdateStock", Handler: catalogUpdateStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog.proto",
}
