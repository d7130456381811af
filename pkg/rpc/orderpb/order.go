// Package orderpb holds the message and service types for the Order replica
// RPC surface described by proto/order.proto. As with catalogpb, these are
// hand-written structs serialized by pkg/rpc/jsoncodec rather than generated
// protobuf bindings.
package orderpb

import (
	"context"

	"google.golang.org/grpc"
)

// OrderRecord is one entry in a replica's append-only log.
type OrderRecord struct {
	TransactionID int64  `json:"transaction_id"`
	StockName     string `json:"stock_name"`
	OrderType     string `json:"order_type"` // "buy" or "sell"
	Quantity      int64  `json:"quantity"`
}

type PlaceOrderRequest struct {
	StockName string `json:"stock_name"`
	OrderType string `json:"order_type"`
	Quantity  int64  `json:"quantity"`
}

type PlaceOrderResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id"`
}

type LookUpOrderRequest struct {
	TransactionID int64 `json:"transaction_id"`
}

type LookUpOrderResponse struct {
	Exists        bool   `json:"exists"`
	TransactionID int64  `json:"transaction_id"`
	StockName     string `json:"stock_name"`
	OrderType     string `json:"order_type"`
	Quantity      int64  `json:"quantity"`
	Message       string `json:"message,omitempty"`
}

type LatestIDRequest struct{}

type LatestIDResponse struct {
	Success       bool  `json:"success"`
	TransactionID int64 `json:"transaction_id"`
}

type LookUpOrdersByIDRequest struct {
	TransactionID int64 `json:"transaction_id"`
}

type LookUpOrdersByIDResponse struct {
	Exists bool          `json:"exists"`
	Data   []OrderRecord `json:"data"`
}

type SyncOrderRequest struct {
	TransactionID int64  `json:"transaction_id"`
	StockName     string `json:"stock_name"`
	OrderType     string `json:"order_type"`
	Quantity      int64  `json:"quantity"`
}

type SyncOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BulkUpsertRequest struct {
	Data []OrderRecord `json:"data"`
}

type BulkUpsertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Success bool `json:"success"`
}

// OrderServer is implemented by an order replica.
type OrderServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error)
	LookUpOrder(context.Context, *LookUpOrderRequest) (*LookUpOrderResponse, error)
	LatestID(context.Context, *LatestIDRequest) (*LatestIDResponse, error)
	LookUpOrdersByID(context.Context, *LookUpOrdersByIDRequest) (*LookUpOrdersByIDResponse, error)
	SyncOrder(context.Context, *SyncOrderRequest) (*SyncOrderResponse, error)
	BulkUpsert(context.Context, *BulkUpsertRequest) (*BulkUpsertResponse, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// OrderClient is implemented by generated and hand-written order clients.
type OrderClient interface {
	PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error)
	LookUpOrder(ctx context.Context, in *LookUpOrderRequest, opts ...grpc.CallOption) (*LookUpOrderResponse, error)
	LatestID(ctx context.Context, in *LatestIDRequest, opts ...grpc.CallOption) (*LatestIDResponse, error)
	LookUpOrdersByID(ctx context.Context, in *LookUpOrdersByIDRequest, opts ...grpc.CallOption) (*LookUpOrdersByIDResponse, error)
	SyncOrder(ctx context.Context, in *SyncOrderRequest, opts ...grpc.CallOption) (*SyncOrderResponse, error)
	BulkUpsert(ctx context.Context, in *BulkUpsertRequest, opts ...grpc.CallOption) (*BulkUpsertResponse, error)
	HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

type orderClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderClient wraps an existing connection as an OrderClient.
func NewOrderClient(cc grpc.ClientConnInterface) OrderClient {
	return &orderClient{cc}
}

func (c *orderClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/PlaceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) LookUpOrder(ctx context.Context, in *LookUpOrderRequest, opts ...grpc.CallOption) (*LookUpOrderResponse, error) {
	out := new(LookUpOrderResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/LookUpOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) LatestID(ctx context.Context, in *LatestIDRequest, opts ...grpc.CallOption) (*LatestIDResponse, error) {
	out := new(LatestIDResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/LatestId", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) LookUpOrdersByID(ctx context.Context, in *LookUpOrdersByIDRequest, opts ...grpc.CallOption) (*LookUpOrdersByIDResponse, error) {
	out := new(LookUpOrdersByIDResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/LookUpOrdersById", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) SyncOrder(ctx context.Context, in *SyncOrderRequest, opts ...grpc.CallOption) (*SyncOrderResponse, error) {
	out := new(SyncOrderResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/SyncOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) BulkUpsert(ctx context.Context, in *BulkUpsertRequest, opts ...grpc.CallOption) (*BulkUpsertResponse, error) {
	out := new(BulkUpsertResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/BulkUpsert", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderClient) HealthCheck(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	if err := c.cc.Invoke(ctx, "/stockmesh.order.Order/HealthCheck", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterOrderServer registers srv with s under the Order service descriptor.
func RegisterOrderServer(s grpc.ServiceRegistrar, srv OrderServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

func orderPlaceOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/PlaceOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).PlaceOrder(ctx, req.(*PlaceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderLookUpOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LookUpOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).LookUpOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/LookUpOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).LookUpOrder(ctx, req.(*LookUpOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderLatestIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LatestIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).LatestID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/LatestId"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).LatestID(ctx, req.(*LatestIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderLookUpOrdersByIDHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LookUpOrdersByIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).LookUpOrdersByID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/LookUpOrdersById"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).LookUpOrdersByID(ctx, req.(*LookUpOrdersByIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderSyncOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SyncOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).SyncOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/SyncOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).SyncOrder(ctx, req.(*SyncOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderBulkUpsertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BulkUpsertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).BulkUpsert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/BulkUpsert"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).BulkUpsert(ctx, req.(*BulkUpsertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderHealthCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/stockmesh.order.Order/HealthCheck"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).HealthCheck(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: "stockmesh.order.Order",
	HandlerType: (*OrderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: orderPlaceOrderHandler},
		{MethodName: "LookUpOrder", Handler: orderLookUpOrderHandler},
		{MethodName: "LatestId", Handler: orderLatestIDHandler},
		{MethodName: "LookUpOrdersById", Handler: orderLookUpOrdersByIDHandler},
		{MethodName: "SyncOrder", Handler: orderSyncOrderHandler},
		{MethodName: "BulkUpsert", Handler: orderBulkUpsertHandler},
		{MethodName: "HealthCheck", Handler: orderHealthCheckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "order.proto",
}
