package frontend

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
)

// fakeReplicaBehavior drives a fakeConn's canned responses for one replica.
// failThenUnhealthy lets a test simulate a replica going down the instant
// its PlaceOrder/LookUpOrder call errors, so a retrying Coordinator
// re-elects onto a different leader.
type fakeReplicaBehavior struct {
	healthy bool

	placeOrderResp    *orderpb.PlaceOrderResponse
	placeOrderErr     error
	failThenUnhealthy bool

	lookupOrderResp *orderpb.LookUpOrderResponse
	lookupOrderErr  error

	latestIDResp         *orderpb.LatestIDResponse
	lookupOrdersByIDResp *orderpb.LookUpOrdersByIDResponse
	bulkUpsertResp       *orderpb.BulkUpsertResponse

	syncOrderCount  int32
	bulkUpsertCount int32
}

type fakeConn struct {
	b *fakeReplicaBehavior
}

func (f *fakeConn) Invoke(_ context.Context, method string, _, reply any, _ ...grpc.CallOption) error {
	switch method {
	case "/stockmesh.order.Order/HealthCheck":
		reply.(*orderpb.HealthCheckResponse).Success = f.b.healthy
		return nil
	case "/stockmesh.order.Order/PlaceOrder":
		if f.b.placeOrderErr != nil {
			err := f.b.placeOrderErr
			if f.b.failThenUnhealthy {
				f.b.healthy = false
			}
			return err
		}
		*reply.(*orderpb.PlaceOrderResponse) = *f.b.placeOrderResp
		return nil
	case "/stockmesh.order.Order/LookUpOrder":
		if f.b.lookupOrderErr != nil {
			return f.b.lookupOrderErr
		}
		*reply.(*orderpb.LookUpOrderResponse) = *f.b.lookupOrderResp
		return nil
	case "/stockmesh.order.Order/LatestId":
		*reply.(*orderpb.LatestIDResponse) = *f.b.latestIDResp
		return nil
	case "/stockmesh.order.Order/LookUpOrdersById":
		*reply.(*orderpb.LookUpOrdersByIDResponse) = *f.b.lookupOrdersByIDResp
		return nil
	case "/stockmesh.order.Order/BulkUpsert":
		atomic.AddInt32(&f.b.bulkUpsertCount, 1)
		*reply.(*orderpb.BulkUpsertResponse) = *f.b.bulkUpsertResp
		return nil
	case "/stockmesh.order.Order/SyncOrder":
		atomic.AddInt32(&f.b.syncOrderCount, 1)
		return nil
	default:
		return fmt.Errorf("fakeConn: unhandled method %s", method)
	}
}

func (f *fakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, fmt.Errorf("fakeConn: streaming not supported")
}

func newTestCoordinator(t *testing.T, behaviors map[int]*fakeReplicaBehavior) *Coordinator {
	t.Helper()

	ids := make([]int, 0, len(behaviors))
	for id := range behaviors {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	configs := make([]ReplicaConfig, 0, len(ids))
	for _, id := range ids {
		configs = append(configs, ReplicaConfig{ID: id, Address: fmt.Sprintf("replica-%d", id)})
	}

	dial := func(address string) (grpc.ClientConnInterface, error) {
		var id int
		if _, err := fmt.Sscanf(address, "replica-%d", &id); err != nil {
			return nil, err
		}
		return &fakeConn{b: behaviors[id]}, nil
	}

	c, err := NewCoordinator(configs, dial)
	require.NoError(t, err)
	c.elect(context.Background())
	return c
}

func TestElect_PicksHighestHealthyID(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true},
		2: {healthy: true},
		3: {healthy: false},
	})
	assert.Equal(t, 2, c.LeaderID())
}

func TestElect_NoHealthyReplica(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: false},
		2: {healthy: false},
	})
	assert.Equal(t, -1, c.LeaderID())
}

func TestPlaceOrder_RoutesToLeader(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true},
		2: {healthy: true, placeOrderResp: &orderpb.PlaceOrderResponse{Success: true, TransactionID: 7}},
	})

	resp, err := c.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.TransactionID)
}

func TestPlaceOrder_RetriesOntoNewLeaderWhenCurrentGoesDown(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, placeOrderResp: &orderpb.PlaceOrderResponse{Success: true, TransactionID: 3}},
		2: {
			healthy:           true,
			placeOrderErr:     status.Error(codes.Unavailable, "replica 2 down"),
			failThenUnhealthy: true,
		},
	})
	require.Equal(t, 2, c.LeaderID())

	resp, err := c.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), resp.TransactionID)
	assert.Equal(t, 1, c.LeaderID())
}

func TestPlaceOrder_NonRetryableErrorSurfacesImmediately(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, placeOrderErr: status.Error(codes.InvalidArgument, "bad order type")},
	})

	_, err := c.PlaceOrder(context.Background(), &orderpb.PlaceOrderRequest{StockName: "AAPL", OrderType: "buy", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLookUpOrder_RoutesToLeader(t *testing.T) {
	c := newTestCoordinator(t, map[int]*fakeReplicaBehavior{
		1: {healthy: true, lookupOrderResp: &orderpb.LookUpOrderResponse{Exists: true, TransactionID: 5, StockName: "AAPL"}},
	})

	resp, err := c.LookUpOrder(context.Background(), &orderpb.LookUpOrderRequest{TransactionID: 5})
	require.NoError(t, err)
	assert.True(t, resp.Exists)
	assert.Equal(t, "AAPL", resp.StockName)
}

func TestCatchUp_BulkUpsertsMissingRecordsOntoRevivedFollower(t *testing.T) {
	behaviors := map[int]*fakeReplicaBehavior{
		// id 2 is the elected leader (highest healthy id): it answers the
		// "what's missing past this point" query.
		2: {
			healthy:              true,
			lookupOrdersByIDResp: &orderpb.LookUpOrdersByIDResponse{Exists: true, Data: []orderpb.OrderRecord{{TransactionID: 2, StockName: "AAPL"}}},
		},
		// id 1 is the revived follower: it reports its own next id, then
		// accepts the bulk upsert of everything past that point.
		1: {
			healthy:        true,
			latestIDResp:   &orderpb.LatestIDResponse{Success: true, TransactionID: 1},
			bulkUpsertResp: &orderpb.BulkUpsertResponse{Success: true},
		},
	}
	c := newTestCoordinator(t, behaviors)
	require.Equal(t, 2, c.LeaderID())

	c.catchUp(context.Background(), 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&behaviors[1].bulkUpsertCount), "revived follower never received BulkUpsert")
}

func TestSyncFollowers_ReplicatesToHealthyFollower(t *testing.T) {
	behaviors := map[int]*fakeReplicaBehavior{
		2: {healthy: true},
		1: {healthy: true},
	}
	c := newTestCoordinator(t, behaviors)
	require.Equal(t, 2, c.LeaderID())

	c.SyncFollowers(9, "AAPL", "buy", 1)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&behaviors[1].syncOrderCount) == 1
	}, time.Second, time.Millisecond, "follower never received SyncOrder")
	assert.True(t, c.replicaByID(1).healthy())
}

func TestSyncFollowers_DemotesFollowerThatFailsHealthCheck(t *testing.T) {
	behaviors := map[int]*fakeReplicaBehavior{
		2: {healthy: true},
		1: {healthy: true},
	}
	c := newTestCoordinator(t, behaviors)
	require.Equal(t, 2, c.LeaderID())
	require.True(t, c.replicaByID(1).healthy())

	// Follower 1 dies between election and this placement's replication.
	behaviors[1].healthy = false

	c.SyncFollowers(9, "AAPL", "buy", 1)

	assert.Eventually(t, func() bool {
		return !c.replicaByID(1).healthy()
	}, time.Second, time.Millisecond, "follower was never demoted")
	assert.Equal(t, int32(0), atomic.LoadInt32(&behaviors[1].syncOrderCount), "a failed health check must skip SyncOrder")
}
