package frontend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/stockmesh/stockmesh/pkg/health"
	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/metrics"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
	"github.com/stockmesh/stockmesh/pkg/rpcerr"
)

// healthTimeout bounds every health-check probe the coordinator issues.
const healthTimeout = 2 * time.Second

// orderTimeout bounds every PlaceOrder/LookUpOrder/catch-up call.
const orderTimeout = 3 * time.Second

// ReplicaConfig names one Order replica the coordinator should track.
type ReplicaConfig struct {
	ID      int
	Address string
}

type replica struct {
	id       int
	client   orderpb.OrderClient
	status   *health.Status
	statusMu sync.Mutex
}

// coordinatorSnapshot is an immutable view of the cluster's current leader
// and follower set. The coordinator publishes a new snapshot after every
// election or health-driven status change; HTTP handlers only ever read a
// snapshot, never the replica list directly, so a request that reaches the
// leader on its first try never blocks on the coordinator's own locking; only
// the retry path in PlaceOrder/LookUpOrder runs an election itself.
type coordinatorSnapshot struct {
	leaderID  int // -1 if no replica is currently reachable
	followers []int
}

// Coordinator is the single process-wide owner of Order cluster state: the
// elected leader, the current follower set, and the health-sweep loop that
// keeps both up to date. It replaces the naive design where each inbound
// HTTP request elected its own leader and ran its own fault-check thread
// (every request would otherwise pay election latency and the replicas
// would see one health check per request instead of one per sweep).
//
// There is no quorum: the "leader" is simply the highest-numbered replica
// that answers a health check, exactly as specified. A split-brain is
// possible if replicas can reach clients but not each other; this system
// does not defend against it.
type Coordinator struct {
	replicas []*replica

	snap   atomic.Pointer[coordinatorSnapshot]
	swapMu sync.Mutex

	healthConfig health.Config
	sweepEvery   time.Duration

	logger zerolog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCoordinator dials every configured replica and returns a Coordinator
// with no leader elected yet; call Start to run the initial election and
// begin the health-sweep loop.
func NewCoordinator(configs []ReplicaConfig, dial func(address string) (grpc.ClientConnInterface, error)) (*Coordinator, error) {
	c := &Coordinator{
		healthConfig: health.Config{Interval: 3 * time.Second, Timeout: healthTimeout, Retries: 1},
		sweepEvery:   3 * time.Second,
		logger:       log.WithComponent("coordinator"),
		stopCh:       make(chan struct{}),
	}

	for _, cfg := range configs {
		cc, err := dial(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("coordinator: dial replica %d at %s: %w", cfg.ID, cfg.Address, err)
		}
		c.replicas = append(c.replicas, &replica{
			id:     cfg.ID,
			client: orderpb.NewOrderClient(cc),
			status: health.NewStatus(),
		})
	}

	c.snap.Store(&coordinatorSnapshot{leaderID: -1})
	return c, nil
}

// Start runs the initial election synchronously and then launches the
// background health-sweep loop.
func (c *Coordinator) Start(ctx context.Context) {
	c.elect(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(context.Background())
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts the health-sweep loop and waits for it to exit.
func (c *Coordinator) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (r *replica) healthy() bool {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	return r.status.Healthy
}

func (c *Coordinator) checkHealth(ctx context.Context, r *replica) bool {
	checker := health.NewGRPCChecker(fmt.Sprintf("replica-%d", r.id), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		resp, err := r.client.HealthCheck(ctx, &orderpb.HealthCheckRequest{})
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("replica %d reported unhealthy", r.id)
		}
		return nil
	})
	result := checker.Check(ctx)

	r.statusMu.Lock()
	wasHealthy := r.status.Healthy
	r.status.Update(result, c.healthConfig)
	isHealthy := r.status.Healthy
	r.statusMu.Unlock()

	if isHealthy != wasHealthy {
		to := "unhealthy"
		if isHealthy {
			to = "healthy"
		}
		metrics.ReplicaHealthTransitionsTotal.WithLabelValues(fmt.Sprint(r.id), to).Inc()
		c.logger.Info().Int("replica_id", r.id).Str("to", to).Msg("replica health transition")
	}
	return isHealthy
}

// elect sorts replicas by id descending and makes the first healthy one the
// leader, per the spec's highest-id election rule. It publishes a fresh
// snapshot regardless of outcome, including leaderID -1 if every replica is
// down. swapMu is taken only for the final swap, never across the health
// checks.
func (c *Coordinator) elect(ctx context.Context) {
	ordered := make([]*replica, len(c.replicas))
	copy(ordered, c.replicas)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id > ordered[j].id })

	leaderID := -1
	var followers []int
	for _, r := range ordered {
		if c.checkHealth(ctx, r) {
			if leaderID == -1 {
				leaderID = r.id
			} else {
				followers = append(followers, r.id)
			}
		}
	}

	metrics.LeaderElectionsTotal.Inc()
	metrics.CurrentLeaderReplicaID.Set(float64(leaderID))
	if leaderID != -1 {
		c.logger.Info().Int("leader_id", leaderID).Msg("elected leader")
	} else {
		c.logger.Warn().Msg("no healthy replica, cannot elect a leader")
	}

	c.swapMu.Lock()
	c.snap.Store(&coordinatorSnapshot{leaderID: leaderID, followers: followers})
	c.swapMu.Unlock()
}

// sweep checks every replica's health, re-elects if the current leader has
// gone unhealthy, and catches up any replica that just came back.
func (c *Coordinator) sweep(ctx context.Context) {
	before := c.snap.Load()

	revived := []int{}
	leaderDown := false
	for _, r := range c.replicas {
		wasHealthy := r.healthy()
		isHealthy := c.checkHealth(ctx, r)
		if !wasHealthy && isHealthy {
			revived = append(revived, r.id)
		}
		if r.id == before.leaderID && !isHealthy {
			leaderDown = true
		}
	}

	if leaderDown {
		c.elect(ctx)
	} else {
		c.republish()
	}

	for _, id := range revived {
		c.catchUp(ctx, id)
	}
}

// republish recomputes the snapshot from current per-replica status without
// running a fresh round of health checks (sweep already did that).
func (c *Coordinator) republish() {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	cur := c.snap.Load()
	var followers []int
	for _, r := range c.replicas {
		if r.id == cur.leaderID {
			continue
		}
		if r.healthy() {
			followers = append(followers, r.id)
		}
	}
	c.snap.Store(&coordinatorSnapshot{leaderID: cur.leaderID, followers: followers})
}

// catchUp brings a revived replica's log up to date with the current
// leader: it asks the replica for its own next_id, pulls every leader
// record from that id onward, and bulk-upserts them onto the replica.
func (c *Coordinator) catchUp(ctx context.Context, replicaID int) {
	leader := c.leaderReplica()
	follower := c.replicaByID(replicaID)
	if leader == nil || follower == nil || leader.id == replicaID {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, orderTimeout)
	defer cancel()

	latest, err := follower.client.LatestID(ctx, &orderpb.LatestIDRequest{})
	if err != nil || !latest.Success {
		metrics.CatchUpTotal.WithLabelValues(fmt.Sprint(replicaID), "failed").Inc()
		c.logger.Warn().Int("replica_id", replicaID).Err(err).Msg("catch-up: could not read follower next_id")
		return
	}

	after := latest.TransactionID - 1
	missing, err := leader.client.LookUpOrdersByID(ctx, &orderpb.LookUpOrdersByIDRequest{TransactionID: after})
	if err != nil {
		metrics.CatchUpTotal.WithLabelValues(fmt.Sprint(replicaID), "failed").Inc()
		c.logger.Warn().Int("replica_id", replicaID).Err(err).Msg("catch-up: could not read leader log")
		return
	}
	if !missing.Exists || len(missing.Data) == 0 {
		metrics.CatchUpTotal.WithLabelValues(fmt.Sprint(replicaID), "success").Inc()
		return
	}

	resp, err := follower.client.BulkUpsert(ctx, &orderpb.BulkUpsertRequest{Data: missing.Data})
	if err != nil || !resp.Success {
		metrics.CatchUpTotal.WithLabelValues(fmt.Sprint(replicaID), "failed").Inc()
		c.logger.Warn().Int("replica_id", replicaID).Err(err).Msg("catch-up: bulk upsert failed")
		return
	}

	metrics.CatchUpTotal.WithLabelValues(fmt.Sprint(replicaID), "success").Inc()
	c.logger.Info().Int("replica_id", replicaID).Int("records", len(missing.Data)).Msg("catch-up complete")
}

func (c *Coordinator) leaderReplica() *replica {
	snap := c.snap.Load()
	return c.replicaByID(snap.leaderID)
}

func (c *Coordinator) replicaByID(id int) *replica {
	for _, r := range c.replicas {
		if r.id == id {
			return r
		}
	}
	return nil
}

// followerReplicas returns every tracked follower in the current snapshot,
// for async post-place replication.
func (c *Coordinator) followerReplicas() []*replica {
	snap := c.snap.Load()
	replicas := make([]*replica, 0, len(snap.followers))
	for _, id := range snap.followers {
		if r := c.replicaByID(id); r != nil {
			replicas = append(replicas, r)
		}
	}
	return replicas
}

// LeaderID returns the currently elected leader's replica id, or -1.
func (c *Coordinator) LeaderID() int {
	return c.snap.Load().leaderID
}

// PlaceOrder routes to the current leader, re-electing and retrying once if
// the call fails with Unavailable or DeadlineExceeded — the only locally
// recoverable outcomes per the propagation policy. This replaces the
// original recursive retry with a bounded iterative one.
func (c *Coordinator) PlaceOrder(ctx context.Context, req *orderpb.PlaceOrderRequest) (*orderpb.PlaceOrderResponse, error) {
	for attempt := 0; attempt < 2; attempt++ {
		leader := c.leaderReplica()
		if leader == nil {
			c.elect(ctx)
			leader = c.leaderReplica()
			if leader == nil {
				return nil, rpcerr.New(rpcerr.UpstreamUnavailable, "no Order replica is reachable")
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, orderTimeout)
		resp, err := leader.client.PlaceOrder(callCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		if !rpcerr.IsRetryable(rpcerr.CodeOf(err)) {
			return nil, err
		}
		c.logger.Warn().Int("leader_id", leader.id).Err(err).Msg("leader unreachable, re-electing")
		c.elect(ctx)
	}
	return nil, rpcerr.New(rpcerr.UpstreamUnavailable, "Order leader unreachable after retry")
}

// LookUpOrder routes to the current leader with the same retry policy as
// PlaceOrder.
func (c *Coordinator) LookUpOrder(ctx context.Context, req *orderpb.LookUpOrderRequest) (*orderpb.LookUpOrderResponse, error) {
	for attempt := 0; attempt < 2; attempt++ {
		leader := c.leaderReplica()
		if leader == nil {
			c.elect(ctx)
			leader = c.leaderReplica()
			if leader == nil {
				return nil, rpcerr.New(rpcerr.UpstreamUnavailable, "no Order replica is reachable")
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, orderTimeout)
		resp, err := leader.client.LookUpOrder(callCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		if !rpcerr.IsRetryable(rpcerr.CodeOf(err)) {
			return nil, err
		}
		c.elect(ctx)
	}
	return nil, rpcerr.New(rpcerr.UpstreamUnavailable, "Order leader unreachable after retry")
}

// SyncFollowers asynchronously health-checks and replicates a just-placed
// order to every currently healthy follower. A follower that fails the
// health check at this moment is demoted (its status flips to unhealthy,
// same as a sweep would do) and skipped for this sync; the next sweep will
// catch it up if it recovers. Failures here never affect the client-visible
// outcome of the originating PlaceOrder call.
func (c *Coordinator) SyncFollowers(transactionID int64, stockName, orderType string, quantity int64) {
	for _, r := range c.followerReplicas() {
		go func(r *replica) {
			ctx, cancel := context.WithTimeout(context.Background(), orderTimeout)
			defer cancel()

			if !c.checkHealth(ctx, r) {
				c.logger.Warn().Int("replica_id", r.id).Msg("follower failed health check during sync, demoted")
				return
			}

			_, err := r.client.SyncOrder(ctx, &orderpb.SyncOrderRequest{
				TransactionID: transactionID,
				StockName:     stockName,
				OrderType:     orderType,
				Quantity:      quantity,
			})
			if err != nil {
				c.logger.Warn().Err(err).Int64("transaction_id", transactionID).Int("replica_id", r.id).Msg("follower sync failed")
			}
		}(r)
	}
}

