// Package orderreplica implements one replica of the Order service: an
// append-only, per-replica log of executed trades, replicated from the
// elected leader by the frontend's coordinator.
package orderreplica

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/metrics"
)

// OrderType is restricted at the boundary to Buy or Sell.
type OrderType string

const (
	Buy  OrderType = "buy"
	Sell OrderType = "sell"
)

// Record is one append-only log entry.
type Record struct {
	TransactionID int64
	StockName     string
	OrderType     OrderType
	Quantity      int64
}

// Store holds one replica's order log. A single sync.RWMutex serializes
// PlaceOrder's log-append step, SyncOrder, and BulkUpsert against each
// other and against readers; the RWMutex's writer-priority behavior keeps a
// burst of lookups from starving a pending write.
type Store struct {
	mu        sync.RWMutex
	replicaID int
	path      string
	logger    zerolog.Logger

	nextID int64
	log    []Record
	byID   map[int64]Record

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStore loads or creates the per-replica order CSV at path.
func NewStore(replicaID int, path string) (*Store, error) {
	s := &Store{
		replicaID: replicaID,
		path:      path,
		logger:    log.WithReplicaID(replicaID),
		byID:      make(map[int64]Record),
		stopCh:    make(chan struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	metrics.OrderLogSize.WithLabelValues(strconv.Itoa(replicaID)).Set(float64(len(s.log)))
	metrics.OrderNextID.WithLabelValues(strconv.Itoa(replicaID)).Set(float64(s.nextID))
	return s, nil
}

func (s *Store) load() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("orderreplica: create data dir: %w", err)
	}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return s.writeHeaderOnly()
	}
	if err != nil {
		return fmt.Errorf("orderreplica: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("orderreplica: read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil
	}

	var maxID int64 = -1
	for _, row := range rows[1:] {
		if len(row) != 4 {
			continue
		}
		tid, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return fmt.Errorf("orderreplica: parse transaction_id: %w", err)
		}
		qty, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return fmt.Errorf("orderreplica: parse quantity: %w", err)
		}
		rec := Record{TransactionID: tid, StockName: row[1], OrderType: OrderType(row[2]), Quantity: qty}
		s.log = append(s.log, rec)
		s.byID[tid] = rec
		if tid > maxID {
			maxID = tid
		}
	}
	if maxID >= 0 {
		s.nextID = maxID + 1
	}
	return nil
}

func (s *Store) writeHeaderOnly() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("orderreplica: create %s: %w", s.path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	return w.Write([]string{"transaction_id", "stock_name", "order_type", "quantity"})
}

// flushLocked rewrites the CSV in full. Callers must hold mu (read or write).
func (s *Store) flushLocked() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.OrderFlushDuration, strconv.Itoa(s.replicaID))

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"transaction_id", "stock_name", "order_type", "quantity"}); err != nil {
		f.Close()
		return err
	}
	for _, rec := range s.log {
		row := []string{
			strconv.FormatInt(rec.TransactionID, 10),
			rec.StockName,
			string(rec.OrderType),
			strconv.FormatInt(rec.Quantity, 10),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// LookUpOrder returns the record with the given id, if present. Read under
// the shared lock.
func (s *Store) LookUpOrder(id int64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// LatestID returns next_id, the id that would be assigned next.
func (s *Store) LatestID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// LookUpOrdersAfter returns every record with id strictly greater than
// after, in ascending id order. The log is append-only and ids are assigned
// strictly increasing on the leader, so the stored slice is already sorted.
func (s *Store) LookUpOrdersAfter(after int64) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.log {
		if rec.TransactionID > after {
			out = append(out, rec)
		}
	}
	return out
}

// AppendAsLeader assigns the next transaction id, appends the record, and
// flushes to disk, atomically with respect to any other AppendAsLeader,
// SyncOrder, or BulkUpsert call. Callers must have already completed any
// Catalog RPCs before calling this — the lock must never be held across a
// network call.
func (s *Store) AppendAsLeader(stockName string, orderType OrderType, quantity int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	rec := Record{TransactionID: id, StockName: stockName, OrderType: orderType, Quantity: quantity}
	s.log = append(s.log, rec)
	s.byID[id] = rec
	s.nextID++

	if err := s.flushLocked(); err != nil {
		return 0, fmt.Errorf("orderreplica: flush after place: %w", err)
	}

	metrics.OrderLogSize.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(len(s.log)))
	metrics.OrderNextID.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(s.nextID))
	return id, nil
}

// SyncOrder idempotently upserts a single record replicated from the
// leader. If the id already exists it is a no-op. It must not call Catalog.
func (s *Store) SyncOrder(rec Record) (success bool, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.TransactionID]; exists {
		return true, "already in sync"
	}

	s.log = append(s.log, rec)
	s.byID[rec.TransactionID] = rec
	if rec.TransactionID >= s.nextID {
		s.nextID = rec.TransactionID + 1
	}

	if err := s.flushLocked(); err != nil {
		s.logger.Error().Err(err).Msg("flush after sync failed")
		return false, "flush failed"
	}

	metrics.OrderLogSize.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(len(s.log)))
	metrics.OrderNextID.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(s.nextID))
	return true, "synced"
}

// BulkUpsert idempotently applies records in the order given, skipping ids
// that already exist, then advances next_id past the last id processed.
func (s *Store) BulkUpsert(records []Record) (success bool, message string) {
	if len(records) == 0 {
		return true, "no records"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if _, exists := s.byID[rec.TransactionID]; exists {
			continue
		}
		s.log = append(s.log, rec)
		s.byID[rec.TransactionID] = rec
	}

	last := records[len(records)-1].TransactionID
	if last >= s.nextID {
		s.nextID = last + 1
	}

	if err := s.flushLocked(); err != nil {
		s.logger.Error().Err(err).Msg("flush after bulk upsert failed")
		return false, "flush failed"
	}

	metrics.OrderLogSize.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(len(s.log)))
	metrics.OrderNextID.WithLabelValues(strconv.Itoa(s.replicaID)).Set(float64(s.nextID))
	return true, "synced"
}

// StartPeriodicFlush runs a background flush every interval as a durability
// floor, holding only a read lock.
func (s *Store) StartPeriodicFlush(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.RLock()
				if err := s.flushLocked(); err != nil {
					s.logger.Error().Err(err).Msg("periodic order flush failed")
				}
				s.mu.RUnlock()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the periodic flush loop and waits for it to exit.
func (s *Store) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
