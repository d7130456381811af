// Package catalog implements the single authoritative store of stock
// records: price, available quantity, and cumulative traded volume.
package catalog

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

// Stock is one catalog record.
type Stock struct {
	Name     string
	Price    float64
	Quantity int64
	Volume   int64
}

// Store is the catalog's in-memory map of stocks, backed by a CSV file. A
// single sync.RWMutex enforces the multi-reader/single-writer discipline:
// any number of lookups may run concurrently, but an update excludes
// readers and other writers for its duration. Go's RWMutex gives a pending
// Lock() priority over new RLock() callers, so a steady stream of lookups
// cannot starve a pending update.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger zerolog.Logger

	stocks map[string]*Stock

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStore loads or creates the catalog CSV at path and returns a ready Store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		logger: log.WithComponent("catalog"),
		stocks: make(map[string]*Stock),
		stopCh: make(chan struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	metrics.CatalogStocksTotal.Set(float64(len(s.stocks)))
	return s, nil
}

func (s *Store) load() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("catalog: create data dir: %w", err)
	}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return s.writeHeaderOnly()
	}
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows[1:] { // skip header
		if len(row) != 4 {
			continue
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return fmt.Errorf("catalog: parse price for %s: %w", row[0], err)
		}
		qty, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return fmt.Errorf("catalog: parse quantity for %s: %w", row[0], err)
		}
		vol, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return fmt.Errorf("catalog: parse volume for %s: %w", row[0], err)
		}
		s.stocks[row[0]] = &Stock{Name: row[0], Price: price, Quantity: qty, Volume: vol}
	}
	return nil
}

func (s *Store) writeHeaderOnly() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("catalog: create %s: %w", s.path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	return w.Write([]string{"name", "price", "quantity", "volume"})
}

// LookupStock returns the named stock, if present. Concurrent lookups are
// permitted; this only takes a read lock.
func (s *Store) LookupStock(name string) (Stock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[name]
	if !ok {
		metrics.CatalogLookupsTotal.WithLabelValues("miss").Inc()
		return Stock{}, false
	}
	metrics.CatalogLookupsTotal.WithLabelValues("hit").Inc()
	return *st, true
}

// UpdateStockResult is the outcome of UpdateStock.
type UpdateStockResult struct {
	Success     bool
	Message     string
	NewQuantity int64
}

// UpdateStock conditionally applies a quantity change. quantityChange is
// negative for a buy and positive for a sell. The write lock is held across
// the store's own flush to disk, so a caller observing success is
// guaranteed the change is durable before the call returns.
func (s *Store) UpdateStock(name string, quantityChange int64) (UpdateStockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stocks[name]
	if !ok {
		metrics.CatalogUpdatesTotal.WithLabelValues("not_found").Inc()
		return UpdateStockResult{Success: false, Message: "Stock not found"}, nil
	}

	if st.Quantity+quantityChange < 0 {
		metrics.CatalogUpdatesTotal.WithLabelValues("insufficient").Inc()
		return UpdateStockResult{Success: false, Message: "Insufficient stock"}, nil
	}

	prevQuantity, prevVolume := st.Quantity, st.Volume
	st.Quantity += quantityChange
	st.Volume += abs64(quantityChange)

	if err := s.flushLocked(); err != nil {
		st.Quantity, st.Volume = prevQuantity, prevVolume
		metrics.CatalogUpdatesTotal.WithLabelValues("flush_error").Inc()
		return UpdateStockResult{}, fmt.Errorf("catalog: flush after update: %w", err)
	}

	metrics.CatalogUpdatesTotal.WithLabelValues("success").Inc()
	return UpdateStockResult{Success: true, Message: "Stock updated successfully", NewQuantity: st.Quantity}, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// flushLocked rewrites the CSV in full. Callers holding either the read or
// write lock may call it.
func (s *Store) flushLocked() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CatalogFlushDuration)

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "price", "quantity", "volume"}); err != nil {
		f.Close()
		return err
	}
	for _, st := range s.stocks {
		row := []string{
			st.Name,
			strconv.FormatFloat(st.Price, 'f', -1, 64),
			strconv.FormatInt(st.Quantity, 10),
			strconv.FormatInt(st.Volume, 10),
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

// StartPeriodicFlush runs a background flush every interval as a durability
// floor on top of the flush-on-write behavior in UpdateStock. It only takes
// a read lock, so it never blocks a pending update for longer than one
// flush.
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
					s.logger.Error().Err(err).Msg("periodic catalog flush failed")
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
