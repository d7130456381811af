package frontend

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/status"

	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/metrics"
	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
	"github.com/stockmesh/stockmesh/pkg/rpcerr"
)

// Server is the HTTP gateway: it serves stock lookups out of the cache
// (falling back to Catalog on a miss) and routes order placement/lookup
// through the Coordinator to whichever replica is currently leader.
type Server struct {
	cache   *Cache
	catalog catalogpb.CatalogClient
	coord   *Coordinator
	mux     *http.ServeMux
}

// NewServer wires the HTTP surface described in the external interfaces
// section: GET /stocks/{name}, POST /orders, GET /orders/{tid}.
func NewServer(cache *Cache, catalog catalogpb.CatalogClient, coord *Coordinator) *Server {
	s := &Server{
		cache:   cache,
		catalog: catalog,
		coord:   coord,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stocks/{name}", s.withAccessLog("/stocks/{name}", s.handleLookupStock))
	mux.HandleFunc("POST /orders", s.withAccessLog("/orders", s.handlePlaceOrder))
	mux.HandleFunc("GET /orders/{tid}", s.withAccessLog("/orders/{tid}", s.handleLookupOrder))
	s.mux = mux
	return s
}

// Handler returns the HTTP handler to bind.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withAccessLog tags every request with a request id, logs it, and records
// HTTP metrics by route and outcome status.
func (s *Server) withAccessLog(route string, next func(http.ResponseWriter, *http.Request, zerolog.Logger)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		logger := log.WithRequestID(requestID)
		timer := metrics.NewTimer()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r, logger)

		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		timer.ObserveDurationVec(metrics.HTTPRequestDuration, route)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", timer.Duration()).
			Msg("request handled")
	}
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: status, Message: message}})
}

// rpcMessage strips the grpc status wrapper down to its message, so HTTP
// clients see the underlying text rather than "rpc error: code = ...".
func rpcMessage(err error) string {
	return status.Convert(err).Message()
}

type stockResponse struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

func (s *Server) handleLookupStock(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) {
	name := r.PathValue("name")

	if view, ok := s.cache.Get(name); ok {
		writeData(w, http.StatusOK, stockResponse{Name: view.Name, Price: view.Price, Quantity: view.Quantity})
		return
	}

	resp, err := lookupStock(r.Context(), s.catalog, name)
	if err != nil {
		logger.Error().Err(err).Str("name", name).Msg("catalog lookup failed")
		writeError(w, rpcerr.HTTPStatus(rpcerr.CodeOf(err)), rpcMessage(err))
		return
	}
	if !resp.Exists {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}

	view := StockView{Name: resp.Stock.Name, Price: resp.Stock.Price, Quantity: resp.Stock.Quantity}
	s.cache.Set(view)
	writeData(w, http.StatusOK, stockResponse{Name: view.Name, Price: view.Price, Quantity: view.Quantity})
}

type placeOrderBody struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int64  `json:"quantity"`
}

type transactionResponse struct {
	TransactionID int64 `json:"transaction_id"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) {
	var body placeOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "Stock name is required")
		return
	}
	if body.Type != "buy" && body.Type != "sell" {
		writeError(w, http.StatusBadRequest, `Order type must be "buy" or "sell"`)
		return
	}
	if body.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be a positive integer")
		return
	}

	resp, err := s.coord.PlaceOrder(r.Context(), &orderpb.PlaceOrderRequest{
		StockName: body.Name,
		OrderType: body.Type,
		Quantity:  body.Quantity,
	})
	if err != nil {
		logger.Error().Err(err).Str("name", body.Name).Msg("place order failed")
		writeError(w, rpcerr.HTTPStatus(rpcerr.CodeOf(err)), rpcMessage(err))
		return
	}
	if !resp.Success {
		writeError(w, http.StatusBadRequest, resp.Message)
		return
	}

	// Invalidate before responding: no reader may observe a stale cached
	// value for this stock after the client sees this order succeed.
	s.cache.Invalidate(body.Name)

	s.coord.SyncFollowers(resp.TransactionID, body.Name, body.Type, body.Quantity)

	writeData(w, http.StatusOK, transactionResponse{TransactionID: resp.TransactionID})
}

type orderResponse struct {
	TransactionID int64  `json:"transaction_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Quantity      int64  `json:"quantity"`
}

func (s *Server) handleLookupOrder(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) {
	tid, err := strconv.ParseInt(r.PathValue("tid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Order ID must be an integer")
		return
	}

	resp, err := s.coord.LookUpOrder(r.Context(), &orderpb.LookUpOrderRequest{TransactionID: tid})
	if err != nil {
		logger.Error().Err(err).Int64("transaction_id", tid).Msg("order lookup failed")
		writeError(w, rpcerr.HTTPStatus(rpcerr.CodeOf(err)), rpcMessage(err))
		return
	}
	if !resp.Exists {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	writeData(w, http.StatusOK, orderResponse{
		TransactionID: resp.TransactionID,
		Name:          resp.StockName,
		Type:          resp.OrderType,
		Quantity:      resp.Quantity,
	})
}
