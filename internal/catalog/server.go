package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
)

// Server adapts a Store to the catalogpb.CatalogServer RPC surface.
type Server struct {
	store  *Store
	logger zerolog.Logger
}

// NewServer wraps store as a gRPC catalog service.
func NewServer(store *Store) *Server {
	return &Server{store: store, logger: log.WithComponent("catalog")}
}

var _ catalogpb.CatalogServer = (*Server)(nil)

func (s *Server) LookupStock(_ context.Context, req *catalogpb.LookupStockRequest) (*catalogpb.LookupStockResponse, error) {
	st, ok := s.store.LookupStock(req.Name)
	if !ok {
		return &catalogpb.LookupStockResponse{Exists: false}, nil
	}
	return &catalogpb.LookupStockResponse{
		Exists: true,
		Stock: catalogpb.Stock{
			Name:     st.Name,
			Quantity: st.Quantity,
			Price:    st.Price,
		},
	}, nil
}

func (s *Server) UpdateStock(_ context.Context, req *catalogpb.UpdateStockRequest) (*catalogpb.UpdateStockResponse, error) {
	result, err := s.store.UpdateStock(req.Name, req.QuantityChange)
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("update stock failed")
		return nil, err
	}
	return &catalogpb.UpdateStockResponse{
		Success:     result.Success,
		Message:     result.Message,
		NewQuantity: result.NewQuantity,
	}, nil
}
