package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pointscope/internal/model"
)

// Reader is the read side of the points ledger exposed over HTTP.
type Reader interface {
	BalanceOf(ctx context.Context, account common.Address, pool model.PoolID) (*big.Int, error)
	TotalByPool(ctx context.Context, pool model.PoolID) (*big.Int, error)
}

// Server exposes the public, unauthenticated query API.
type Server struct {
	reader Reader
	logger *zap.Logger
	router http.Handler
}

// New builds the server and its routes.
func New(reader Reader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{reader: reader, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/pools/{poolID}/points", s.handlePoolPoints)
		v1.Get("/accounts/{address}/pools/{poolID}/points", s.handleAccountPoints)
		v1.Get("/tokens/{poolID}/uri", s.handleTokenURI)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type pointsResponse struct {
	PoolID  string `json:"pool_id"`
	Account string `json:"account,omitempty"`
	Points  string `json:"points"`
}

type tokenURIResponse struct {
	PoolID string `json:"pool_id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePoolPoints(w http.ResponseWriter, r *http.Request) {
	poolID, ok := parsePoolID(w, r)
	if !ok {
		return
	}

	total, err := s.reader.TotalByPool(r.Context(), poolID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query pool total", err)
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{
		PoolID: poolID.Hex(),
		Points: total.String(),
	})
}

func (s *Server) handleAccountPoints(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !common.IsHexAddress(address) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account address"})
		return
	}
	poolID, ok := parsePoolID(w, r)
	if !ok {
		return
	}

	balance, err := s.reader.BalanceOf(r.Context(), common.HexToAddress(address), poolID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "query balance", err)
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{
		PoolID:  poolID.Hex(),
		Account: common.HexToAddress(address).Hex(),
		Points:  balance.String(),
	})
}

// handleTokenURI serves the fixed reward-token descriptor. The metadata is
// identical for every points token identifier.
func (s *Server) handleTokenURI(w http.ResponseWriter, r *http.Request) {
	poolID, ok := parsePoolID(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, tokenURIResponse{
		PoolID: poolID.Hex(),
		Name:   model.PointsTokenName,
		Symbol: model.PointsTokenSymbol,
		URI:    model.PointsTokenURI,
	})
}

func parsePoolID(w http.ResponseWriter, r *http.Request) (model.PoolID, bool) {
	raw := chi.URLParam(r, "poolID")
	if len(raw) != 2+2*common.HashLength || (raw[:2] != "0x" && raw[:2] != "0X") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pool id"})
		return model.PoolID{}, false
	}
	decoded := common.FromHex(raw)
	if len(decoded) != common.HashLength {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pool id"})
		return model.PoolID{}, false
	}
	return common.BytesToHash(decoded), true
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	s.logger.Warn(msg, zap.Error(err))
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
