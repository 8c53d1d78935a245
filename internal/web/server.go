package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vportnov/balancetrack/internal/domain"
	"github.com/vportnov/balancetrack/internal/monitoring"
	"github.com/vportnov/balancetrack/internal/services/history"
)

// ProviderName is the single supported exchange integration.
const ProviderName = "binance"

// defaultLookback is the history window served when no start is given.
const defaultLookback = 4 * time.Hour

type snapshotReader interface {
	Range(user string, start, end int64) ([]domain.Snapshot, error)
}

// Server exposes the balance history endpoint plus metrics and health.
type Server struct {
	Addr   string
	Store  snapshotReader
	Logger *zap.Logger

	// now is swappable for tests of the default range bounds.
	now func() time.Time
}

// NewServer creates the HTTP server reading history from store.
func NewServer(addr string, store snapshotReader, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Store: store, Logger: logger, now: time.Now}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /balance/history/{provider}", s.handleHistory)
	mux.Handle("GET /metrics", monitoring.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Start runs the HTTP server and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeMessage(w, http.StatusBadRequest, "Invalid User")
		return
	}

	provider := r.PathValue("provider")
	if provider != ProviderName {
		writeMessage(w, http.StatusBadRequest, "Provider "+provider+" balance history not implemented")
		return
	}

	now := s.now()
	start, err := queryInt(r, "start", now.Add(-defaultLookback).Unix())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid start parameter")
		return
	}
	end, err := queryInt(r, "end", now.Unix())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid end parameter")
		return
	}

	snapshots, err := s.Store.Range(user, start, end)
	if err != nil {
		s.Logger.Error("history query failed", zap.String("user", user), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, history.Format(snapshots))
}

func queryInt(r *http.Request, name string, fallback int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
