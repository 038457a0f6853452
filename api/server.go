// Package api is the thin HTTP layer: request validation, JSON rendering
// and health reporting. All domain logic lives behind the rates service.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/countervalue/market-cache/marketcap"
	"github.com/countervalue/market-cache/rates"
	"github.com/countervalue/market-cache/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const shutdownTimeout = 5 * time.Second

type Server struct {
	port      string
	rates     *rates.Service
	marketCap *marketcap.Service
	store     store.Store
	server    *http.Server
}

func New(port string, ratesService *rates.Service, marketCapService *marketcap.Service, st store.Store) *Server {
	return &Server{
		port:      port,
		rates:     ratesService,
		marketCap: marketCapService,
		store:     st,
	}
}

// Start implements core.Interface
func (s *Server) Start(ctx context.Context) error {
	router := mux.NewRouter()

	router.HandleFunc("/rates/{granularity}", s.handleRates).Methods("POST")
	router.HandleFunc("/exchanges/{from}/{to}", s.handleExchanges).Methods("GET")
	router.HandleFunc("/tickers", s.handleTickers).Methods("GET")

	router.HandleFunc("/_health", s.handleHealth).Methods("GET")
	router.HandleFunc("/_health/noop", s.handleHealthNoop).Methods("GET")
	router.HandleFunc("/_health/detail", s.handleHealthDetail).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	router.Use(corsMiddleware)

	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: router,
	}

	log.Printf("Server starting at http://localhost:%s", s.port)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop implements core.Interface
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	if s.server == nil {
		return nil
	}
	return s.server.Handler
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
