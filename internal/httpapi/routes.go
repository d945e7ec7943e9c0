package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// SetupRoutes configures the observability router served while a load run is
// in flight.
func SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Serve starts the observability server in the background. Failures are
// logged but never interrupt the load.
func Serve(port string) {
	go func() {
		server := &http.Server{
			Addr:    ":" + port,
			Handler: SetupRoutes(),
		}

		log.Info().
			Str("port", port).
			Msg("Starting metrics server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().
				Err(err).
				Msg("Metrics server failed")
		}
	}()
}
