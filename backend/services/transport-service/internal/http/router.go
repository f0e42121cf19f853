package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes aggregates handlers for HTTP server.
type Routes struct {
	List           http.HandlerFunc
	Load           http.HandlerFunc
	Probe          http.HandlerFunc
	Statistics     http.HandlerFunc
	TransportTypes http.HandlerFunc
	Runs           http.HandlerFunc
	Events         http.HandlerFunc
	Login          http.HandlerFunc
	Health         http.HandlerFunc

	// LoadGuard protects ingestion triggers; nil leaves them open.
	LoadGuard func(http.Handler) http.Handler
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()

	if routes.List != nil {
		mux.Handle("/transporte", method(http.MethodGet, routes.List))
	}
	if routes.Load != nil {
		var load http.Handler = routes.Load
		if routes.LoadGuard != nil {
			load = routes.LoadGuard(load)
		}
		mux.Handle("/transporte/cargar", method(http.MethodGet, load.ServeHTTP))
	}
	if routes.Probe != nil {
		mux.Handle("/transporte/probar-api", method(http.MethodGet, routes.Probe))
	}
	if routes.Statistics != nil {
		mux.Handle("/transporte/estadisticas", method(http.MethodGet, routes.Statistics))
	}
	if routes.TransportTypes != nil {
		mux.Handle("/transporte/tipos-transporte", method(http.MethodGet, routes.TransportTypes))
	}
	if routes.Runs != nil {
		mux.Handle("/transporte/ingestas", method(http.MethodGet, routes.Runs))
	}
	if routes.Events != nil {
		mux.Handle("/transporte/ws", method(http.MethodGet, routes.Events))
	}
	if routes.Login != nil {
		mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected && !(expected == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
