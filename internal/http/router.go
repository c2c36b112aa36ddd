package httpserver

import (
	"log"
	"net/http"

	"github.com/iago/briefcase/internal/http/handlers"
	"github.com/iago/briefcase/internal/http/middleware"
)

type RouterDependencies struct {
	API         *handlers.API
	Logger      *log.Logger
	AuthToken   string
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", deps.API.Health)
	mux.HandleFunc("GET /api/health", deps.API.Health)
	mux.HandleFunc("POST /api/dossier", deps.API.CreateDossier)
	mux.HandleFunc("GET /api/dossier/{job_id}", deps.API.GetDossier)
	mux.HandleFunc("POST /api/dossier/{job_id}/export-notion", deps.API.ExportDossier)

	handler := http.Handler(mux)
	handler = middleware.Auth(deps.AuthToken)(handler)
	if deps.RateLimiter != nil {
		handler = deps.RateLimiter.Middleware(handler)
	}
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
