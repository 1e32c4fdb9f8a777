package server

import (
	"net/http"

	"github.com/rs/cors"
)

// Handler returns the API with its middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("POST /api/parse", s.HandleParse)
	mux.HandleFunc("POST /api/generate", s.HandleGenerate)

	if s.library != nil {
		mux.HandleFunc("GET /api/templates", s.HandleTemplates)
		mux.HandleFunc("POST /api/templates", s.HandleTemplates)
		mux.HandleFunc("GET /api/templates/{id}", s.HandleTemplate)
		mux.HandleFunc("DELETE /api/templates/{id}", s.HandleTemplate)
		mux.HandleFunc("POST /api/templates/{id}/generate", s.HandleTemplateGenerate)
	} else {
		mux.HandleFunc("/api/templates/", s.handleNoLibrary)
		mux.HandleFunc("/api/templates", s.handleNoLibrary)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(s.withRequestID(s.withAccessLog(s.withRateLimit(mux))))
}

func (s *Server) handleNoLibrary(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusServiceUnavailable, "template library is not configured")
}
