package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.svc.GetStats(r.Context()))
}
