package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// handleRunPipeline handles POST /v1/pipeline. The run happens inside the
// request and the full result is returned.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Run(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, res)
}
