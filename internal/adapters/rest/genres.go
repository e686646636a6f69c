package rest

import "net/http"

type genresResponse struct {
	Genres []string `json:"genres"`
}

// ListGenres handles GET /genres with the genre identifiers users may pick.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres := h.svc.Genres()
	if genres == nil {
		genres = []string{}
	}
	writeJSON(w, http.StatusOK, genresResponse{Genres: genres})
}
