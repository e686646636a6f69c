package rest

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
	"github.com/ewilliams-labs/vibelens/internal/logging"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// multipartOverhead leaves room for boundaries and the text fields.
	multipartOverhead = 1 << 20
)

type listRecommendationsResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// CreateRecommendation handles POST /recommendations.
// The body is multipart/form-data with an "image" file, or an "image_url"
// naming an image uploaded earlier, plus one or more "genres" values.
func (h *Handler) CreateRecommendation(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data", errCodeInvalidInput)
		return
	}

	// 1. Decode the multipart body within the upload limit
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if isTooLarge(err) {
			writeErrorWithCode(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage(), errCodeTooLarge)
			return
		}
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid multipart body", errCodeInvalidInput)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := domain.RecommendationRequest{
		User:   userFromContext(r.Context()),
		Genres: formGenres(r.MultipartForm.Value["genres"]),
	}

	// 2. Resolve the image
	if ref := strings.TrimSpace(r.FormValue("image_url")); ref != "" {
		req.ImageRef = ref
	} else {
		upload, err := h.readUpload(r)
		if err != nil {
			if isTooLarge(err) {
				writeErrorWithCode(w, http.StatusRequestEntityTooLarge, h.tooLargeMessage(), errCodeTooLarge)
				return
			}
			h.writeFailure(w, r, err)
			return
		}
		req.Image = upload
	}

	// 3. Run the pipeline
	rec, err := h.svc.Run(r.Context(), req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	// 4. Return the Response
	w.Header().Set("Location", "/recommendations/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// ListRecommendations handles GET /recommendations?limit=N.
func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not available")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeErrorWithCode(w, http.StatusBadRequest, "limit must be a positive integer", errCodeInvalidInput)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	user := userFromContext(r.Context())
	recs, err := h.history.ListRecommendations(r.Context(), user.ID, limit)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, listRecommendationsResponse{Recommendations: recs})
}

// GetRecommendation handles GET /recommendations/{id}.
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not available")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "recommendation id is required", errCodeInvalidInput)
		return
	}

	user := userFromContext(r.Context())
	rec, err := h.history.GetRecommendation(r.Context(), user.ID, id)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) readUpload(r *http.Request) (domain.ImageUpload, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		return domain.ImageUpload{}, errors.Join(domain.ErrInvalidInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return domain.ImageUpload{}, errors.Join(domain.ErrInvalidInput, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return domain.ImageUpload{}, &http.MaxBytesError{Limit: h.maxUploadBytes}
	}

	return domain.ImageUpload{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// writeFailure logs err with its kind and stage and writes the mapped response.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)

	log := logging.FromContext(r.Context(), h.logger)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("kind", domain.KindName(err)).
		Str("stage", domain.StageOf(err).String()).
		Int("status", status).
		Msg("request failed")

	writeErrorWithCode(w, status, message, code)
}

// formGenres accepts repeated values and comma-separated lists.
func formGenres(values []string) []string {
	var out []string
	for _, v := range values {
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}

func (h *Handler) tooLargeMessage() string {
	if h.maxUploadBytes%(1<<20) == 0 {
		return fmt.Sprintf("Image must be %d MB or smaller.", h.maxUploadBytes>>20)
	}
	return fmt.Sprintf("Image must be %d bytes or smaller.", h.maxUploadBytes)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}
