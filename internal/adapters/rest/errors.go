package rest

import (
	"errors"
	"net/http"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

const (
	errCodeInvalidGenres     = "INVALID_GENRE_SELECTION"
	errCodeInvalidInput      = "INVALID_INPUT"
	errCodeUnauthenticated   = "UNAUTHENTICATED"
	errCodeExtraction        = "EXTRACTION_FAILED"
	errCodeExtractionTimeout = "EXTRACTION_TIMEOUT"
	errCodeNoCandidates      = "NO_CANDIDATES"
	errCodeProvider          = "PROVIDER_UNAVAILABLE"
	errCodeProviderAuth      = "PROVIDER_AUTH"
	errCodeCanceled          = "CANCELED"
	errCodeNotFound          = "NOT_FOUND"
	errCodeTooLarge          = "IMAGE_TOO_LARGE"
	errCodeInternal          = "INTERNAL"
)

const msgTryAgain = "We couldn't find a song for this image right now. Please try again."

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; ErrProviderAuth must precede ErrProvider.
var errorMappings = []errorMapping{
	{domain.ErrInvalidGenreSelection, http.StatusBadRequest, errCodeInvalidGenres, "Select at least one supported genre."},
	{domain.ErrInvalidInput, http.StatusBadRequest, errCodeInvalidInput, "Upload a JPEG, PNG or WebP image."},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, errCodeUnauthenticated, "Sign in to get a recommendation."},
	{domain.ErrExtractionTimeout, http.StatusGatewayTimeout, errCodeExtractionTimeout, msgTryAgain},
	{domain.ErrExtraction, http.StatusUnprocessableEntity, errCodeExtraction, msgTryAgain},
	{domain.ErrNoCandidates, http.StatusNotFound, errCodeNoCandidates, msgTryAgain},
	{domain.ErrProviderAuth, http.StatusBadGateway, errCodeProviderAuth, msgTryAgain},
	{domain.ErrProvider, http.StatusBadGateway, errCodeProvider, msgTryAgain},
	{domain.ErrCanceled, http.StatusRequestTimeout, errCodeCanceled, msgTryAgain},
	{domain.ErrNotFound, http.StatusNotFound, errCodeNotFound, "Recommendation not found."},
}

// mapError returns the HTTP status, machine code and user-facing message for err.
func mapError(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, errCodeInternal, msgTryAgain
}
