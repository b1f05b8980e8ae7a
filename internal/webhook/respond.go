package webhook

import (
	"net/http"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

// Response bodies. Clients and tests match on these strings.
const (
	BodyOK                  = "OK"
	BodyMissingConfig       = "Missing environment variables"
	BodyInvalidPayload      = "Invalid payload"
	BodyPayloadTooLarge     = "Payload too large"
	BodyTimestampTooOld     = "Timestamp too old"
	BodyInvalidSignature    = "Invalid signature"
	BodyFetchFailed         = "Failed to fetch initiatives"
	BodyDeliveryFailed      = "Failed to post to Slack"
	BodyInternalServerError = "Internal Server Error"
)

// responseFor maps an error to the status and body sent to the caller.
func responseFor(err error) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.KindConfiguration:
		return http.StatusInternalServerError, BodyMissingConfig
	case apperr.KindValidation:
		return http.StatusBadRequest, BodyInvalidPayload
	case apperr.KindStale:
		return http.StatusBadRequest, BodyTimestampTooOld
	case apperr.KindAuthentication:
		return http.StatusUnauthorized, BodyInvalidSignature
	case apperr.KindUpstream:
		return http.StatusInternalServerError, BodyFetchFailed
	case apperr.KindDelivery:
		return http.StatusInternalServerError, BodyDeliveryFailed
	default:
		return http.StatusInternalServerError, BodyInternalServerError
	}
}

// respondText sends a plain-text response.
func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
