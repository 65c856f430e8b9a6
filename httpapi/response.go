package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/MrEthical07/authcore"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	MessageVI string `json:"messageVi"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// WriteError renders err as the error envelope. It matches
// middleware.ErrorWriter so guarded routes answer in the same shape.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	pub := authcore.Public(err)
	status := StatusFor(pub.Kind)

	if pub.Kind == authcore.KindInternal {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.CaptureException(err)
	}
	if pub.Kind == authcore.KindRateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(60))
	}

	writeJSON(w, status, envelope{
		Success: false,
		Error: &errorBody{
			Code:      string(pub.Kind),
			Message:   pub.Message,
			MessageVI: pub.MessageVI,
		},
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind authcore.Kind) int {
	switch kind {
	case authcore.KindInvalidCredentials,
		authcore.KindTokenExpired,
		authcore.KindInvalidToken,
		authcore.KindMissingToken,
		authcore.KindProviderAuthFailed:
		return http.StatusUnauthorized
	case authcore.KindAccountDisabled, authcore.KindForbidden:
		return http.StatusForbidden
	case authcore.KindAccountLocked:
		return http.StatusLocked
	case authcore.KindValidation,
		authcore.KindEmailRequired,
		authcore.KindMissingCode:
		return http.StatusBadRequest
	case authcore.KindEmailExists, authcore.KindAlreadyVerified:
		return http.StatusConflict
	case authcore.KindRateLimited:
		return http.StatusTooManyRequests
	case authcore.KindProviderNotConfigured:
		return http.StatusNotImplemented
	case authcore.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
