package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "folio/pkg/domain-errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain error codes onto HTTP statuses. Unknown errors
// become opaque 500s so internals never leak.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := statusFor(code)
	msg := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		msg = ""
	}
	writeJSON(w, status, errorResponse{Error: string(code), Message: msg})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized, dErrors.CodeBlocked:
		return http.StatusForbidden
	case dErrors.CodeInvalidTarget, dErrors.CodeInvalidName, dErrors.CodeEmptyName,
		dErrors.CodeInvalidTerm, dErrors.CodeInvalidDiscount, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeAlreadyReserved, dErrors.CodeNotReserved, dErrors.CodeInsufficientBalance:
		return http.StatusConflict
	case dErrors.CodeInsufficientPayment:
		return http.StatusPaymentRequired
	case dErrors.CodeTransferFailed:
		return http.StatusBadGateway
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body")
	}
	return nil
}
