package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/logger"
	"github.com/fjod/ixplor/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	ProductItemID string `json:"productItemId,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// base carries what every handler shares.
type base struct {
	log      logrus.FieldLogger
	timeout  time.Duration
	validate *validator.Validate
	// unauthorized runs when the upstream rejects the session's token.
	unauthorized func(ctx context.Context)
}

func (b base) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), b.timeout)
}

// decode reads a JSON body into dst and validates it.
func (b base) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return b.check(w, dst)
}

func (b base) check(w http.ResponseWriter, dst interface{}) bool {
	if err := b.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// fail maps service and upstream errors to HTTP responses.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusConflict
		if verr.Kind == service.KindValidation {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, ErrorResponse{Error: verr.Message, Code: string(verr.Kind), ProductItemID: verr.ProductItemID})
		return
	}

	if errors.Is(err, api.ErrNoToken) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return
	}
	if errors.Is(err, api.ErrUnauthorized) {
		if b.unauthorized != nil {
			b.unauthorized(r.Context())
		}
		respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired, sign in again")
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		respondError(w, http.StatusGatewayTimeout, "timeout", "upstream timed out")
		return
	}
	if api.IsNetwork(err) {
		logger.WithContext(r.Context(), b.log).WithError(err).Warn("upstream unavailable")
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "marketplace is unreachable, try again")
		return
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		status, code := upstreamStatus(apiErr.StatusCode)
		respondError(w, status, code, apiErr.Message)
		return
	}

	logger.WithContext(r.Context(), b.log).WithError(err).Error("request failed")
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func upstreamStatus(status int) (int, string) {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return status, "invalid_argument"
	case status == http.StatusForbidden:
		return status, "permission_denied"
	case status == http.StatusNotFound:
		return status, "not_found"
	case status == http.StatusConflict:
		return status, "already_exists"
	case status == http.StatusTooManyRequests:
		return status, "rate_limit_exceeded"
	case status >= http.StatusInternalServerError:
		return http.StatusBadGateway, "upstream_error"
	default:
		return status, "request_failed"
	}
}
