package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mybaseweek/weekstats/internal/domain"
	"github.com/mybaseweek/weekstats/internal/downstream"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/middleware"
)

// StatsService computes the weekly stats behind every page.
type StatsService interface {
	WeeklyStats(ctx context.Context, userID string) (*domain.WeeklyStats, error)
	WindowDays() int
}

var (
	errInvalidParameter = errors.New("invalid_parameter")

	validate = validator.New()
)

// userID validates a fid taken from a query or path parameter.
func userID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", domain.ErrMissingParameter
	}
	if err := validate.Var(id, "max=64,printascii"); err != nil {
		return "", errInvalidParameter
	}
	return id, nil
}

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int) {
	resp := domain.APIError{
		Error:     code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusClientClosedRequest is nginx's convention for a caller that hung up
// before the response was ready.
const statusClientClosedRequest = 499

type errorMapping struct {
	status  int
	code    string
	message string
}

// mapError translates the error taxonomy to an HTTP status and public code.
func mapError(err error) errorMapping {
	switch {
	case errors.Is(err, domain.ErrMissingParameter):
		return errorMapping{http.StatusBadRequest, "missing_parameter", "userId is required"}
	case errors.Is(err, errInvalidParameter):
		return errorMapping{http.StatusBadRequest, "invalid_parameter", "userId is invalid"}
	case errors.Is(err, domain.ErrInvalidWindow):
		return errorMapping{http.StatusInternalServerError, "internal_error", "stats window is misconfigured"}
	case errors.Is(err, domain.ErrMalformedPage):
		return errorMapping{http.StatusBadGateway, "upstream_malformed", "feed provider returned an unreadable page"}
	case errors.Is(err, domain.ErrFeedTooLarge):
		return errorMapping{http.StatusBadGateway, "feed_too_large", "feed is too large to summarize"}
	case errors.Is(err, context.Canceled):
		return errorMapping{statusClientClosedRequest, "client_closed_request", "request was cancelled"}
	case errors.Is(err, downstream.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, "upstream_timeout", "feed provider timed out"}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return errorMapping{http.StatusBadGateway, "upstream_unavailable", "feed provider is unavailable"}
	default:
		return errorMapping{http.StatusInternalServerError, "internal_error", "failed to compute stats"}
	}
}

func handleStatsError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapError(err)
	if m.status >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Str("code", m.code).Msg("stats_request_failed")
	}
	sendError(w, r, m.code, m.message, m.status)
}
