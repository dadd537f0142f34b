package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/ganymede/pkg/compactor"
	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/server/types"
	"mercator-hq/ganymede/pkg/upstream"
)

// WriteJSONResponse writes a JSON response with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteErrorResponse writes an error envelope with the status code its
// error type maps to.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) {
	WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// WriteSessionError maps a pipeline admission failure to the wire and
// writes it. Quota rejections additionally carry the rate limit
// headers so well-behaved clients can back off without parsing the
// body.
func WriteSessionError(w http.ResponseWriter, err error) {
	var quotaErr *quota.QuotaExceededError
	if errors.As(err, &quotaErr) {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(quotaErr.Limit))
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(quotaErr.RetryAfter)))
	}

	var rateErr *upstream.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rateErr.RetryAfter)))
	}

	WriteErrorResponse(w, ErrorResponseFor(err))
}

// ErrorResponseFor converts a domain error into the wire envelope. The
// fallback is a generic 500 that leaks nothing about the failure.
func ErrorResponseFor(err error) *types.ErrorResponse {
	var validationErr *pipeline.ValidationError
	if errors.As(err, &validationErr) {
		return types.NewInvalidRequestError(validationErr.Message, validationErr.Field, types.CodeInvalidValue)
	}

	var tooLargeErr *compactor.InputTooLargeError
	if errors.As(err, &tooLargeErr) {
		return types.NewInputTooLargeError(tooLargeErr.Error())
	}

	var quotaErr *quota.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return types.NewQuotaExceededError(quotaErr.Error())
	}

	var authErr *upstream.AuthError
	if errors.As(err, &authErr) {
		// The gateway rejected our credentials. That is a deployment
		// problem, not the caller's, so it surfaces as a 502.
		return types.NewErrorResponse(
			fmt.Sprintf("Upstream gateway rejected credentials for provider %q", authErr.Provider),
			types.ErrorTypeUpstreamError, "", types.CodeUpstreamAuth)
	}

	var rateErr *upstream.RateLimitError
	if errors.As(err, &rateErr) {
		return types.NewServiceUnavailableError(
			fmt.Sprintf("Upstream gateway is rate limiting provider %q, try again later", rateErr.Provider))
	}

	var upstreamErr *upstream.UpstreamError
	if errors.As(err, &upstreamErr) {
		return types.NewUpstreamError(upstreamErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTimeoutError("Request deadline elapsed before the session finished")
	}

	return types.NewServerError("An internal error occurred. Please try again later.")
}

// retryAfterSeconds renders a duration as whole seconds for the
// Retry-After header, rounding up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
