package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/extract"
	"github.com/albapepper/footiq/internal/router"
)

const maxBodyBytes = 1 << 20

// RouteResponse is the router verdict. Exactly one of Decision and Abort is
// set.
type RouteResponse struct {
	TraceID  string           `json:"trace_id"`
	Decision *router.Decision `json:"decision,omitempty"`
	Abort    *router.Abort    `json:"abort,omitempty"`
}

// AnalyzeResponse wraps a report with the request's trace id.
type AnalyzeResponse struct {
	TraceID string `json:"trace_id"`
	*engine.Report
}

// PostRoute runs the intent router without fetching anything.
// @Summary Route a query
// @Description Classifies the query into Surface, Deep or Compare, applies max_depth and data_mode constraints and returns the allowed tools with their bindings. Router aborts are returned in the abort field with status 200.
// @Tags router
// @Accept json
// @Produce json
// @Param request body engine.Request true "Query, history and constraints"
// @Success 200 {object} RouteResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /route [post]
func (h *Handler) PostRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	resp := RouteResponse{TraceID: traceID(r)}
	d, err := h.engine.Route(req)
	var abort *router.Abort
	switch {
	case err == nil:
		resp.Decision = &d
	case errors.As(err, &abort):
		resp.Abort = abort
	default:
		h.writeEngineError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

// PostAnalyze runs the full pipeline for one query.
// @Summary Analyze a query
// @Description Routes the query, resolves the player, fetches the window's games (and lineups at L2), then returns aggregated, derived and baseline-compared metrics with diagnostics.
// @Tags analyze
// @Accept json
// @Produce json
// @Param request body engine.Request true "Analysis request"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /analyze [post]
func (h *Handler) PostAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	rep, err := h.engine.Analyze(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, AnalyzeResponse{TraceID: traceID(r), Report: rep})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (engine.Request, bool) {
	var req engine.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteErrorBody(w, http.StatusBadRequest, respond.ErrorBody{
			Code:    "INVALID_BODY",
			Message: "Request body must be a JSON analysis request",
			Detail:  err.Error(),
			TraceID: traceID(r),
		})
		return req, false
	}
	return req, true
}

// abortStatus maps router aborts onto HTTP status codes.
var abortStatus = map[router.AbortCode]int{
	router.InsufficientContext: http.StatusUnprocessableEntity,
	router.PlayerNotFound:      http.StatusNotFound,
	router.AmbiguousEntity:     http.StatusConflict,
	router.InsufficientData:    http.StatusUnprocessableEntity,
	router.UpstreamDown:        http.StatusServiceUnavailable,
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	tid := traceID(r)

	var (
		abort  *router.Abort
		reqErr *engine.RequestError
		unreg  *extract.UnregisteredMetricError
		rule   *aggregate.RuleError
	)
	switch {
	case errors.As(err, &abort):
		status, ok := abortStatus[abort.Code]
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		body := respond.ErrorBody{Code: string(abort.Code), Message: abort.Message, TraceID: tid}
		if len(abort.Options) > 0 {
			body.Options = abort.Options
		}
		respond.WriteErrorBody(w, status, body)
	case errors.As(err, &reqErr):
		respond.WriteErrorBody(w, http.StatusBadRequest, respond.ErrorBody{
			Code: "INVALID_REQUEST", Message: reqErr.Message, Detail: reqErr.Field, TraceID: tid,
		})
	case errors.Is(err, context.DeadlineExceeded):
		respond.WriteErrorBody(w, http.StatusGatewayTimeout, respond.ErrorBody{
			Code: "TIMEOUT", Message: "Analysis timed out", TraceID: tid,
		})
	case errors.Is(err, context.Canceled):
		h.logger.Info("Request canceled", "trace_id", tid, "path", r.URL.Path)
	case errors.As(err, &unreg), errors.As(err, &rule):
		h.logger.Error("Metric contract violation", "trace_id", tid, "error", err)
		respond.WriteErrorBody(w, http.StatusInternalServerError, respond.ErrorBody{
			Code: "INTERNAL_ERROR", Message: "Internal metric error", TraceID: tid,
		})
	default:
		h.logger.Error("Analyze failed", "trace_id", tid, "error", err)
		respond.WriteErrorBody(w, http.StatusInternalServerError, respond.ErrorBody{
			Code: "INTERNAL_ERROR", Message: "Internal server error", TraceID: tid,
		})
	}
}
