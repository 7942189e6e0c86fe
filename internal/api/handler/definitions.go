package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/metric"
)

// Definition is the wire form of one registry entry.
type Definition struct {
	Key         metric.Key       `json:"key"`
	TypeID      int              `json:"type_id,omitempty"`
	DisplayName string           `json:"display_name"`
	Kind        metric.Kind      `json:"kind"`
	Unit        string           `json:"unit"`
	Missing     metric.Missing   `json:"missing_semantics"`
	Per90       metric.Per90Rule `json:"per90_rule"`
	Depth       metric.Depth     `json:"depth,omitempty"`
	Derived     bool             `json:"derived"`
	Inputs      []metric.Key     `json:"inputs,omitempty"`
}

// DefinitionsResponse lists registry entries in catalogue order.
type DefinitionsResponse struct {
	Definitions []Definition `json:"definitions"`
	Count       int          `json:"count"`
}

// GetMetricDefinitions returns the metric registry.
// @Summary Get metric definitions
// @Description Returns every registered metric with its provider type ID, missing-data semantics and per-90 rule. Supports ETag revalidation.
// @Tags metrics
// @Produce json
// @Param depth query string false "Raw metrics available at this depth" Enums(L1, L2)
// @Success 200 {object} DefinitionsResponse
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /metrics/definitions [get]
func (h *Handler) GetMetricDefinitions(w http.ResponseWriter, r *http.Request) {
	depth := metric.Depth(r.URL.Query().Get("depth"))
	if depth != "" && depth != metric.L1 && depth != metric.L2 {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_DEPTH",
			"depth must be L1 or L2", fmt.Sprintf("got depth=%q", depth))
		return
	}

	cacheKey := "metric_definitions:" + string(depth)
	ttl := cache.TTLDefinitions

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	defs := metric.All()
	if depth != "" {
		defs = metric.ByDepth(depth)
	}
	resp := DefinitionsResponse{Definitions: make([]Definition, 0, len(defs))}
	for _, d := range defs {
		resp.Definitions = append(resp.Definitions, Definition{
			Key:         d.Key,
			TypeID:      d.TypeID,
			DisplayName: d.DisplayName,
			Kind:        d.Kind,
			Unit:        d.Unit,
			Missing:     d.Missing,
			Per90:       d.Per90,
			Depth:       d.Depth,
			Derived:     d.Derived,
			Inputs:      d.Inputs,
		})
	}
	resp.Count = len(resp.Definitions)

	raw, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode definitions")
		return
	}
	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.WriteJSON(w, raw, etag, ttl, false)
}
