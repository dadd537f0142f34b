package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"mercator-hq/ganymede/pkg/pipeline"
	"mercator-hq/ganymede/pkg/server/types"
)

// ParseExtractionRequest reads and validates an extraction request from
// the HTTP body. maxBytes caps how much of the body is read; a body at
// or over the cap is rejected before JSON decoding so a runaway client
// cannot make the server buffer gigabytes.
func ParseExtractionRequest(r *http.Request, maxBytes int64) (*types.ExtractionRequest, *types.ErrorResponse) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return nil, types.NewInvalidRequestError(
			"Failed to read request body", "", "")
	}

	if int64(len(body)) >= maxBytes {
		return nil, types.NewInvalidRequestError(
			fmt.Sprintf("Request body exceeds the %d byte limit", maxBytes),
			"", types.CodeRequestTooLarge)
	}

	return DecodeExtractionRequest(body)
}

// DecodeExtractionRequest unmarshals and validates an extraction
// request from raw JSON. The WebSocket handler calls it directly with
// the first text message of the connection.
func DecodeExtractionRequest(data []byte) (*types.ExtractionRequest, *types.ErrorResponse) {
	var req types.ExtractionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, types.NewInvalidRequestError(
			"Invalid JSON in request body", "", types.CodeInvalidJSON)
	}

	if verr := req.Validate(); verr != nil {
		return nil, types.NewInvalidRequestError(verr.Message, verr.Param, verr.Code)
	}

	return &req, nil
}

// identityFor resolves the quota identity for a request. An explicit
// identity in the body wins; otherwise the client host stands in so
// anonymous callers still land in per-address buckets.
func identityFor(req *types.ExtractionRequest, r *http.Request) string {
	if req.Identity != "" {
		return req.Identity
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

// toPipelineRequest converts the wire request into the pipeline form.
// Prior summaries become leading items in their given order and the
// transcript, when present, is the final item.
func toPipelineRequest(req *types.ExtractionRequest, identity, requestID, transport string) *pipeline.Request {
	items := make([]pipeline.Item, 0, len(req.Summaries)+1)
	for _, s := range req.Summaries {
		items = append(items, pipeline.Item{ID: s.ID, Text: s.Text})
	}
	if req.Transcript != "" {
		items = append(items, pipeline.Item{Text: req.Transcript})
	}

	return &pipeline.Request{
		Identity:  identity,
		RequestID: requestID,
		Transport: transport,
		Items:     items,
		Context:   req.Context,
		Model:     req.Model,
	}
}
