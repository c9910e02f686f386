package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cors-relay-go/internal/model"
	"cors-relay-go/internal/service"
)

// corsHeaderNames is the header triad forced to "*" on every relayed response.
var corsHeaderNames = []string{
	echo.HeaderAccessControlAllowOrigin,
	echo.HeaderAccessControlAllowHeaders,
	echo.HeaderAccessControlAllowMethods,
}

// corsHeaderSet holds the triad in canonical form for case-insensitive matching.
var corsHeaderSet = map[string]bool{
	http.CanonicalHeaderKey(echo.HeaderAccessControlAllowOrigin):  true,
	http.CanonicalHeaderKey(echo.HeaderAccessControlAllowHeaders): true,
	http.CanonicalHeaderKey(echo.HeaderAccessControlAllowMethods): true,
}

// RelayHandler forwards requests to the URL named by the `url` query
// parameter and streams the response back under wildcard CORS headers.
type RelayHandler struct {
	service *service.RelayService
	logger  *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		service: svc,
		logger:  logger.With("component", "relay_handler"),
	}
}

// Handle relays one request. Four terminal states: 400 when `url` is
// absent, 204 for preflight, pass-through of the target's status and body
// on success, 500 when the outbound call itself fails.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	target := c.QueryParam("url")
	if target == "" {
		return c.String(http.StatusBadRequest, "Missing url query parameter")
	}

	// Preflight is answered locally; the target is never contacted.
	if req.Method == http.MethodOptions {
		setCORSHeaders(c.Response().Header())
		return c.NoContent(http.StatusNoContent)
	}

	rr := &model.RelayRequest{
		Ctx:       req.Context(),
		Method:    req.Method,
		TargetURL: target,
		Header:    req.Header,
		Body:      req.Body,
	}

	resp, err := h.service.Forward(rr)
	if err != nil {
		return h.mapError(c, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Wildcard CORS goes on first; the target's own CORS headers are
	// skipped below so they cannot override it.
	respHeader := c.Response().Header()
	setCORSHeaders(respHeader)
	for key, vals := range resp.Header {
		if corsHeaderSet[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range vals {
			respHeader.Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the target body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the HTTP status
	// code has already been sent, so the client receives a truncated
	// response with the original status. This is an inherent trade-off of
	// streaming proxies — we log the error for observability.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"target", target,
		)
	}

	return nil
}

// mapError turns a Forward failure into the client-visible response.
// The CORS triad is absent on these paths: only relayed and preflight
// responses carry it.
func (h *RelayHandler) mapError(c echo.Context, target string, err error) error {
	if errors.Is(err, service.ErrMalformedBody) {
		return c.String(http.StatusBadRequest, err.Error())
	}

	h.logger.Error("relay error",
		"err", err,
		"target", target,
	)

	return c.String(http.StatusInternalServerError, "Proxy error: "+errorMessage(err))
}

// errorMessage extracts a usable description from a dispatch failure,
// falling back to a fixed string when the failure carries none.
func errorMessage(err error) string {
	if err == nil {
		return "Unknown proxy error"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Unknown proxy error"
}

// setCORSHeaders forces the wildcard triad, replacing any prior values.
func setCORSHeaders(h http.Header) {
	for _, name := range corsHeaderNames {
		h.Set(name, "*")
	}
}
