// Package service implements the core relay forwarding logic.
package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"cors-relay-go/internal/client"
	"cors-relay-go/internal/model"
)

// ErrMalformedBody is returned when a body-bearing request declares a JSON
// content type but the body is not valid JSON.
var ErrMalformedBody = errors.New("request body is not valid JSON")

// jsonBodyMethods are the methods that carry a JSON body to the target.
// Any other method sends no body, even if the inbound request had one.
var jsonBodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// emptyJSONBody is sent when a body-bearing method has no parseable JSON body.
var emptyJSONBody = []byte("{}")

// RelayService handles the forwarding logic for relay requests.
type RelayService struct {
	client *client.TargetClient
	logger *slog.Logger
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.TargetClient, logger *slog.Logger) *RelayService {
	return &RelayService{
		client: c,
		logger: logger.With("component", "relay_service"),
	}
}

// Forward sends a RelayRequest to its target URL and returns the response.
// The caller is responsible for closing the response body.
//
// The target URL is used verbatim. Headers are copied minus Host; for
// POST/PUT/PATCH the inbound JSON body is re-serialized and sent with
// Content-Type forced to application/json.
func (s *RelayService) Forward(rr *model.RelayRequest) (*model.RelayResponse, error) {
	header := forwardHeaders(rr.Header)

	var body io.Reader
	if jsonBodyMethods[strings.ToUpper(rr.Method)] {
		b, err := normalizeJSONBody(rr.Header.Get("Content-Type"), rr.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		header.Set("Content-Type", "application/json")
		header.Del("Content-Length") // recomputed by the transport for the rewritten body
	}

	s.logger.Debug("forwarding request",
		"method", rr.Method,
		"target", rr.TargetURL,
	)

	resp, err := s.client.DoStream(rr.Ctx, rr.Method, rr.TargetURL, header, body)
	if err != nil {
		return nil, fmt.Errorf("forward to target: %w", err)
	}

	return resp, nil
}

// forwardHeaders copies every inbound header except Host, preserving
// duplicate values. Host is hop-specific: the transport derives it from
// the target URL.
func forwardHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if http.CanonicalHeaderKey(key) == "Host" {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}
	return dst
}

// normalizeJSONBody returns the JSON text to send to the target.
// A declared JSON content type with a well-formed body yields the body
// re-serialized compactly (key order and values preserved); a malformed
// JSON body yields ErrMalformedBody. Anything else (no body, non-JSON
// content type) serializes to "{}".
func normalizeJSONBody(contentType string, r io.Reader) ([]byte, error) {
	if r == nil || !isJSONContentType(contentType) {
		return emptyJSONBody, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return emptyJSONBody, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return buf.Bytes(), nil
}

// isJSONContentType reports whether the media type is application/json or a
// +json suffix type, ignoring parameters like charset.
func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
