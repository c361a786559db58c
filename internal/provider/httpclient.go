package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// newHTTPClient builds the shared HTTP client. The response header timeout is
// generous because LLM backends routinely think for tens of seconds before
// the first byte.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// transportErrorFromResponse converts a non-2xx provider response into a
// TransportError, pulling the provider's own message out of the error
// envelope when one is present.
func transportErrorFromResponse(resp *http.Response, family string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &TransportError{
			Family:  family,
			Status:  resp.StatusCode,
			Message: "failed to read error response body",
			Cause:   err,
		}
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil {
		message = envelope.Error.Message
		if message == "" {
			message = envelope.Message
		}
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return &TransportError{Family: family, Status: resp.StatusCode, Message: message}
}
