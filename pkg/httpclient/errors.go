package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Saugat913/femite-sub000/pkg/errors"
)

// errorEnvelope is the httputil error body returned by sibling services.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetJSON fetches url and decodes a 200 body into out. Any other status is
// translated by ParseResponseError.
func (c *Client) GetJSON(ctx context.Context, url, service string, out any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	if resp.StatusCode != http.StatusOK {
		return ParseResponseError(resp, service)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

// ParseResponseError consumes and closes a non-2xx response. Structured
// bodies become AppErrors keeping the downstream code; 404, 400 and 429 map
// onto the local sentinels. Server errors stay plain errors so that they are
// never reported to our own clients as their fault.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, string(body))
	}

	code, msg := env.Error.Code, env.Error.Message
	switch status := resp.StatusCode; {
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", service, status, code, msg)
	case status == http.StatusNotFound:
		return apperrors.NotFound(service, msg)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(service + ": " + msg)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited()
	default:
		return &apperrors.AppError{Code: code, Message: service + ": " + msg, Status: status}
	}
}
