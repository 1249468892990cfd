package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the HTTP client timeout used when HTTP.Client is nil,
// matching the connector-transport default round-trip budget.
const DefaultTimeout = 20 * time.Second

// HTTP sends SCP03 frames to a yubihsm-connector-compatible HTTP bridge.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP builds an HTTP transport against baseURL (host:port, no scheme)
// with the default timeout.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{BaseURL: baseURL, Client: &http.Client{Timeout: DefaultTimeout}}
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// Send POSTs req to {BaseURL}/connector/api and returns the raw response
// body. A non-200 status is reported as a *TransportError rather than
// attempting to interpret the body as a protocol frame.
func (h *HTTP) Send(ctx context.Context, req []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+h.BaseURL+"/connector/api", bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	res, err := h.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, &TransportError{Detail: fmt.Sprintf("connector returned status %d", res.StatusCode)}
	}
	return body, nil
}

// Status GETs {BaseURL}/connector/status and parses its newline-delimited
// key=value body.
func (h *HTTP) Status(ctx context.Context) (*ConnectorStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+h.BaseURL+"/connector/status", nil)
	if err != nil {
		return nil, err
	}

	res, err := h.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, &TransportError{Detail: fmt.Sprintf("connector returned status %d", res.StatusCode)}
	}

	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return &ConnectorStatus{
		Status:  fields["status"],
		Serial:  fields["serial"],
		Version: fields["version"],
		Pid:     fields["pid"],
		Address: fields["address"],
		Port:    fields["port"],
	}, nil
}
