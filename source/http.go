package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP fetches files relative to a base URL, the way the browser viewer
// pulls doc/_data from a static host.
type HTTP struct {
	base   string
	client *http.Client
}

func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{base: strings.TrimSuffix(base, "/"), client: client}
}

func (h *HTTP) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+"/"+strings.TrimPrefix(name, "/"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("Bad status code fetching %s: %d", name, resp.StatusCode)
	}
	return resp.Body, nil
}

func (h *HTTP) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, ErrUnsupported
}
