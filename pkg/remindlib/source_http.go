package remindlib

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

var _ SoundSource = (*httpSoundSource)(nil)

// httpSoundSource streams a sound file over HTTP(S) with a plain GET.
// Range requests are pointless here: sound assets are small and retries
// overwrite the deterministic target path anyway.
type httpSoundSource struct {
	rawURL string
	client *http.Client
}

func newHTTPSoundSource(rawURL string, client *http.Client) (*httpSoundSource, error) {
	return &httpSoundSource{rawURL: rawURL, client: client}, nil
}

func (h *httpSoundSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("http open: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http open: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("http open: unexpected status %s", resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}
