package scoresync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// JSONFeedReader reads a Feed from an http(s) URL or a local file path.
type JSONFeedReader struct {
	client *http.Client
}

// NewJSONFeedReader creates a reader with a bounded request timeout.
func NewJSONFeedReader() *JSONFeedReader {
	return &JSONFeedReader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Read implements Reader.
func (r *JSONFeedReader) Read(ctx context.Context, url string) (*Feed, error) {
	var data []byte
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build feed request: %w", err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch feed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read feed body: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(url)
		if err != nil {
			return nil, fmt.Errorf("read feed file: %w", err)
		}
	}

	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &feed, nil
}
