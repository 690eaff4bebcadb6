// Package catalog performs the one-shot initial item load over HTTP.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kunal9s/auctionsync/internal/store"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// FetchItems requests the full item collection from {apiURL}/api/items. A
// failure here is non-fatal to the caller: the collection simply starts empty
// and fills in on the next full resync from the channel.
func FetchItems(ctx context.Context, apiURL string) ([]store.Item, error) {
	url := strings.TrimSuffix(apiURL, "/") + "/api/items"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build items request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch items: unexpected status %s", resp.Status)
	}

	var body struct {
		Items []store.Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return body.Items, nil
}
