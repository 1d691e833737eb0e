package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// jsonPoster posts JSON payloads to a webhook endpoint.
type jsonPoster struct {
	client *http.Client
	url    string
	label  string
}

func newJSONPoster(url, label string) jsonPoster {
	return jsonPoster{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		label:  label,
	}
}

// post marshals payload and sends it. sign, when set, sees the exact body
// before the request goes out. Any 2xx status is success.
func (p jsonPoster) post(ctx context.Context, payload any, sign func(req *http.Request, body []byte)) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", p.label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.label, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "redinsight/1.0")
	if sign != nil {
		sign(req, body)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", p.label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", p.label, resp.StatusCode)
	}
	return nil
}
