package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Webhook posts the notification itself as JSON to a generic endpoint,
// signed with HMAC-SHA256 when a secret is set.
type Webhook struct {
	poster jsonPoster
	secret string
}

// NewWebhook creates a new generic webhook notifier.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{poster: newJSONPoster(url, "webhook"), secret: secret}
}

func (w *Webhook) Name() string { return "webhook" }

// Sign returns the X-Signature-256 value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	var sign func(*http.Request, []byte)
	if w.secret != "" {
		sign = func(req *http.Request, body []byte) {
			req.Header.Set("X-Signature-256", Sign(w.secret, body))
		}
	}
	return w.poster.post(ctx, n, sign)
}
