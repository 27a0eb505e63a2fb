// Package webhook performs single signed webhook POSTs to subscriber endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderEvent     = "X-Webhook-Event"
	HeaderDelivery  = "X-Webhook-Delivery"

	DefaultTimeout = 10 * time.Second

	userAgent    = "shipment-lifecycle-webhooks/1.0"
	maxBodyDrain = 64 << 10
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx subscriber response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("subscriber responded with status %d", e.Code)
}

// Sender delivers one notification task per call.
type Sender struct {
	client  Doer
	timeout time.Duration
}

// NewSender returns a Sender. A nil client falls back to a plain http.Client
// and a non-positive timeout to DefaultTimeout.
func NewSender(client Doer, timeout time.Duration) *Sender {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sender{client: client, timeout: timeout}
}

// Encode renders the wire body of a task.
func Encode(task *domain.NotificationTask) ([]byte, error) {
	body, err := json.Marshal(task.Payload())
	if err != nil {
		return nil, errors.Wrap(err, "encode webhook payload")
	}
	return body, nil
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Send POSTs the task to the subscription URL. It returns the response
// status code (0 when no response arrived) and a non-nil error unless the
// subscriber answered 2xx.
func (s *Sender) Send(ctx context.Context, sub *domain.Subscription, task *domain.NotificationTask) (int, error) {
	body, err := Encode(task)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrap(err, "build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, Sign(sub.Secret, body))
	req.Header.Set(HeaderEvent, string(task.Event))
	req.Header.Set(HeaderDelivery, task.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
