package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
)

func testTask() *domain.NotificationTask {
	return &domain.NotificationTask{
		ID:              domain.NewTaskID("ship-1", 2, "sub-1"),
		SubscriptionID:  "sub-1",
		ShipmentID:      "ship-1",
		Sequence:        2,
		Event:           domain.EventStatusChanged,
		TrackingNumber:  "SHP123456789012",
		NewStatus:       domain.StatusPickedUp,
		ReferenceNumber: "PO-77",
		OccurredAt:      time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSend_SignsAndPostsPayload(t *testing.T) {
	var (
		gotBody    []byte
		gotHeaders http.Header
	)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sub := &domain.Subscription{ID: "sub-1", URL: srv.URL + "/hooks", Secret: "top-secret"}
	task := testTask()

	code, err := NewSender(srv.Client(), time.Second).Send(context.Background(), sub, task)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, code)

	require.True(t, Verify("top-secret", gotBody, gotHeaders.Get(HeaderSignature)))
	require.Equal(t, "shipment.status_changed", gotHeaders.Get(HeaderEvent))
	require.Equal(t, task.ID, gotHeaders.Get(HeaderDelivery))
	require.Equal(t, "application/json", gotHeaders.Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Equal(t, map[string]string{
		"id":               task.ID,
		"event":            "shipment.status_changed",
		"shipment_id":      "ship-1",
		"tracking_number":  "SHP123456789012",
		"new_status":       "picked_up",
		"reference_number": "PO-77",
		"timestamp":        "2026-06-01T10:00:00Z",
	}, payload)
}

func TestEncode_IsDeterministic(t *testing.T) {
	a, err := Encode(testTask())
	require.NoError(t, err)
	b, err := Encode(testTask())
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, Sign("k", a), Sign("k", b))
	require.NotEqual(t, Sign("k", a), Sign("other", a))
}

func TestSend_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	code, err := NewSender(srv.Client(), time.Second).Send(context.Background(), &domain.Subscription{URL: srv.URL}, testTask())
	require.Equal(t, http.StatusServiceUnavailable, code)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	code, err := NewSender(srv.Client(), 50*time.Millisecond).Send(context.Background(), &domain.Subscription{URL: srv.URL}, testTask())
	require.Error(t, err)
	require.Zero(t, code)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	require.False(t, Verify("k", []byte("body"), "not-hex"))
	require.False(t, Verify("k", []byte("body"), Sign("k", []byte("other body"))))
}
