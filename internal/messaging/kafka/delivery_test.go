package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type stubSetter struct {
	calls []DeliveryUpdate
	err   error
}

func (s *stubSetter) SetStatus(_ context.Context, orderID int64, status string) (domain.Order, error) {
	s.calls = append(s.calls, DeliveryUpdate{OrderID: orderID, Status: status})
	if s.err != nil {
		return domain.Order{}, s.err
	}
	return domain.Order{ID: orderID, Status: domain.OrderStatus(status)}, nil
}

type resultRecorder struct{ results []string }

func (r *resultRecorder) RecordDeliveryEvent(result string) { r.results = append(r.results, result) }

func TestDeliveryHandlerAppliesUpdate(t *testing.T) {
	setter := &stubSetter{}
	recorder := &resultRecorder{}
	handler := NewDeliveryHandler(setter, recorder, nil)

	msg := &sarama.ConsumerMessage{Value: []byte(`{"order_id": 4, "status": "Delivered"}`)}
	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(setter.calls) != 1 || setter.calls[0].OrderID != 4 || setter.calls[0].Status != "Delivered" {
		t.Fatalf("unexpected calls: %+v", setter.calls)
	}
	if len(recorder.results) != 1 || recorder.results[0] != "applied" {
		t.Fatalf("unexpected results: %v", recorder.results)
	}
}

func TestDeliveryHandlerPermanentFailures(t *testing.T) {
	cases := []struct {
		name  string
		value string
		err   error
	}{
		{name: "malformed json", value: `{`},
		{name: "missing order id", value: `{"status":"Delivered"}`},
		{name: "unknown order", value: `{"order_id":9,"status":"Delivered"}`, err: domain.ErrNotFound},
		{name: "empty status", value: `{"order_id":9,"status":""}`, err: domain.NewValidationError("status", "is required")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &resultRecorder{}
			handler := NewDeliveryHandler(&stubSetter{err: tc.err}, recorder, nil)

			err := handler(context.Background(), &sarama.ConsumerMessage{Value: []byte(tc.value)})
			if !errors.Is(err, ErrPermanent) {
				t.Fatalf("expected ErrPermanent, got %v", err)
			}
			if len(recorder.results) != 1 || recorder.results[0] != "rejected" {
				t.Fatalf("unexpected results: %v", recorder.results)
			}
		})
	}
}

func TestDeliveryHandlerTransientFailure(t *testing.T) {
	recorder := &resultRecorder{}
	handler := NewDeliveryHandler(&stubSetter{err: errors.New("storage busy")}, recorder, nil)

	err := handler(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{"order_id":1,"status":"Delivered"}`)})
	if err == nil || errors.Is(err, ErrPermanent) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if recorder.results[0] != "failed" {
		t.Fatalf("unexpected result %q", recorder.results[0])
	}
}
