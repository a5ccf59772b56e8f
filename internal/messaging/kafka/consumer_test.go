package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

type mockConsumerGroup struct {
	consumeFn func(context.Context, []string, sarama.ConsumerGroupHandler) error
	errorsCh  chan error
	closeFn   func() error
}

func (m *mockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, topics, handler)
	}
	return nil
}

func (m *mockConsumerGroup) Errors() <-chan error {
	return m.errorsCh
}

func (m *mockConsumerGroup) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	if m.errorsCh != nil {
		close(m.errorsCh)
	}
	return nil
}

func (m *mockConsumerGroup) Pause(map[string][]int32)  {}
func (m *mockConsumerGroup) Resume(map[string][]int32) {}
func (m *mockConsumerGroup) PauseAll()                 {}
func (m *mockConsumerGroup) ResumeAll()                {}

type mockSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (m *mockSession) Claims() map[string][]int32               { return nil }
func (m *mockSession) MemberID() string                         { return "member" }
func (m *mockSession) GenerationID() int32                      { return 1 }
func (m *mockSession) MarkOffset(string, int32, int64, string)  {}
func (m *mockSession) Commit()                                  {}
func (m *mockSession) ResetOffset(string, int32, int64, string) {}
func (m *mockSession) Context() context.Context                 { return m.ctx }
func (m *mockSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	m.marked = append(m.marked, msg)
}

type mockClaim struct {
	topic     string
	partition int32
	messages  chan *sarama.ConsumerMessage
}

func (m *mockClaim) Topic() string                            { return m.topic }
func (m *mockClaim) Partition() int32                         { return m.partition }
func (m *mockClaim) InitialOffset() int64                     { return 0 }
func (m *mockClaim) HighWaterMarkOffset() int64               { return 0 }
func (m *mockClaim) Messages() <-chan *sarama.ConsumerMessage { return m.messages }

func TestNewConsumerErrors(t *testing.T) {
	if _, err := NewConsumer([]string{"invalid-broker:9092"}, "group", []string{"topic"}, func(context.Context, *sarama.ConsumerMessage) error { return nil }); err == nil {
		t.Fatal("expected new consumer error")
	}
	if _, err := NewConsumerWithDLQ([]string{"invalid-broker:9092"}, "group", []string{"topic"}, func(context.Context, *sarama.ConsumerMessage) error { return nil }, nil, 3); err == nil {
		t.Fatal("expected new consumer with dlq error")
	}
}

func TestConsumerStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumeCalls := 0
	errorsCh := make(chan error, 1)
	group := &mockConsumerGroup{
		errorsCh: errorsCh,
		consumeFn: func(_ context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
			consumeCalls++
			cancel()
			return nil
		},
		closeFn: func() error {
			close(errorsCh)
			return nil
		},
	}

	consumer := &Consumer{
		consumer:   group,
		topics:     []string{"topic-a"},
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
		logger:     log.WithField("test", "consumer"),
		maxRetries: 2,
	}

	errorsCh <- errors.New("background error")
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := consumer.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if consumeCalls == 0 {
		t.Fatal("expected consume call")
	}
}

func TestConsumerStopError(t *testing.T) {
	consumer := &Consumer{
		consumer: &mockConsumerGroup{closeFn: func() error { return errors.New("close failed") }},
		logger:   log.WithField("test", "consumer"),
	}
	if err := consumer.Stop(); err == nil {
		t.Fatal("expected stop error")
	}
}

func TestConsumeClaimMarksHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := 0
	consumer := &Consumer{
		handler: func(context.Context, *sarama.ConsumerMessage) error {
			handled++
			return nil
		},
		logger: log.WithField("test", "consumer"),
	}

	session := &mockSession{ctx: ctx}
	claim := &mockClaim{topic: TopicDeliveryEvents, messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{Topic: TopicDeliveryEvents, Offset: 1}
	claim.messages <- &sarama.ConsumerMessage{Topic: TopicDeliveryEvents, Offset: 2}
	close(claim.messages)

	if err := consumer.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("consume claim: %v", err)
	}
	if handled != 2 || len(session.marked) != 2 {
		t.Fatalf("expected 2 handled and marked, got %d/%d", handled, len(session.marked))
	}
}

func TestConsumeClaimStopsOnFailedMessageWithoutDLQ(t *testing.T) {
	handled := 0
	consumer := &Consumer{
		handler: func(context.Context, *sarama.ConsumerMessage) error {
			handled++
			return errors.New("boom")
		},
		logger:     log.WithField("test", "consumer"),
		maxRetries: 0,
	}

	session := &mockSession{ctx: context.Background()}
	claim := &mockClaim{messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{Topic: TopicDeliveryEvents, Offset: 5}
	claim.messages <- &sarama.ConsumerMessage{Topic: TopicDeliveryEvents, Offset: 6}
	close(claim.messages)

	err := consumer.ConsumeClaim(session, claim)
	if err == nil {
		t.Fatal("expected claim to stop with an error")
	}
	if len(session.marked) != 0 {
		t.Fatalf("nothing may be marked past the failed message, got %d", len(session.marked))
	}
	if handled != 1 {
		t.Fatalf("messages after the failed one must not be handled, got %d calls", handled)
	}
}

func TestConsumerStartResumesAfterClaimError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumeCalls := 0
	errorsCh := make(chan error)
	group := &mockConsumerGroup{
		errorsCh: errorsCh,
		consumeFn: func(_ context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
			consumeCalls++
			if consumeCalls == 1 {
				return errors.New("stop claim at offset 5: boom")
			}
			cancel()
			return nil
		},
	}

	consumer := &Consumer{
		consumer:   group,
		topics:     []string{TopicDeliveryEvents},
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
		logger:     log.WithField("test", "consumer"),
		retryDelay: time.Millisecond,
	}

	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if consumeCalls != 2 {
		t.Fatalf("expected consume to be re-entered once, got %d calls", consumeCalls)
	}
}

func TestConsumeClaimStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	consumer := &Consumer{logger: log.WithField("test", "consumer")}
	claim := &mockClaim{messages: make(chan *sarama.ConsumerMessage)}
	if err := consumer.ConsumeClaim(&mockSession{ctx: ctx}, claim); err != nil {
		t.Fatalf("consume claim: %v", err)
	}
}

func TestHandleMessageWithRetry(t *testing.T) {
	message := &sarama.ConsumerMessage{Topic: TopicDeliveryEvents, Key: []byte("7"), Value: []byte(`{"order_id":7}`)}

	t.Run("transient error retried until success", func(t *testing.T) {
		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				if attempts < 3 {
					return errors.New("temporary")
				}
				return nil
			},
			logger:     log.WithField("test", "consumer"),
			maxRetries: 3,
			retryDelay: time.Millisecond,
		}
		if err := consumer.handleMessageWithRetry(context.Background(), message); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("retries exhausted without dlq", func(t *testing.T) {
		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				return errors.New("temporary")
			},
			logger:     log.WithField("test", "consumer"),
			maxRetries: 2,
			retryDelay: time.Millisecond,
		}
		if err := consumer.handleMessageWithRetry(context.Background(), message); err == nil {
			t.Fatal("expected error")
		}
		if attempts != 3 {
			t.Fatalf("expected maxRetries+1 attempts, got %d", attempts)
		}
	})

	t.Run("permanent error goes to dlq at once", func(t *testing.T) {
		mockProducer := mocks.NewSyncProducer(t, nil)
		mockProducer.ExpectSendMessageAndSucceed()

		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				return ErrPermanent
			},
			logger:      log.WithField("test", "consumer"),
			dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "producer")},
			maxRetries:  5,
			retryDelay:  time.Millisecond,
		}
		if err := consumer.handleMessageWithRetry(context.Background(), message); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 1 {
			t.Fatalf("permanent error must not be retried, got %d attempts", attempts)
		}
		if err := mockProducer.Close(); err != nil {
			t.Fatalf("close mock producer: %v", err)
		}
	})

	t.Run("dlq send failure is returned", func(t *testing.T) {
		mockProducer := mocks.NewSyncProducer(t, nil)
		mockProducer.ExpectSendMessageAndFail(errors.New("dlq down"))

		consumer := &Consumer{
			handler:     func(context.Context, *sarama.ConsumerMessage) error { return ErrPermanent },
			logger:      log.WithField("test", "consumer"),
			dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "producer")},
		}
		if err := consumer.handleMessageWithRetry(context.Background(), message); err == nil {
			t.Fatal("expected dlq error")
		}
		if err := mockProducer.Close(); err != nil {
			t.Fatalf("close mock producer: %v", err)
		}
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				cancel()
				return errors.New("temporary")
			},
			logger:     log.WithField("test", "consumer"),
			maxRetries: 3,
			retryDelay: time.Hour,
		}
		if err := consumer.handleMessageWithRetry(ctx, message); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
