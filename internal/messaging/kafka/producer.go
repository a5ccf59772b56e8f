package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Producer публикует события в Kafka
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создает синхронный идемпотентный producer
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентного producer

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// HeaderEventType дублирует тип события в заголовке, чтобы подписчики могли
// фильтровать сообщения без разбора тела
const HeaderEventType = "event_type"

// PublishEvent сериализует событие в JSON и отправляет его в topic
func (p *Producer) PublishEvent(topic string, key string, event any) error {
	return p.publish(topic, key, nil, event)
}

func (p *Producer) publishOrderEvent(eventType EventType, order domain.Order, previous domain.OrderStatus) error {
	headers := []sarama.RecordHeader{{Key: []byte(HeaderEventType), Value: []byte(eventType)}}
	return p.publish(TopicOrderEvents, strconv.FormatInt(order.ID, 10), headers, NewOrderEvent(eventType, order, previous))
}

func (p *Producer) publish(topic, key string, headers []sarama.RecordHeader, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers,
		Timestamp: time.Now(),
	})
	fields := log.Fields{"topic": topic, "key": key}
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	fields["partition"], fields["offset"] = partition, offset
	p.logger.WithFields(fields).Debug("message sent to kafka")
	return nil
}

// OrderCreated публикует order.created с ключом по id заказа: события одного заказа
// попадают в одну партицию и сохраняют порядок.
func (p *Producer) OrderCreated(_ context.Context, order domain.Order) error {
	return p.publishOrderEvent(EventTypeOrderCreated, order, "")
}

// OrderStatusChanged публикует order.status_changed
func (p *Producer) OrderStatusChanged(_ context.Context, order domain.Order, previous domain.OrderStatus) error {
	return p.publishOrderEvent(EventTypeOrderStatusChanged, order, previous)
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.OrderEventPublisher = (*Producer)(nil)
