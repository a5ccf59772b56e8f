package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	deliveryConsumerGroup = "storefront-delivery"
	deliveryMaxRetries    = 3
)

// ParseBrokers разбирает список брокеров через запятую, пропуская пустые элементы.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// initKafkaProducer создаёт producer, если брокеры заданы.
// Возвращает nil, nil при пустом списке; ошибка не фатальна для запуска.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// startDeliveryConsumer подписывается на ленту доставки. Без producer'а
// сообщения, которые не удалось применить, остаются непрочитанными (нет DLQ).
func startDeliveryConsumer(ctx context.Context, cfg Config, setter kafka.StatusSetter, m *metrics.StorefrontMetrics, dlq *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}
	topic := cfg.DeliveryTopic
	if topic == "" {
		topic = kafka.TopicDeliveryEvents
	}

	handler := kafka.NewDeliveryHandler(setter, m, logger.WithField("component", "delivery-feed"))
	consumer, err := kafka.NewConsumerWithDLQ(cfg.KafkaBrokers, deliveryConsumerGroup, []string{topic}, handler, dlq, deliveryMaxRetries)
	if err != nil {
		logger.WithError(err).Warn("failed to create delivery consumer, continuing without it")
		return nil, err
	}
	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}
	return consumer, nil
}

// closeKafka останавливает consumer и закрывает producer, если они были созданы.
func closeKafka(consumer *kafka.Consumer, producer *kafka.Producer, logger *log.Entry) {
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop delivery consumer")
		}
	}
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
