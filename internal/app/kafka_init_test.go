package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer(nil, log.WithField("test", "kafka"))
	if err != nil {
		t.Errorf("expected no error for empty brokers, got %v", err)
	}
	if producer != nil {
		t.Error("expected nil producer for empty brokers")
	}
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	producer, err := initKafkaProducer([]string{"invalid-broker:9999"}, log.WithField("test", "kafka"))
	if err == nil {
		t.Error("expected error for invalid brokers")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestStartDeliveryConsumer_DisabledWithoutBrokers(t *testing.T) {
	consumer, err := startDeliveryConsumer(context.Background(), Config{}, nil, nil, nil, log.WithField("test", "kafka"))
	if err != nil || consumer != nil {
		t.Fatalf("expected no consumer without brokers, got %v, %v", consumer, err)
	}
}

func TestCloseKafka_Nil(t *testing.T) {
	closeKafka(nil, nil, log.WithField("test", "kafka"))
}
