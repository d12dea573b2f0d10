package messaging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
)

// KafkaConfig настройки подключения к Kafka
type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	ClientID string
	// DeadLetterTopic топик для сообщений, которые не удалось обработать; пустое значение отключает отправку
	DeadLetterTopic string
}

// KafkaMessaging реализация MessagingPort с использованием Kafka
type KafkaMessaging struct {
	producer       *kafka.Producer
	consumers      map[string]*subscription
	consumersMutex sync.Mutex
	cfg            KafkaConfig
	logger         interfaces.LoggerPort
}

// subscription потребитель и его цикл чтения
type subscription struct {
	consumer *kafka.Consumer
	cancel   context.CancelFunc
	done     chan struct{}
}

// stop останавливает цикл чтения и только после этого закрывает потребителя
func (s *subscription) stop() error {
	s.cancel()
	<-s.done
	return s.consumer.Close()
}

// NewKafkaMessaging создает новый экземпляр KafkaMessaging
func NewKafkaMessaging(cfg KafkaConfig, logger interfaces.LoggerPort) (*KafkaMessaging, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "marketplace-service"
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Brokers, ","),
		"client.id":          cfg.ClientID + "-producer",
		"acks":               "all", // максимальная надежность
		"retries":            5,
		"retry.backoff.ms":   500,
		"linger.ms":          10, // небольшая задержка для батчинга
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka producer: %w", err)
	}

	return &KafkaMessaging{
		producer:  producer,
		consumers: make(map[string]*subscription),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// messageToKafkaMessage преобразует сообщение в kafka.Message
func messageToKafkaMessage(topic string, message []byte, key string, headers map[string]string) *kafka.Message {
	kafkaHeaders := make([]kafka.Header, 0, len(headers)+2)
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	// Добавляем служебные заголовки
	kafkaHeaders = append(kafkaHeaders,
		kafka.Header{Key: HeaderMessageID, Value: []byte(uuid.New().String())},
		kafka.Header{Key: HeaderTimestamp, Value: []byte(strconv.FormatInt(time.Now().UnixNano(), 10))},
	)

	var keyBytes []byte
	if key != "" {
		keyBytes = []byte(key)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          message,
		Key:            keyBytes,
		Headers:        kafkaHeaders,
	}
}

// kafkaMessageToMessage преобразует kafka.Message в Message
func kafkaMessageToMessage(msg *kafka.Message) *interfaces.Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, header := range msg.Headers {
		headers[header.Key] = string(header.Value)
	}

	publishedAt := msg.Timestamp
	if ts, err := strconv.ParseInt(headers[HeaderTimestamp], 10, 64); err == nil {
		publishedAt = time.Unix(0, ts)
	}

	var topic string
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}

	return &interfaces.Message{
		ID:          headers[HeaderMessageID],
		Topic:       topic,
		Key:         string(msg.Key),
		Value:       msg.Value,
		Headers:     headers,
		ProfileID:   headers[HeaderProfileID],
		PublishedAt: publishedAt,
	}
}

// Publish публикует сообщение в указанную тему
func (k *KafkaMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	return k.PublishWithKey(ctx, topic, "", message, nil)
}

// PublishWithKey публикует сообщение и дожидается подтверждения брокера
func (k *KafkaMessaging) PublishWithKey(ctx context.Context, topic string, key string, message []byte, headers map[string]string) error {
	delivery := make(chan kafka.Event, 1)
	if err := k.producer.Produce(messageToKafkaMessage(topic, message, key, headers), delivery); err != nil {
		return fmt.Errorf("ошибка отправки в топик %s: %w", topic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("неожиданное событие доставки: %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("ошибка доставки в топик %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	}
}

// Subscribe подписывается на тему. Сообщение подтверждается после обработки;
// необработанное сообщение отправляется в DeadLetterTopic, если он задан.
func (k *KafkaMessaging) Subscribe(ctx context.Context, topic string, handler interfaces.MessageHandler) (func() error, error) {
	config := interfaces.ConsumerConfig{
		GroupID:     k.cfg.GroupID,
		AutoCommit:  false,
		PollTimeout: 100 * time.Millisecond,
	}
	return k.SubscribeWithConfig(ctx, topic, handler, config)
}

// SubscribeWithConfig подписывается на тему с дополнительными настройками
func (k *KafkaMessaging) SubscribeWithConfig(ctx context.Context, topic string, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) (func() error, error) {
	consumerID := uuid.New().String()

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       strings.Join(k.cfg.Brokers, ","),
		"group.id":                config.GroupID,
		"client.id":               k.cfg.ClientID + "-consumer",
		"auto.offset.reset":       "earliest",
		"enable.auto.commit":      config.AutoCommit,
		"auto.commit.interval.ms": int(config.AutoCommitInterval.Milliseconds()),
		"session.timeout.ms":      30000,
		"max.poll.interval.ms":    300000,
		"heartbeat.interval.ms":   3000,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka consumer: %w", err)
	}

	// Подписываемся на топик
	if err := consumer.Subscribe(topic, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("ошибка подписки на топик %s: %w", topic, err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{consumer: consumer, cancel: cancel, done: make(chan struct{})}

	k.consumersMutex.Lock()
	k.consumers[consumerID] = sub
	k.consumersMutex.Unlock()

	go func() {
		defer close(sub.done)
		k.consumeMessages(consumeCtx, consumer, handler, config)
	}()

	// функция для отмены подписки
	unsubscribe := func() error {
		k.consumersMutex.Lock()
		s, ok := k.consumers[consumerID]
		delete(k.consumers, consumerID)
		k.consumersMutex.Unlock()

		if !ok {
			return nil
		}
		return s.stop()
	}

	return unsubscribe, nil
}

// consumeMessages читает сообщения, пока не отменен контекст
func (k *KafkaMessaging) consumeMessages(ctx context.Context, consumer *kafka.Consumer, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := consumer.Poll(int(config.PollTimeout.Milliseconds()))
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msg := kafkaMessageToMessage(e)

			if err := handler(ctx, msg); err != nil {
				k.deadLetter(ctx, msg, err)
			}

			// Подтверждаем обработку сообщения, если ручной режим
			if !config.AutoCommit {
				if _, err := consumer.CommitMessage(e); err != nil {
					k.logger.Warn("Не удалось подтвердить сообщение", "message_id", msg.ID, "error", err)
				}
			}

		case kafka.Error:
			k.logger.Error("Ошибка Kafka", "code", e.Code().String(), "error", e.Error())
			if e.Code() == kafka.ErrAllBrokersDown {
				return
			}
		}
	}
}

// deadLetter перекладывает необработанное сообщение в топик ошибок
func (k *KafkaMessaging) deadLetter(ctx context.Context, msg *interfaces.Message, cause error) {
	if k.cfg.DeadLetterTopic == "" {
		return
	}

	headers := make(map[string]string, len(msg.Headers)+1)
	for key, value := range msg.Headers {
		if key == HeaderMessageID || key == HeaderTimestamp {
			continue
		}
		headers[key] = value
	}
	headers[HeaderError] = cause.Error()

	if err := k.PublishWithKey(ctx, k.cfg.DeadLetterTopic, msg.Key, msg.Value, headers); err != nil {
		k.logger.Error("Не удалось отправить сообщение в топик ошибок",
			"message_id", msg.ID, "topic", k.cfg.DeadLetterTopic, "error", err)
	}
}

// EnsureTopic создает тему, если ее нет
func (k *KafkaMessaging) EnsureTopic(ctx context.Context, topic string, partitions int, replicationFactor int) error {
	adminClient, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("ошибка создания Kafka admin client: %w", err)
	}
	defer adminClient.Close()

	result, err := adminClient.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}}, kafka.SetAdminOperationTimeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("ошибка создания топика %s: %w", topic, err)
	}

	for _, r := range result {
		code := r.Error.Code()
		if code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("ошибка создания топика %s: %s", r.Topic, r.Error.String())
		}
	}

	return nil
}

// Close закрывает потребителей и дожидается отправки сообщений
func (k *KafkaMessaging) Close() error {
	k.consumersMutex.Lock()
	for id, sub := range k.consumers {
		if err := sub.stop(); err != nil {
			k.logger.Warn("Ошибка закрытия Kafka consumer", "error", err)
		}
		delete(k.consumers, id)
	}
	k.consumersMutex.Unlock()

	k.producer.Flush(15 * 1000) // Ждем до 15 секунд для отправки всех сообщений
	k.producer.Close()

	return nil
}
