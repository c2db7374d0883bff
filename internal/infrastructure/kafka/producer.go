package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
	"github.com/DRSN-tech/face-matcher/internal/usecase"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventTypeMatchComputed — тип события о новом вычислении совпадений для фото.
const EventTypeMatchComputed = "photo.matches.computed"

type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if !cfg.Enabled() {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: KAFKA_BROKERS is empty", e.ErrIncorrectEnvVariable))
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// PublishMatchComputed отправляет событие, ключ сообщения — идентификатор фото.
func (p *Producer) PublishMatchComputed(ctx context.Context, event *usecase.MatchComputedEvent) error {
	value, err := p.GetPayloadBytes(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.PhotoID, 10)),
		Value: value,
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// GetPayloadBytes сериализует событие как google.protobuf.Struct.
func (p *Producer) GetPayloadBytes(event *usecase.MatchComputedEvent) ([]byte, error) {
	payload, err := toEventStruct(uuid.NewString(), event)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(payload)
}

func toEventStruct(eventID string, event *usecase.MatchComputedEvent) (*structpb.Struct, error) {
	personIDs := make([]any, len(event.PersonIDs))
	for i, id := range event.PersonIDs {
		personIDs[i] = float64(id)
	}

	return structpb.NewStruct(map[string]any{
		"event_id":    eventID,
		"event_type":  EventTypeMatchComputed,
		"photo_id":    float64(event.PhotoID),
		"match_count": float64(event.MatchCount),
		"person_ids":  personIDs,
		"computed_at": event.ComputedAt.UTC().Format(time.RFC3339Nano),
	})
}
