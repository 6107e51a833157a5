package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"postledger/internal/contract/models"
)

// Publisher hands one bank instruction to the asset-transfer primitive.
type Publisher interface {
	Publish(ctx context.Context, ins models.BankInstruction) error
}

// SendEvent is the wire form of a relayed bank send.
type SendEvent struct {
	InstructionID string         `json:"instruction_id"`
	ContractID    string         `json:"contract_id"`
	Send          models.BankMsg `json:"msg"`
}

// KafkaPublisher produces bank sends to a Kafka topic, keyed by recipient so
// sends to one address stay ordered.
type KafkaPublisher struct {
	client     *kgo.Client
	topic      string
	contractID string
}

// NewKafkaPublisher wraps an existing client. The caller owns its lifecycle.
func NewKafkaPublisher(client *kgo.Client, topic, contractID string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic, contractID: contractID}
}

// Publish produces synchronously and waits for broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, ins models.BankInstruction) error {
	value, err := json.Marshal(SendEvent{
		InstructionID: ins.ID.String(),
		ContractID:    p.contractID,
		Send:          ins.BankMsg(),
	})
	if err != nil {
		return fmt.Errorf("encode bank send: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ins.To.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "instruction_id", Value: []byte(ins.ID.String())},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce bank send: %w", err)
	}
	return nil
}

// LogPublisher only logs instructions. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ins models.BankInstruction) error {
	p.logger.InfoContext(ctx, "bank send",
		"instruction_id", ins.ID,
		"to_address", ins.To,
		"amount", ins.Amount.String(),
		"denom", ins.Denom,
	)
	return nil
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
