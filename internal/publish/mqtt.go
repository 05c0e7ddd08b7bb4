package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

const (
	qosAtLeastOnce = byte(1)
	publishTimeout = 5 * time.Second
)

var errNotConnected = errors.New("mqtt client not connected")

// MQTTPublisher publishes each snapshot set as one retained message, so a
// subscriber joining late still receives the current state.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewMQTTPublisher builds a publisher for broker (e.g. tcp://localhost:1883).
// Call Connect before the first write.
func NewMQTTPublisher(broker, clientID, topic string, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", zap.String("broker", broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})

	return newPublisher(mqtt.NewClient(opts), topic, logger)
}

func newPublisher(client mqtt.Client, topic string, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTPublisher{client: client, topic: topic, logger: logger}
}

// Connect waits for the broker connection or ctx cancellation.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			p.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// WriteSnapshots publishes the set to the configured topic.
func (p *MQTTPublisher) WriteSnapshots(_ context.Context, snapshots []airquality.RegionSnapshot) error {
	if !p.client.IsConnected() {
		return errNotConnected
	}

	payload, err := EncodeSnapshots(snapshots)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, qosAtLeastOnce, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish snapshots: %w", err)
	}

	p.logger.Debug("published snapshots", zap.String("topic", p.topic), zap.Int("regions", len(snapshots)))
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// EncodeSnapshots renders the message body: the same JSON array as the output file.
func EncodeSnapshots(snapshots []airquality.RegionSnapshot) ([]byte, error) {
	if snapshots == nil {
		snapshots = []airquality.RegionSnapshot{}
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshots: %w", err)
	}
	return data, nil
}
