// Package publisher fans out each LIKELY Detection as a CloudEvent
// over RabbitMQ via amqp091-go. It is invoked only by
// cmd/taposcan-server after a scan completes — never by the core
// engine itself.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/localcam/taposcan"
)

// Publisher sends CloudEvents to RabbitMQ.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.SugaredLogger
}

// CloudEvent represents the CloudEvents 1.0 specification structure.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	ID              string      `json:"id"`
	Time            string      `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`
}

// DetectionData is the CloudEvent payload for one LIKELY camera
// detection.
type DetectionData struct {
	DetectionID string   `json:"detection_id"`
	IP          string   `json:"ip"`
	Hostname    string   `json:"hostname,omitempty"`
	MAC         string   `json:"mac,omitempty"`
	OpenPorts   []int    `json:"open_ports"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
}

// New creates a new Publisher connected to RabbitMQ at the given URL,
// declaring the exchange it will publish detections to.
func New(url, exchange string, logger *zap.SugaredLogger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if exchange == "" {
		exchange = "discovery.detections"
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Close closes the RabbitMQ connection.
func (p *Publisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishDetection publishes one LIKELY camera detection as a
// CloudEvent. Failures are returned to the caller (PublishAll logs
// each one and continues; a publish failure never affects the scan
// that produced the detection).
func (p *Publisher) PublishDetection(d camscan.Detection) error {
	data := DetectionData{
		DetectionID: uuid.New().String(),
		IP:          d.IP,
		Hostname:    d.Hostname,
		MAC:         d.MAC,
		OpenPorts:   d.OpenPorts,
		Confidence:  d.Confidence,
		Reason:      d.Reason,
	}
	event := p.createEvent("taposcan.detection.likely", data)
	return p.publish(event, "detection.likely")
}

// PublishAll publishes every detection in order, continuing past
// individual failures and returning the count of failures (not the
// individual errors — each is logged as it occurs).
func (p *Publisher) PublishAll(detections []camscan.Detection) int {
	failures := 0
	for _, d := range detections {
		if err := p.PublishDetection(d); err != nil {
			failures++
			p.logger.Errorw("failed to publish detection", "ip", d.IP, "error", err)
		}
	}
	return failures
}

func (p *Publisher) createEvent(eventType string, data interface{}) CloudEvent {
	return CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          "/taposcan/server",
		ID:              uuid.New().String(),
		Time:            time.Now().UTC().Format(time.RFC3339),
		DataContentType: "application/json",
		Data:            data,
	}
}

func (p *Publisher) publish(event CloudEvent, routingKey string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/cloudevents+json",
			Body:        body,
			MessageId:   event.ID,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debugw("detection event published",
		"type", event.Type,
		"id", event.ID,
		"routing_key", routingKey,
	)

	return nil
}
