// Package events forwards store mutations to external consumers.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/store"
)

var ErrConnectTimeout = errors.New("mqtt connect timed out")

// Multi fans one event out to several listeners in order.
type Multi []store.Listener

func (m Multi) HandleEvent(e store.Event) {
	for _, l := range m {
		if l != nil {
			l.HandleEvent(e)
		}
	}
}

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	BrokerURL      string
	ClientID       string
	TopicPrefix    string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTTPublisher publishes every store event as JSON on <prefix>/<kind>.
type MQTTPublisher struct {
	client  Client
	prefix  string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewMQTTPublisher connects to the broker and returns a publisher for it.
func NewMQTTPublisher(cfg MQTTConfig, logger logrus.FieldLogger) (*MQTTPublisher, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrConnectTimeout, cfg.BrokerURL)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return NewPublisher(client, cfg.TopicPrefix, cfg.PublishTimeout, logger), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client Client, prefix string, timeout time.Duration, logger logrus.FieldLogger) *MQTTPublisher {
	if timeout <= 0 {
		timeout = time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MQTTPublisher{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		timeout: timeout,
		log:     logger,
	}
}

// Topic returns the topic an event kind is published on.
func (p *MQTTPublisher) Topic(kind store.EventKind) string {
	if p.prefix == "" {
		return string(kind)
	}
	return p.prefix + "/" + string(kind)
}

// HandleEvent publishes e with QoS 0. Failures are logged and dropped.
func (p *MQTTPublisher) HandleEvent(e store.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).Error("failed to encode store event")
		return
	}
	topic := p.Topic(e.Kind)
	tok := p.client.Publish(topic, 0, false, payload)
	if !tok.WaitTimeout(p.timeout) {
		p.log.WithField("topic", topic).Warn("mqtt publish timed out")
		return
	}
	if err := tok.Error(); err != nil {
		p.log.WithError(err).WithField("topic", topic).Warn("mqtt publish failed")
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
