package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/xcharge/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// Message is a payload recorded by MockPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MockPublisher is an in-memory Client used in tests.
type MockPublisher struct {
	mu        sync.Mutex
	Messages  []Message
	FailTopic map[string]bool
	handlers  map[string]coremqtt.MessageHandler
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		FailTopic: make(map[string]bool),
		handlers:  make(map[string]coremqtt.MessageHandler),
	}
}

// Publish records the message or returns an error if the topic is set to fail.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopic[topic] {
		return fmt.Errorf("%w: %s", coremqtt.ErrPublishFailed, topic)
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Subscribe records the handler.
func (m *MockPublisher) Subscribe(topic string, h coremqtt.MessageHandler) error {
	m.mu.Lock()
	m.handlers[topic] = h
	m.mu.Unlock()
	return nil
}

// Deliver simulates an inbound message on topic.
func (m *MockPublisher) Deliver(topic string, payload []byte) bool {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	if h == nil {
		return false
	}
	h(topic, payload)
	return true
}

// Sent returns a copy of the recorded messages.
func (m *MockPublisher) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}

func (m *MockPublisher) Disconnect() {}
