package mqtt

// Publisher publishes raw payloads on a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MessageHandler receives messages delivered on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Client publishes session events and receives remote actions.
type Client interface {
	Publisher
	// Subscribe registers handler for topic. Subscriptions survive
	// reconnects.
	Subscribe(topic string, handler MessageHandler) error
	Disconnect()
}
