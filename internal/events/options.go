package events

type ProducerOptions func(e *EventProducer)

// WithOutputTopic overrides the default output topic.
func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}
