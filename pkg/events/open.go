package events

import "fmt"

type Config struct {
	Broker  string
	NATSURL string
	Kafka   KafkaConfig
}

// Open returns the publisher for cfg.Broker. An empty broker means none.
func Open(cfg Config) (Publisher, error) {
	switch cfg.Broker {
	case BrokerNone, "":
		return NewNoopPublisher(), nil
	case BrokerNATS:
		return NewNATSPublisher(cfg.NATSURL)
	case BrokerKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka broker list is empty")
		}
		return NewKafkaPublisher(cfg.Kafka), nil
	default:
		return nil, fmt.Errorf("unknown event broker %q", cfg.Broker)
	}
}
