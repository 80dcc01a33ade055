package app

import (
	"fmt"

	"github.com/nsqio/go-nsq"
	"github.com/sirupsen/logrus"

	"motorent/internal/config"
)

// NewProducer connects an NSQ producer for booking notifications. An empty
// address returns nil and notifications are only logged.
func NewProducer(cfg config.NSQConfig, logger *logrus.Logger) (*nsq.Producer, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	producer, err := nsq.NewProducer(cfg.Address, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create nsq producer: %w", err)
	}
	producer.SetLogger(nsqLogger{entry: logger.WithField("component", "nsq")}, nsq.LogLevelWarning)

	if err := producer.Ping(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("failed to ping nsqd: %w", err)
	}

	return producer, nil
}

// nsqLogger forwards go-nsq's internal log lines to logrus.
type nsqLogger struct {
	entry *logrus.Entry
}

func (l nsqLogger) Output(calldepth int, s string) error {
	l.entry.Warn(s)
	return nil
}
