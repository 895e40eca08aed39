package kafka

import "time"

// Config is the yaml-facing Kafka section shared by producer and consumer.
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	GroupID      string        `yaml:"group_id" default:"zenith-core"`
	Compression  string        `yaml:"compression" default:"snappy"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	Workers      int           `yaml:"workers" default:"2"`
	BufferSize   int           `yaml:"buffer_size" default:"64"`
	RetryMax     int           `yaml:"retry_max" default:"3"`
	BackoffMin   time.Duration `yaml:"backoff_min" default:"100ms"`
	BackoffMax   time.Duration `yaml:"backoff_max" default:"2s"`
	DLQTopic     string        `yaml:"dlq_topic"`
	Topics       Topics        `yaml:"topics"`
}

// Topics names the topics the service reads and writes.
type Topics struct {
	Recompute string `yaml:"recompute" default:"zenith.recompute"`
	Signals   string `yaml:"signals" default:"zenith.signals"`
	Scores    string `yaml:"scores" default:"zenith.scores"`
}

// producerDefaults fills writer settings the section left at zero.
func producerDefaults(c Config) Config {
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}
