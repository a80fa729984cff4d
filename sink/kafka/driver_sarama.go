package kafka

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"cleanstage/sink"
)

type Config struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	Acks     int16    `koanf:"required_acks"` // 0,1,-1
	Version  string   `koanf:"version"`
	ClientID string   `koanf:"client_id"`
	TLSEn    bool     `koanf:"tls_enabled"`
	SASLUser string   `koanf:"sasl_user"`
	SASLPass string   `koanf:"sasl_pass"`
}

// driver publishes lineage events synchronously, keyed by run ID so every
// event of a run lands on the same partition in order.
type driver struct {
	cfg Config
	p   sarama.SyncProducer
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return errors.New("kafka-sink: brokers and topic are required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	if cfg.Version != "" {
		ver, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return err
		}
		sc.Version = ver
	}
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Successes = true
	if cfg.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if cfg.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = cfg.SASLUser, cfg.SASLPass
	}

	var err error
	d.p, err = sarama.NewSyncProducer(cfg.Brokers, sc)
	return err
}

func (d *driver) Push(e *sink.Event) error {
	val, err := e.Marshal(false)
	if err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	_, _, err = d.p.SendMessage(&sarama.ProducerMessage{
		Topic:     d.cfg.Topic,
		Key:       sarama.StringEncoder(e.RunID),
		Value:     sarama.ByteEncoder(val),
		Headers:   []sarama.RecordHeader{{Key: []byte("kind"), Value: []byte(e.Kind)}},
		Timestamp: e.At,
	})
	return err
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	err := d.p.Close()
	d.p = nil
	return err
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
