package lwmqtt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the file configuration consumed by the cmd mains.
type Config struct {
	Broker struct {
		Host   string `yaml:"host"`
		Port   uint16 `yaml:"port"`
		Scheme string `yaml:"scheme"`
	} `yaml:"broker"`

	ClientID  string `yaml:"clientId"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	KeepAlive uint16 `yaml:"keepAlive"`

	Will struct {
		Topic   string `yaml:"topic"`
		Message string `yaml:"message"`
		QoS     uint8  `yaml:"qos"`
		Retain  bool   `yaml:"retain"`
	} `yaml:"will"`

	TxBufferSize int `yaml:"txBufferSize"`
	RxBufferSize int `yaml:"rxBufferSize"`

	// HTTP is the listen URL for the metrics endpoint; empty disables it.
	HTTP string `yaml:"http"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SessionInfo converts the file configuration into a session descriptor.
func (cfg *Config) SessionInfo() *SessionInfo {
	return &SessionInfo{
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    cfg.Password,
		WillTopic:   cfg.Will.Topic,
		WillMessage: []byte(cfg.Will.Message),
		WillQoS:     QoS(cfg.Will.QoS),
		WillRetain:  cfg.Will.Retain,
		KeepAlive:   cfg.KeepAlive,
	}
}

// Options converts the file configuration into client options.
func (cfg *Config) Options() []Option {
	var opts []Option
	if cfg.Broker.Scheme != "" {
		opts = append(opts, Scheme(cfg.Broker.Scheme))
	}
	if cfg.TxBufferSize > 0 {
		opts = append(opts, TxBufferSize(cfg.TxBufferSize))
	}
	if cfg.RxBufferSize > 0 {
		opts = append(opts, RxBufferSize(cfg.RxBufferSize))
	}
	return opts
}
