package store

import "time"

type Config struct {
	Driver  string        `koanf:"driver"` // local|remote
	Project string        `koanf:"project"`
	Root    string        `koanf:"root"`    // local: directory holding projects
	Address string        `koanf:"address"` // remote: host:port of `cleanstage serve`
	Cache   string        `koanf:"cache"`   // remote: where fetched files land
	Timeout time.Duration `koanf:"timeout"` // remote: per call
	MaxMsg  int           `koanf:"max_message_bytes"`
}

const (
	DefaultProject = "default"
	DefaultTimeout = 60 * time.Second
	DefaultMaxMsg  = 256 << 20
)

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "local"
	}
	if c.Project == "" {
		c.Project = DefaultProject
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxMsg == 0 {
		c.MaxMsg = DefaultMaxMsg
	}
}
