// Package spec holds the merged configuration of a cleanstage invocation.
package spec

import (
	"strconv"

	"cleanstage/sink/kafka"
	"cleanstage/sink/stdout"
	"cleanstage/store"
)

const SchemaVersion = "v1"

// Job is what one cleaning run needs. The price bounds are pointers so an
// unset bound is distinct from zero.
type Job struct {
	InputArtifact     string   `koanf:"input_artifact" validate:"required"`
	OutputArtifact    string   `koanf:"output_artifact" validate:"required"`
	OutputType        string   `koanf:"output_type" validate:"required"`
	OutputDescription string   `koanf:"output_description" validate:"required"`
	MinPrice          *float64 `koanf:"min_price" validate:"required"`
	MaxPrice          *float64 `koanf:"max_price" validate:"required"`

	OutputFile string `koanf:"output_file"` // default clean_sample.csv
	WorkDir    string `koanf:"workdir"`     // default: a fresh temp dir
}

// Params renders the job as the string map recorded with the run.
func (j Job) Params() map[string]string {
	m := map[string]string{
		"input_artifact":     j.InputArtifact,
		"output_artifact":    j.OutputArtifact,
		"output_type":        j.OutputType,
		"output_description": j.OutputDescription,
	}
	if j.MinPrice != nil {
		m["min_price"] = strconv.FormatFloat(*j.MinPrice, 'g', -1, 64)
	}
	if j.MaxPrice != nil {
		m["max_price"] = strconv.FormatFloat(*j.MaxPrice, 'g', -1, 64)
	}
	return m
}

type Lineage struct {
	Sinks  []string      `koanf:"sinks" validate:"dive,oneof=stdout kafka"`
	Stdout stdout.Config `koanf:"stdout"`
	Kafka  kafka.Config  `koanf:"kafka"`
}

type Metrics struct {
	Textfile    string `koanf:"textfile"`    // node_exporter textfile collector path
	PushGateway string `koanf:"pushgateway"` // base URL
	Job         string `koanf:"job"`         // pushgateway job label
}

type Serve struct {
	Port        int `koanf:"port" validate:"gte=0,lte=65535"`
	MetricsPort int `koanf:"metrics_port" validate:"gte=0,lte=65535"`
}

type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `koanf:"json"`
}

type File struct {
	SchemaVersion string `koanf:"schema_version"`

	Job     Job          `koanf:"job"`
	Store   store.Config `koanf:"store"`
	Lineage Lineage      `koanf:"lineage"`
	Metrics Metrics      `koanf:"metrics"`
	Serve   Serve        `koanf:"serve"`
	Log     Log          `koanf:"log"`
}
