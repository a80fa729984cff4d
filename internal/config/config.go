// Package config merges the YAML file, CLEANSTAGE__ environment variables
// and command-line overrides into a validated spec.File.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"cleanstage/internal/spec"
)

// EnvPrefix scopes environment overrides; nesting uses "__", so
// CLEANSTAGE__JOB__MIN_PRICE sets job.min_price.
const EnvPrefix = "CLEANSTAGE__"

const DefaultOutputFile = "clean_sample.csv"

// Load merges, in increasing precedence: built-in defaults, the YAML file at
// path (a missing file is not an error), the environment, and overrides.
// Override keys are koanf paths such as "job.min_price".
func Load(path string, overrides map[string]any) (spec.File, error) {
	var cfg spec.File
	k := koanf.New(".")

	_ = k.Set("lineage.kafka.required_acks", -1)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != spec.SchemaVersion {
		return cfg, fmt.Errorf("schema_version %q not supported (want %s)", sv, spec.SchemaVersion)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("config env: %w", err)
	}
	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return cfg, fmt.Errorf("config override %s: %w", key, err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func applyDefaults(c *spec.File) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = spec.SchemaVersion
	}
	if c.Job.OutputFile == "" {
		c.Job.OutputFile = DefaultOutputFile
	}
	c.Store.ApplyDefaults()
	if c.Store.Driver == "local" && c.Store.Root == "" {
		c.Store.Root = ".cleanstage"
	}
	if len(c.Lineage.Sinks) == 0 {
		c.Lineage.Sinks = []string{"stdout"}
	}
	if c.Lineage.Kafka.ClientID == "" {
		c.Lineage.Kafka.ClientID = "cleanstage"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "basic_cleaning"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 7070
	}
	if c.Serve.MetricsPort == 0 {
		c.Serve.MetricsPort = 9100
	}
}

/*──────── validation ───────*/

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateJob checks the fields a cleaning run requires.
func ValidateJob(c spec.File) error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	if c.Store.Driver == "remote" && c.Store.Address == "" {
		return errors.New("store.address is required for the remote driver")
	}
	return nil
}

// ValidateServe checks the fields `serve` requires; job fields are ignored.
func ValidateServe(c spec.File) error {
	if err := validate.StructExcept(c, "Job"); err != nil {
		return describe(err)
	}
	if c.Store.Driver != "local" {
		return fmt.Errorf("serve needs the local store driver, got %q", c.Store.Driver)
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %v", field, e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
