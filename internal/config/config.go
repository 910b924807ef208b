// Package config loads run-wide defaults from a YAML document. The
// defaults seed per-test options at declaration time; an option set
// explicitly on a test always wins over the file.
package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/solo-fox/veve/internal/registry"
	"github.com/solo-fox/veve/internal/schedule"
)

// Defaults is the run configuration surface. The zero value means "no
// defaults": zero timeout, no retries, hard failures, derived width.
type Defaults struct {
	// TimeoutMS bounds one attempt of every test, in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`

	// Retry is the default number of additional attempts after a
	// failed first one.
	Retry int `yaml:"retry"`

	// SoftFail records failures without flipping the run status.
	SoftFail bool `yaml:"soft_fail"`

	// Width is the batch concurrency; zero derives it from the machine.
	Width int `yaml:"width"`
}

func (d Defaults) validate() error {
	if d.TimeoutMS < 0 {
		return errors.Errorf("timeout_ms must be >= 0, got %d", d.TimeoutMS)
	}
	if d.Retry < 0 {
		return errors.Errorf("retry must be >= 0, got %d", d.Retry)
	}
	if d.Width < 0 {
		return errors.Errorf("width must be >= 0, got %d", d.Width)
	}
	return nil
}

// Parse decodes defaults from a YAML document. Unknown keys are
// rejected so a typo in a config file fails loudly instead of silently
// running with the zero value.
func Parse(r io.Reader) (Defaults, error) {
	var d Defaults
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return Defaults{}, nil
		}
		return Defaults{}, errors.Wrap(err, "decoding run defaults")
	}
	if err := d.validate(); err != nil {
		return Defaults{}, err
	}
	return d, nil
}

// Load reads defaults from a file. A missing file is not an error: the
// zero defaults apply.
func Load(path string) (Defaults, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults{}, nil
		}
		return Defaults{}, errors.Wrapf(err, "opening config %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Apply fills the unset fields of per-test options from the defaults.
// Explicit per-test values keep precedence; a Timeout of
// registry.NoTimeout stays unbounded even when a default timeout is
// configured.
func (d Defaults) Apply(opts registry.Options) registry.Options {
	if opts.Timeout == 0 && d.TimeoutMS > 0 {
		opts.Timeout = time.Duration(d.TimeoutMS) * time.Millisecond
	}
	if opts.Retry == 0 {
		opts.Retry = d.Retry
	}
	if !opts.SoftFail {
		opts.SoftFail = d.SoftFail
	}
	return opts
}

// BatchWidth resolves the batch concurrency: the configured width, or
// the machine-derived default when unset.
func (d Defaults) BatchWidth() int {
	if d.Width > 0 {
		return d.Width
	}
	return schedule.DefaultWidth()
}
