package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solo-fox/veve/internal/registry"
	"github.com/solo-fox/veve/internal/schedule"
)

func TestParse(t *testing.T) {
	doc := `
timeout_ms: 500
retry: 2
soft_fail: true
width: 8
`
	d, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, Defaults{TimeoutMS: 500, Retry: 2, SoftFail: true, Width: 8}, d)
}

func TestParseEmptyDocument(t *testing.T) {
	d, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Defaults{}, d)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("timout_ms: 500\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timout_ms")
}

func TestParseRejectsNegativeValues(t *testing.T) {
	cases := []string{
		"timeout_ms: -1\n",
		"retry: -3\n",
		"width: -2\n",
	}
	for _, doc := range cases {
		_, err := Parse(strings.NewReader(doc))
		assert.Error(t, err, "doc %q", doc)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry: 1\n"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Retry)
}

func TestLoadMissingFileMeansZeroDefaults(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults{}, d)
}

func TestApplyPrecedence(t *testing.T) {
	d := Defaults{TimeoutMS: 500, Retry: 2, SoftFail: true}

	filled := d.Apply(registry.Options{})
	assert.Equal(t, 500*time.Millisecond, filled.Timeout)
	assert.Equal(t, 2, filled.Retry)
	assert.True(t, filled.SoftFail)

	explicit := d.Apply(registry.Options{Timeout: time.Second, Retry: 5})
	assert.Equal(t, time.Second, explicit.Timeout)
	assert.Equal(t, 5, explicit.Retry)

	unbounded := d.Apply(registry.Options{Timeout: registry.NoTimeout})
	assert.Equal(t, registry.NoTimeout, unbounded.Timeout, "explicit no-timeout must survive a default timeout")
}

func TestBatchWidth(t *testing.T) {
	assert.Equal(t, 8, Defaults{Width: 8}.BatchWidth())
	assert.Equal(t, schedule.DefaultWidth(), Defaults{}.BatchWidth())
}
