package routioconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	cfg := Default()
	cfg.Network = "bluetooth"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInconsistentReconnectKnobs(t *testing.T) {
	cfg := Default()
	cfg.ReconnectMaxAttempts = 5
	cfg.ReconnectInitialDelay = 0
	assert.Error(t, cfg.Validate())
}

func TestCloneIsIndependentCopy(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Network = "tcp"
	assert.Equal(t, "unix", cfg.Network)
	assert.Equal(t, "tcp", clone.Network)
}

func TestClientOptionsProjection(t *testing.T) {
	cfg := Default()
	cfg.QueueCapacity = 64
	opts := cfg.ClientOptions()
	assert.Equal(t, "unix", opts.Network)
	assert.Equal(t, 64, opts.QueueCapacity)
}

func TestRetryConfigProjection(t *testing.T) {
	cfg := Default()
	retryCfg := cfg.RetryConfig()
	assert.Equal(t, cfg.ReconnectMaxAttempts, retryCfg.MaxAttempts)
	assert.True(t, retryCfg.AddJitter)
}

func TestLoadFileAppliesDefaultsThenOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network": "tcp", "lossy": true}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Network)
	assert.True(t, cfg.Lossy)
	assert.Equal(t, Default().QueueCapacity, cfg.QueueCapacity)
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network": "carrier-pigeon"}`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSafeConfigGetUpdate(t *testing.T) {
	sc := NewSafeConfig(Default())

	got := sc.Get()
	assert.Equal(t, "unix", got.Network)

	updated := Default()
	updated.Network = "tcp"
	require.NoError(t, sc.Update(updated))
	assert.Equal(t, "tcp", sc.Get().Network)

	bad := Default()
	bad.Network = "carrier-pigeon"
	assert.Error(t, sc.Update(bad))
	assert.Equal(t, "tcp", sc.Get().Network, "a rejected update must not change the stored config")
}
