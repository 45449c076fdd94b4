package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/rec%d", cfg.Storage.DirTemplate)
	assert.Equal(t, "%s/chan%d.raw", cfg.Storage.FileTemplate)
	assert.False(t, cfg.Storage.Rollover)
	assert.Equal(t, 44100, cfg.Capture.SampleRate)
	assert.Equal(t, 5*time.Second, cfg.Capture.Length)
	assert.Equal(t, 25*time.Second, cfg.Capture.Hold)
	assert.Equal(t, "192.168.42.6", cfg.FTP.Host)
	assert.Equal(t, 9600, cfg.Telemetry.Baud)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
storage:
  root: /data/rec
  rollover: true
capture:
  channels: 2
  length: 10s
  schedule: "*/5 * * * *"
ftp:
  host: ftp.example.net
  password: secret
  pasvPortRange: [10000, 10100]
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/rec", cfg.Storage.Root)
	assert.True(t, cfg.Storage.Rollover)
	assert.Equal(t, 2, cfg.Capture.Channels)
	assert.Equal(t, 10*time.Second, cfg.Capture.Length)
	assert.Equal(t, 25*time.Second, cfg.Capture.Hold, "unset keys keep defaults")
	assert.Equal(t, [2]int{10000, 10100}, cfg.FTP.PasvPortRange)
	assert.Equal(t, "ftpuser", cfg.FTP.User)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("RECPUSH_TEST_PASSWORD", "from-env")
	cfg, err := Parse([]byte("ftp:\n  password: $(RECPUSH_TEST_PASSWORD)\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.FTP.Password)
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no channels", func(c *Config) { c.Capture.Channels = 0 }, "capture.channels"},
		{"flush not two blocks", func(c *Config) { c.Capture.FlushSize = 768 }, "capture.flushSize"},
		{"dir template without verb", func(c *Config) { c.Storage.DirTemplate = "/rec" }, "storage.dirTemplate"},
		{"file template wrong order", func(c *Config) { c.Storage.FileTemplate = "chan%d/%s" }, "storage.fileTemplate"},
		{"bad cron", func(c *Config) { c.Capture.Schedule = "every tuesday" }, "capture.schedule"},
		{"devices mismatch", func(c *Config) { c.Capture.Source = "device"; c.Capture.Devices = []string{"/dev/a"}; c.Capture.Channels = 2 }, "capture.devices"},
		{"unknown source", func(c *Config) { c.Capture.Source = "mic" }, "capture.source"},
		{"no retry attempts", func(c *Config) { c.FTP.DataRetry.Attempts = 0 }, "ftp.dataRetry.attempts"},
		{"inverted pasv range", func(c *Config) { c.FTP.PasvPortRange = [2]int{10100, 10000} }, "ftp.pasvPortRange"},
		{"watchdog reset before warning", func(c *Config) { c.Watchdog.Reset = 10 * time.Second }, "watchdog.reset"},
		{"watchdog too long", func(c *Config) { c.Watchdog.Warning = 200 * time.Second }, "watchdog.warning"},
		{"telemetry without port", func(c *Config) { c.Telemetry.Enabled = true }, "telemetry.port"},
		{"telemetry baud too slow", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Port = "/dev/ttyACM0" }, "telemetry.baud"},
		{"telemetry no queue", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Port = "/dev/ttyACM0"
			c.Telemetry.QueueFrames = 0
		}, "telemetry.queueFrames"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_TelemetryBandwidth(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Port = "/dev/ttyACM0"
	// 344.5 frames/s of 265 bytes is about 91 kB/s against 46 kB/s of line
	cfg.Telemetry.Baud = 460800
	require.Error(t, cfg.Validate())

	cfg.Telemetry.Decimate = 2
	assert.NoError(t, cfg.Validate())

	cfg.Telemetry.Baud = 9600
	cfg.Telemetry.Decimate = 100
	assert.NoError(t, cfg.Validate())
}

func TestValidate_FTPDisabledSkipsFTPChecks(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.FTP.Enabled = false
	cfg.FTP.Host = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "recpush.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  hold: 3s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Capture.Hold)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("capture: [unclosed\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
