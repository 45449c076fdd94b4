package config

import "time"

// Default returns the configuration of a stock single-channel sensor.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Root:         "/var/lib/recpush",
			DirTemplate:  "/rec%d",
			FileTemplate: "%s/chan%d.raw",
			MaxPath:      255,
			Rollover:     false,
			MarginBlocks: 2,
		},
		Capture: CaptureConfig{
			Source:       "synthetic",
			Channels:     1,
			SampleRate:   44100,
			BlockSize:    256,
			FlushSize:    4096,
			QueueBlocks:  256,
			Length:       5 * time.Second,
			Hold:         25 * time.Second,
			PollInterval: time.Millisecond,
			ToneHz:       900,
		},
		FTP: FTPConfig{
			Enabled:    true,
			Host:       "192.168.42.6",
			Port:       21,
			User:       "ftpuser",
			Timeout:    10 * time.Second,
			ReplyLimit: 256,
			ChunkSize:  512,
			DataRetry: RetryConfig{
				Attempts:  20,
				BaseDelay: 100 * time.Millisecond,
				MaxDelay:  2 * time.Second,
				Timeout:   15 * time.Second,
			},
		},
		Telemetry: TelemetryConfig{
			Baud:        9600,
			Decimate:    1,
			QueueFrames: 8,
		},
		Watchdog: WatchdogConfig{
			Enabled: true,
			Warning: 30 * time.Second,
			Reset:   60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		ConfigReload: ReloadConfig{
			Method:       "auto",
			PollInterval: 5 * time.Second,
		},
	}
}
