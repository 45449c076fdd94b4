// Package config holds the recorder configuration and its YAML loader.
package config

import "time"

type Config struct {
	Storage      StorageConfig   `yaml:"storage"`
	Capture      CaptureConfig   `yaml:"capture"`
	FTP          FTPConfig       `yaml:"ftp"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
	Watchdog     WatchdogConfig  `yaml:"watchdog"`
	Logging      LoggingConfig   `yaml:"logging"`
	ConfigReload ReloadConfig    `yaml:"configReload"`
}

type StorageConfig struct {
	Root         string `yaml:"root"`
	DirTemplate  string `yaml:"dirTemplate"`  // formatted with the slot id, e.g. "/rec%d"
	FileTemplate string `yaml:"fileTemplate"` // formatted with dir and channel, e.g. "%s/chan%d.raw"
	MaxPath      int    `yaml:"maxPath"`
	Rollover     bool   `yaml:"rollover"`
	MarginBlocks uint64 `yaml:"marginBlocks"` // accounting blocks reserved on top of one recording
}

type CaptureConfig struct {
	Source       string        `yaml:"source"` // "synthetic" or "device"
	Devices      []string      `yaml:"devices"`
	Channels     int           `yaml:"channels"`
	SampleRate   int           `yaml:"sampleRate"`
	BlockSize    int           `yaml:"blockSize"` // bytes per hardware block
	FlushSize    int           `yaml:"flushSize"` // bytes accumulated before a file write
	QueueBlocks  int           `yaml:"queueBlocks"`
	Length       time.Duration `yaml:"length"`
	Hold         time.Duration `yaml:"hold"`
	Schedule     string        `yaml:"schedule"` // optional cron expression
	PollInterval time.Duration `yaml:"pollInterval"`
	ToneHz       float64       `yaml:"toneHz"`
}

type FTPConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	RemoteRoot    string        `yaml:"remoteRoot"`
	Timeout       time.Duration `yaml:"timeout"`
	ReplyLimit    int           `yaml:"replyLimit"`
	ChunkSize     int           `yaml:"chunkSize"`
	PasvPortRange [2]int        `yaml:"pasvPortRange"`
	DataRetry     RetryConfig   `yaml:"dataRetry"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"baseDelay"`
	MaxDelay  time.Duration `yaml:"maxDelay"`
	Timeout   time.Duration `yaml:"timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Port        string `yaml:"port"` // serial device, e.g. "/dev/ttyACM0"
	Baud        int    `yaml:"baud"`
	Decimate    int    `yaml:"decimate"`    // send one frame per this many block sets
	QueueFrames int    `yaml:"queueFrames"` // frames buffered ahead of the port before dropping
}

type WatchdogConfig struct {
	Enabled bool          `yaml:"enabled"`
	Warning time.Duration `yaml:"warning"`
	Reset   time.Duration `yaml:"reset"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
}

type ReloadConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Method       string        `yaml:"method"` // "auto", "fsnotify", "poll"
	PollInterval time.Duration `yaml:"pollInterval"`
}
