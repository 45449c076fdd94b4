package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate reports every configuration value the recorder cannot run with.
func (c *Config) Validate() error {
	var errs []error

	s := c.Storage
	if s.Root == "" {
		errs = append(errs, errors.New("storage.root is empty"))
	}
	if verbs(s.DirTemplate) != "d" {
		errs = append(errs, fmt.Errorf("storage.dirTemplate %q must contain exactly one %%d", s.DirTemplate))
	}
	if verbs(s.FileTemplate) != "sd" {
		errs = append(errs, fmt.Errorf("storage.fileTemplate %q must contain %%s followed by %%d", s.FileTemplate))
	}
	if s.MaxPath <= 0 {
		errs = append(errs, errors.New("storage.maxPath must be positive"))
	}

	cp := c.Capture
	if cp.Channels < 1 {
		errs = append(errs, errors.New("capture.channels must be at least 1"))
	}
	if cp.BlockSize <= 0 {
		errs = append(errs, errors.New("capture.blockSize must be positive"))
	} else if cp.FlushSize <= 0 || cp.FlushSize%(2*cp.BlockSize) != 0 {
		errs = append(errs, fmt.Errorf("capture.flushSize %d must be a positive multiple of two blocks (%d)", cp.FlushSize, 2*cp.BlockSize))
	}
	if cp.SampleRate <= 0 {
		errs = append(errs, errors.New("capture.sampleRate must be positive"))
	}
	if cp.Length <= 0 {
		errs = append(errs, errors.New("capture.length must be positive"))
	}
	if cp.Hold < 0 {
		errs = append(errs, errors.New("capture.hold must not be negative"))
	}
	if cp.Schedule != "" {
		if _, err := cron.ParseStandard(cp.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("capture.schedule: %w", err))
		}
	}
	switch cp.Source {
	case "synthetic":
	case "device":
		if len(cp.Devices) != cp.Channels {
			errs = append(errs, fmt.Errorf("capture.devices has %d entries for %d channels", len(cp.Devices), cp.Channels))
		}
	default:
		errs = append(errs, fmt.Errorf("capture.source %q is not one of synthetic, device", cp.Source))
	}

	f := c.FTP
	if f.Enabled {
		if f.Host == "" {
			errs = append(errs, errors.New("ftp.host is empty"))
		}
		if f.Port <= 0 || f.Port > 65535 {
			errs = append(errs, fmt.Errorf("ftp.port %d out of range", f.Port))
		}
		if f.DataRetry.Attempts < 1 {
			errs = append(errs, errors.New("ftp.dataRetry.attempts must be at least 1"))
		}
		if f.ReplyLimit < 4 {
			errs = append(errs, errors.New("ftp.replyLimit must hold at least a status code"))
		}
		if f.ChunkSize <= 0 {
			errs = append(errs, errors.New("ftp.chunkSize must be positive"))
		}
		if lo, hi := f.PasvPortRange[0], f.PasvPortRange[1]; lo != 0 || hi != 0 {
			if lo < 1 || hi > 65535 || lo > hi {
				errs = append(errs, fmt.Errorf("ftp.pasvPortRange [%d,%d] is invalid", lo, hi))
			}
		}
	}

	if c.Telemetry.Enabled {
		errs = append(errs, c.validateTelemetry()...)
	}

	w := c.Watchdog
	if w.Enabled {
		if w.Warning < time.Second || w.Warning > 128*time.Second {
			errs = append(errs, fmt.Errorf("watchdog.warning %s outside [1s,128s]", w.Warning))
		}
		if w.Reset < time.Second || w.Reset > 128*time.Second {
			errs = append(errs, fmt.Errorf("watchdog.reset %s outside [1s,128s]", w.Reset))
		}
		if w.Reset < w.Warning {
			errs = append(errs, errors.New("watchdog.reset must be greater than watchdog.warning"))
		}
	}

	return errors.Join(errs...)
}

// frameOverhead is the telemetry header plus the trailing END byte.
const frameOverhead = 8 + 1

func (c *Config) validateTelemetry() []error {
	var errs []error
	tm, cp := c.Telemetry, c.Capture

	if tm.Port == "" {
		errs = append(errs, errors.New("telemetry.port is empty"))
	}
	if tm.Baud <= 0 {
		errs = append(errs, errors.New("telemetry.baud must be positive"))
	}
	if tm.Decimate < 1 {
		errs = append(errs, errors.New("telemetry.decimate must be at least 1"))
	}
	if tm.QueueFrames < 1 {
		errs = append(errs, errors.New("telemetry.queueFrames must be at least 1"))
	}
	if len(errs) > 0 || cp.BlockSize <= 0 || cp.SampleRate <= 0 || cp.Channels < 1 {
		return errs
	}

	frame := frameOverhead + cp.Channels*cp.BlockSize
	if frame-1 > 0xFFFF {
		return append(errs, fmt.Errorf("telemetry frame of %d bytes exceeds the 16-bit size field", frame-1))
	}

	// 8N1 puts ten bits on the line per byte; stuffing overhead is ignored
	capacity := float64(tm.Baud) / 10
	framesPerSec := float64(cp.SampleRate*2) / float64(cp.BlockSize) / float64(tm.Decimate)
	if need := framesPerSec * float64(frame); need > capacity {
		errs = append(errs, fmt.Errorf("telemetry.baud %d carries %.0f B/s but frames need %.0f B/s; raise the baud or telemetry.decimate", tm.Baud, capacity, need))
	}
	return errs
}

// verbs returns the formatting verbs of a template in order, ignoring "%%".
func verbs(tmpl string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		i++
		if i >= len(tmpl) {
			b.WriteByte('!')
			break
		}
		if tmpl[i] != '%' {
			b.WriteByte(tmpl[i])
		}
	}
	return b.String()
}
