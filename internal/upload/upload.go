// Package upload pushes the channel files of a finished slot to the FTP server.
package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/ftp"
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/retry"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
	"github.com/raoulx24/recpush/internal/transport"
	"github.com/raoulx24/recpush/internal/watchdog"
)

// Report summarizes one slot upload.
type Report struct {
	RunID    string
	Slot     uint64
	Uploaded int
	Failed   int
	Bytes    int64
	Duration time.Duration
	Errors   []error
}

// SessionFactory returns a fresh, disconnected FTP session.
type SessionFactory func() *ftp.Session

type Uploader struct {
	fs         storage.FS
	newSession SessionFactory
	host       string
	port       int
	user       string
	password   string
	remoteRoot string
	chunk      int
	feeder     watchdog.Feeder
	log        logging.Logger
}

func New(fs storage.FS, cfg config.FTPConfig, newSession SessionFactory, feeder watchdog.Feeder, log logging.Logger) *Uploader {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = 512
	}
	return &Uploader{
		fs:         fs,
		newSession: newSession,
		host:       cfg.Host,
		port:       cfg.Port,
		user:       cfg.User,
		password:   cfg.Password,
		remoteRoot: cfg.RemoteRoot,
		chunk:      chunk,
		feeder:     feeder,
		log:        log,
	}
}

// NewSessionFactory builds sessions over TCP transports configured from cfg.
func NewSessionFactory(cfg config.FTPConfig, log logging.Logger) SessionFactory {
	return func() *ftp.Session {
		return ftp.NewSession(
			transport.NewTCP(cfg.Timeout),
			transport.NewTCP(cfg.Timeout),
			ftp.WithLogger(log),
			ftp.WithReplyLimit(cfg.ReplyLimit),
			ftp.WithPassivePortRange(cfg.PasvPortRange[0], cfg.PasvPortRange[1]),
			ftp.WithDataRetry(retry.Policy{
				Attempts:  cfg.DataRetry.Attempts,
				BaseDelay: cfg.DataRetry.BaseDelay,
				MaxDelay:  cfg.DataRetry.MaxDelay,
				Timeout:   cfg.DataRetry.Timeout,
			}),
		)
	}
}

// UploadSlot sends every channel file of s, in channel order, over one
// session. A connect, login or CWD failure abandons the whole slot; a failed
// channel is logged and the next one is still attempted. The session is
// always disconnected before returning.
func (u *Uploader) UploadSlot(ctx context.Context, s slot.Slot) (rep Report, err error) {
	started := time.Now()
	rep = Report{RunID: uuid.NewString(), Slot: s.ID}
	log := logging.With(u.log, "run", rep.RunID, "slot", s.ID)
	defer func() { rep.Duration = time.Since(started) }()

	u.feeder.Feed()

	sess := u.newSession()
	defer sess.Disconnect()

	if err := sess.Connect(ctx, u.host, u.port); err != nil {
		log.Error("upload aborted: connect", "addr", u.host, "code", ftp.Code(err), "error", err)
		return rep, err
	}
	if err := sess.Auth(u.user, u.password); err != nil {
		log.Error("upload aborted: login", "user", u.user, "code", ftp.Code(err), "error", err)
		return rep, err
	}

	remote := path.Join("/", u.remoteRoot, s.Dir)
	if err := sess.Mkdir(remote); err != nil {
		// usually the directory already exists; CWD decides
		log.Debug("mkdir failed", "path", remote, "code", ftp.Code(err))
	}
	if err := sess.Chdir(remote); err != nil {
		log.Error("upload aborted: chdir", "path", remote, "code", ftp.Code(err), "error", err)
		return rep, err
	}

	for ch, local := range s.Files {
		u.feeder.Feed()

		n, err := u.uploadFile(ctx, sess, local)
		rep.Bytes += n
		if err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, err)
			log.Error("channel upload failed", "channel", ch, "path", local, "code", ftp.Code(err), "bytes", n, "error", err)
			continue
		}
		rep.Uploaded++
		log.Info("channel uploaded", "channel", ch, "path", local, "bytes", n)
	}

	log.Info("slot upload finished", "uploaded", rep.Uploaded, "failed", rep.Failed, "bytes", rep.Bytes)
	return rep, nil
}

func (u *Uploader) uploadFile(ctx context.Context, sess *ftp.Session, local string) (int64, error) {
	f, err := u.fs.Open(local, storage.ModeRead)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := sess.Open(ctx, path.Base(local), ftp.ModeWrite); err != nil {
		return 0, err
	}

	buf := make([]byte, u.chunk)
	var total int64
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, err := sess.Write(buf[:n]); err != nil {
				_ = sess.Close()
				return total, err
			}
			total += int64(n)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			_ = sess.Close()
			return total, &storage.IOError{Op: "read", Path: local, Err: rerr}
		}
	}

	return total, sess.Close()
}
