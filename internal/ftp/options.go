package ftp

import (
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/retry"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger logs every command and reply at debug level.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithDataRetry bounds the data-channel connect loop in Open.
func WithDataRetry(p retry.Policy) Option {
	return func(s *Session) {
		s.dataRetry = p
	}
}

// WithReplyLimit caps the stored length of one reply line, terminator included.
func WithReplyLimit(n int) Option {
	return func(s *Session) {
		if n >= 4 {
			s.replyLimit = n
		}
	}
}

// WithBannerLimit caps the stored length of the connect banner.
func WithBannerLimit(n int) Option {
	return func(s *Session) {
		if n >= 4 {
			s.bannerLimit = n
		}
	}
}

// WithPassivePortRange rejects PASV ports outside [lo, hi]. Zero bounds disable the check.
func WithPassivePortRange(lo, hi int) Option {
	return func(s *Session) {
		s.pasvLo, s.pasvHi = lo, hi
	}
}
