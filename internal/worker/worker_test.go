package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/mailbox"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
	"github.com/raoulx24/recpush/internal/upload"
)

// journal records the order of pipeline events across the fakes.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeAlloc struct {
	j    *journal
	next uint64
	errs []error // returned before any slot, in order
}

func (a *fakeAlloc) Generate(context.Context) (slot.Slot, error) {
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		a.j.add("alloc error")
		return slot.Slot{}, err
	}
	s := slot.Slot{ID: a.next, Dir: fmt.Sprintf("/rec%d", a.next)}
	a.next++
	a.j.add("alloc %d", s.ID)
	return s, nil
}

type fakeRecorder struct {
	j      *journal
	drains int
	active bool
}

func (r *fakeRecorder) Start(s slot.Slot) error {
	r.active = true
	r.j.add("start %d", s.ID)
	return nil
}

func (r *fakeRecorder) Drain() int {
	r.drains++
	return 0
}

func (r *fakeRecorder) Stop() error {
	r.active = false
	r.j.add("stop")
	return nil
}

type fakeUploader struct {
	j        *journal
	rec      *fakeRecorder
	fail     error
	cancelAt int
	cancel   context.CancelFunc
	calls    int
}

func (u *fakeUploader) UploadSlot(_ context.Context, s slot.Slot) (upload.Report, error) {
	u.calls++
	u.j.add("upload %d active=%t", s.ID, u.rec.active)
	if u.calls == u.cancelAt {
		u.cancel()
	}
	return upload.Report{Slot: s.ID}, u.fail
}

func testCapture() config.CaptureConfig {
	c := config.Default().Capture
	c.Length = 5 * time.Millisecond
	c.Hold = time.Millisecond
	return c
}

func TestRun_CycleOrder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := &journal{}
	rec := &fakeRecorder{j: j}
	up := &fakeUploader{j: j, rec: rec, cancelAt: 2, cancel: cancel}
	w, err := New(testCapture(), &fakeAlloc{j: j, next: 4}, rec, logging.Nop(), WithUploader(up))
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{
		"alloc 4", "start 4", "stop", "upload 4 active=false",
		"alloc 5", "start 5", "stop", "upload 5 active=false",
	}, j.list())
	assert.Positive(t, rec.drains)
}

func TestRun_FatalAllocation(t *testing.T) {
	t.Parallel()
	for _, fatal := range []error{slot.ErrResourceExhausted, slot.ErrBufferOverflow} {
		t.Run(fatal.Error(), func(t *testing.T) {
			j := &journal{}
			rec := &fakeRecorder{j: j}
			w, err := New(testCapture(), &fakeAlloc{j: j, errs: []error{fmt.Errorf("wrapped: %w", fatal)}}, rec, logging.Nop())
			require.NoError(t, err)

			err = w.Run(context.Background())
			assert.ErrorIs(t, err, fatal)
			assert.Equal(t, []string{"alloc error"}, j.list())
		})
	}
}

func TestRun_SkipsNonFatalAllocation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := &journal{}
	rec := &fakeRecorder{j: j}
	up := &fakeUploader{j: j, rec: rec, cancelAt: 1, cancel: cancel}
	ioErr := &storage.IOError{Op: "mkdir", Path: "/rec0", Err: errors.New("read-only file system")}
	w, err := New(testCapture(), &fakeAlloc{j: j, errs: []error{ioErr}}, rec, logging.Nop(), WithUploader(up))
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{"alloc error", "alloc 0", "start 0", "stop", "upload 0 active=false"}, j.list())
}

func TestRun_UploadFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := &journal{}
	rec := &fakeRecorder{j: j}
	up := &fakeUploader{j: j, rec: rec, fail: errors.New("connection refused"), cancelAt: 3, cancel: cancel}
	w, err := New(testCapture(), &fakeAlloc{j: j}, rec, logging.Nop(), WithUploader(up))
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 3, up.calls)
}

func TestRun_CancelDuringCaptureStopsRecorder(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	j := &journal{}
	rec := &fakeRecorder{j: j}
	up := &fakeUploader{j: j, rec: rec}
	cfg := testCapture()
	cfg.Length = time.Hour
	w, err := New(cfg, &fakeAlloc{j: j}, rec, logging.Nop(), WithUploader(up))
	require.NoError(t, err)

	time.AfterFunc(20*time.Millisecond, cancel)
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{"alloc 0", "start 0", "stop"}, j.list(), "no upload after cancel")
	assert.False(t, rec.active)
}

func TestRun_AppliesMailboxConfig(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := &journal{}
	rec := &fakeRecorder{j: j}
	up := &fakeUploader{j: j, rec: rec, cancelAt: 2, cancel: cancel}
	mb := mailbox.New[config.Config]()

	newCfg := config.Default()
	newCfg.Capture.Length = 2 * time.Millisecond
	newCfg.Capture.Hold = 2 * time.Millisecond
	newCfg.Storage.Rollover = true
	mb.Put(newCfg)

	var applied []config.Config
	w, err := New(testCapture(), &fakeAlloc{j: j}, rec, logging.Nop(),
		WithUploader(up),
		WithMailbox(mb),
		WithReloadHook(func(c config.Config) { applied = append(applied, c) }),
	)
	require.NoError(t, err)

	require.NoError(t, w.Run(ctx))
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Storage.Rollover)
	assert.Equal(t, 2*time.Millisecond, w.length)
	assert.False(t, mb.Pending())
}

func TestScheduler(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 12, 1, 30, 0, time.UTC)

	hold, err := NewScheduler(config.CaptureConfig{Hold: 25 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, at.Add(25*time.Second), hold.Next(at))

	cron, err := NewScheduler(config.CaptureConfig{Hold: 25 * time.Second, Schedule: "*/5 * * * *"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC), cron.Next(at))

	_, err = NewScheduler(config.CaptureConfig{Schedule: "whenever"})
	assert.Error(t, err)
}
