// pkg/unarc/unarchiver_test.go
package unarc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap/zaptest"
)

// scriptDecoder emits a fixed sequence of progress values and entries,
// then returns err.
type scriptDecoder struct {
	progress []int64
	entries  []*UnarchivedFile
	err      error
}

func (d *scriptDecoder) Decode(ctx context.Context, data []byte, sink Sink) error {
	for _, p := range d.progress {
		sink.Progress(p, "")
	}
	for i, f := range d.entries {
		sink.Progress(int64(i+1), f.Filename)
		sink.Extract(f)
	}
	return d.err
}

// blockingDecoder blocks until the run context is done
type blockingDecoder struct{}

func (d *blockingDecoder) Decode(ctx context.Context, data []byte, sink Sink) error {
	sink.Progress(1, "")
	<-ctx.Done()
	return ctx.Err()
}

// panicDecoder crashes mid-decode
type panicDecoder struct{}

func (d *panicDecoder) Decode(ctx context.Context, data []byte, sink Sink) error {
	sink.Extract(&UnarchivedFile{Filename: "a.txt", FileData: []byte("a")})
	panic("corrupted block table")
}

// recorder captures every dispatched event in order
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) HandleEvent(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func observeAll(u Unarchiver, l Listener) {
	for kind := KindStart; kind <= KindError; kind++ {
		u.AddEventListener(kind, l)
	}
}

func testOptions(t *testing.T) *Options {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)
	return opts
}

func runToDone(t *testing.T, u Unarchiver) {
	t.Helper()
	if err := u.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	select {
	case <-u.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not reach a terminal state")
	}
}

func TestRunEmitsStartThenExtractsThenFinish(t *testing.T) {
	dec := &scriptDecoder{
		entries: []*UnarchivedFile{
			{Filename: "a.txt", FileData: []byte("aaa")},
			{Filename: "b.txt", FileData: []byte("bbb")},
		},
	}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	observeAll(u, rec)
	runToDone(t, u)

	events := rec.all()
	if len(events) == 0 || events[0].Kind != KindStart {
		t.Fatalf("expected first event START, got %v", rec.kinds())
	}
	last := events[len(events)-1]
	if last.Kind != KindFinish {
		t.Fatalf("expected last event FINISH, got %v", rec.kinds())
	}
	if last.TotalFilesExtracted != 2 {
		t.Errorf("expected 2 files extracted, got %d", last.TotalFilesExtracted)
	}

	starts := 0
	var names []string
	for _, ev := range events {
		switch ev.Kind {
		case KindStart:
			starts++
		case KindExtract:
			names = append(names, ev.File.Filename)
		case KindError:
			t.Errorf("unexpected ERROR event: %s", ev.Message)
		}
	}
	if starts != 1 {
		t.Errorf("expected exactly one START, got %d", starts)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("unexpected extract order: %v", names)
	}

	if u.State() != StateFinished {
		t.Errorf("expected state FINISHED, got %s", u.State())
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	dec := &scriptDecoder{progress: []int64{10, 5, 20, 15}}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	u.AddEventListener(KindProgress, rec)
	runToDone(t, u)

	var prev int64 = -1
	for _, ev := range rec.all() {
		if ev.CurrentBytesProcessed < prev {
			t.Errorf("progress decreased: %d after %d", ev.CurrentBytesProcessed, prev)
		}
		prev = ev.CurrentBytesProcessed
	}
}

func TestRunTwiceFailsWithInvalidStateError(t *testing.T) {
	dec := &scriptDecoder{}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}
	runToDone(t, u)

	err = u.Run(context.Background())
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if ise.State != StateFinished {
		t.Errorf("expected error to carry FINISHED, got %s", ise.State)
	}
}

func TestRunTwiceWhileRunning(t *testing.T) {
	u, err := NewUnarchiver([]byte("archive"), &blockingDecoder{}, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}
	if err := u.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var ise *InvalidStateError
	if err := u.Run(context.Background()); !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	u.Cancel()
	<-u.Done()
}

func TestCancelStopsDispatch(t *testing.T) {
	entries := make([]*UnarchivedFile, 50)
	for i := range entries {
		entries[i] = &UnarchivedFile{Filename: "f", FileData: []byte("x")}
	}
	dec := &scriptDecoder{entries: entries}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	observeAll(u, rec)

	// Cancel from inside a listener: dispatch happens on the relay
	// goroutine, so nothing may be dispatched once this returns.
	u.AddEventListener(KindExtract, ListenerFunc(func(ev Event) {
		u.Cancel()
	}))
	runToDone(t, u)

	events := rec.all()
	extracts := 0
	for _, ev := range events {
		switch ev.Kind {
		case KindExtract:
			extracts++
		case KindFinish, KindError:
			t.Errorf("terminal event dispatched after cancel: %s", ev.Kind)
		}
	}
	if extracts != 1 {
		t.Errorf("expected dispatch to stop after 1 extract, got %d", extracts)
	}
	if u.State() != StateCancelled {
		t.Errorf("expected state CANCELLED, got %s", u.State())
	}
}

func TestCancelOutsideRunningIsNoop(t *testing.T) {
	dec := &scriptDecoder{}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	u.Cancel() // idle
	if u.State() != StateIdle {
		t.Errorf("cancel on idle changed state to %s", u.State())
	}

	runToDone(t, u)
	u.Cancel() // terminal
	if u.State() != StateFinished {
		t.Errorf("cancel on finished changed state to %s", u.State())
	}
}

func TestDecodeErrorBecomesErrorEvent(t *testing.T) {
	dec := &scriptDecoder{
		entries: []*UnarchivedFile{{Filename: "a.txt", FileData: []byte("a")}},
		err:     &DecodeError{Offset: 42, Err: errors.New("bad entry header")},
	}
	u, err := NewUnarchiver([]byte("archive"), dec, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	observeAll(u, rec)
	runToDone(t, u)

	events := rec.all()
	last := events[len(events)-1]
	if last.Kind != KindError {
		t.Fatalf("expected terminal ERROR, got %v", rec.kinds())
	}
	if last.Message == "" {
		t.Error("ERROR event has empty message")
	}
	if last.Offset != 42 {
		t.Errorf("expected offset 42, got %d", last.Offset)
	}
	for _, ev := range events {
		if ev.Kind == KindFinish {
			t.Error("FINISH dispatched on a failed run")
		}
	}
	if u.State() != StateFailed {
		t.Errorf("expected state FAILED, got %s", u.State())
	}
}

func TestDecoderPanicBecomesErrorEvent(t *testing.T) {
	u, err := NewUnarchiver([]byte("archive"), &panicDecoder{}, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	observeAll(u, rec)
	runToDone(t, u)

	events := rec.all()
	last := events[len(events)-1]
	if last.Kind != KindError {
		t.Fatalf("expected terminal ERROR, got %v", rec.kinds())
	}
	if !strings.Contains(last.Message, "panic") {
		t.Errorf("expected panic message, got %q", last.Message)
	}
	if last.Offset != -1 {
		t.Errorf("expected unknown offset -1, got %d", last.Offset)
	}
}

func TestContextDeadlineBecomesErrorEvent(t *testing.T) {
	u, err := NewUnarchiver([]byte("archive"), &blockingDecoder{}, "fake", testOptions(t))
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	rec := &recorder{}
	observeAll(u, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := u.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	select {
	case <-u.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not reach a terminal state")
	}

	events := rec.all()
	last := events[len(events)-1]
	if last.Kind != KindError {
		t.Fatalf("expected deadline to surface as ERROR, got %v", rec.kinds())
	}
	if u.State() != StateFailed {
		t.Errorf("expected state FAILED, got %s", u.State())
	}
}

func TestChecksumOption(t *testing.T) {
	content := []byte("checksummed content")
	dec := &scriptDecoder{
		entries: []*UnarchivedFile{{Filename: "a.txt", FileData: content}},
	}
	opts := testOptions(t)
	opts.Checksum = true

	u, err := NewUnarchiver([]byte("archive"), dec, "fake", opts)
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	c := NewCollector()
	c.Observe(u)
	runToDone(t, u)

	files := c.Files()
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	want := blake3.Sum256(content)
	if !bytes.Equal(files[0].Checksum, want[:]) {
		t.Errorf("checksum mismatch: got %x want %x", files[0].Checksum, want)
	}
}

func TestSkipFilter(t *testing.T) {
	dec := &scriptDecoder{
		entries: []*UnarchivedFile{
			{Filename: "keep.txt", FileData: []byte("k")},
			{Filename: "drop.log", FileData: []byte("d")},
		},
	}
	opts := testOptions(t)
	opts.Skip = func(name string) bool { return strings.HasSuffix(name, ".log") }

	u, err := NewUnarchiver([]byte("archive"), dec, "fake", opts)
	if err != nil {
		t.Fatalf("NewUnarchiver failed: %v", err)
	}

	c := NewCollector()
	c.Observe(u)
	runToDone(t, u)

	files := c.Files()
	if len(files) != 1 || files[0].Filename != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %v", files)
	}
	if c.TotalFilesExtracted() != 1 {
		t.Errorf("FINISH count should exclude skipped entries, got %d", c.TotalFilesExtracted())
	}
}

func TestNewUnarchiverValidation(t *testing.T) {
	if _, err := NewUnarchiver(nil, &scriptDecoder{}, "fake", nil); !errors.Is(err, ErrNilBuffer) {
		t.Errorf("expected ErrNilBuffer, got %v", err)
	}
	if _, err := NewUnarchiver([]byte("x"), nil, "fake", nil); !errors.Is(err, ErrNilDecoder) {
		t.Errorf("expected ErrNilDecoder, got %v", err)
	}
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	const runs = 8
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec := &scriptDecoder{
				entries: []*UnarchivedFile{{Filename: "a", FileData: []byte("a")}},
			}
			u, err := NewUnarchiver([]byte("archive"), dec, "fake", nil)
			if err != nil {
				t.Errorf("NewUnarchiver failed: %v", err)
				return
			}
			c := NewCollector()
			c.Observe(u)
			if err := u.Run(context.Background()); err != nil {
				t.Errorf("Run failed: %v", err)
				return
			}
			<-u.Done()
			if !c.Finished() || c.TotalFilesExtracted() != 1 {
				t.Errorf("run did not finish cleanly: finished=%v total=%d",
					c.Finished(), c.TotalFilesExtracted())
			}
		}()
	}
	wg.Wait()
}
