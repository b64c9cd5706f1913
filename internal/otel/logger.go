package otel

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds events waiting for the writer. Emit drops beyond it.
const queueSize = 1024

// Logger writes events as JSONL from a single background goroutine, so Emit
// never blocks on disk. A nil *Logger discards everything.
type Logger struct {
	queue   chan Event
	done    chan struct{}
	session string

	out   io.Writer  // fixed destination, nil when files is set
	files *dailyFile // rotating destination created by Open

	ringMu sync.Mutex
	ring   *RingBuffer

	dropped atomic.Uint64
	closed  atomic.Bool
	stop    sync.Once
}

// NewLogger writes events to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	return start(&Logger{out: w})
}

// Open writes events under dataDir/events, one events-YYYY-MM-DD.jsonl file
// per local day of the event time.
func Open(dataDir string) (*Logger, error) {
	dir := filepath.Join(dataDir, "events")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create event directory: %w", err)
	}
	files := &dailyFile{dir: dir}
	// Fail early if the directory is not writable.
	if _, err := files.writerFor(time.Now()); err != nil {
		return nil, err
	}
	return start(&Logger{files: files}), nil
}

// NewNullLogger discards events but still feeds an attached ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func start(l *Logger) *Logger {
	var id [8]byte
	_, _ = rand.Read(id[:])
	l.session = hex.EncodeToString(id[:])
	l.queue = make(chan Event, queueSize)
	l.done = make(chan struct{})
	go l.run()
	return l
}

// run is the only goroutine touching the destination.
func (l *Logger) run() {
	defer close(l.done)
	var buf *bufio.Writer
	var bufTarget io.Writer

	flush := func() {
		if buf != nil && buf.Flush() != nil {
			l.dropped.Add(1)
		}
	}

	for e := range l.queue {
		if ring := l.ringBuffer(); ring != nil {
			ring.Push(e)
		}

		target := l.out
		if l.files != nil {
			if !l.files.holds(e.Time) {
				flush()
			}
			w, err := l.files.writerFor(e.Time)
			if err != nil {
				l.dropped.Add(1)
				continue
			}
			target = w
		}
		if target != bufTarget {
			flush()
			buf = bufio.NewWriter(target)
			bufTarget = target
		}

		line, err := json.Marshal(e)
		if err != nil {
			l.dropped.Add(1)
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')

		// Flush whenever the queue drains so the file trails by at most one burst.
		if len(l.queue) == 0 {
			flush()
		}
	}
	flush()
	if l.files != nil {
		l.files.close()
	}
}

func (l *Logger) ringBuffer() *RingBuffer {
	l.ringMu.Lock()
	defer l.ringMu.Unlock()
	return l.ring
}

// Emit queues e, stamping Time (if zero) and the session id. When the queue
// is full or the logger is closed the event is counted as dropped.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	// Close may race the send; a send on the closed queue counts as a drop.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	select {
	case l.queue <- e.clone():
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info event with a message.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn event with a message.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event. A nil err leaves Err empty.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors every written event into ring. Nil detaches it.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	if l == nil {
		return
	}
	l.ringMu.Lock()
	l.ring = ring
	l.ringMu.Unlock()
}

// Session is the random id stamped on every event of this run.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Dropped counts events lost to a full queue, a closed logger, or a write failure.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close writes everything queued and stops the writer. It is idempotent.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.stop.Do(func() {
		l.closed.Store(true)
		close(l.queue)
		<-l.done
		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "hotspot: %d events dropped in session %s\n", n, l.session)
		}
	})
}

// dailyFile appends to one file per calendar day. Only the writer goroutine
// uses it after Open returns.
type dailyFile struct {
	dir  string
	day  string
	file *os.File
}

func (d *dailyFile) holds(t time.Time) bool {
	return d.file != nil && d.day == t.Format("2006-01-02")
}

func (d *dailyFile) writerFor(t time.Time) (io.Writer, error) {
	if d.holds(t) {
		return d.file, nil
	}
	day := t.Format("2006-01-02")
	f, err := os.OpenFile(filepath.Join(d.dir, "events-"+day+".jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	d.close()
	d.file, d.day = f, day
	return f, nil
}

func (d *dailyFile) close() {
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}
}
