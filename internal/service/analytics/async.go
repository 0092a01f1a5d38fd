package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
)

const (
	DefaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

type entry struct {
	category string
	fields   Fields
	at       time.Time
}

// Async queues events for a single background worker that owns the Writer.
// Record drops events when the queue is full or the sink is closed.
type Async struct {
	writer Writer
	log    *logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan entry
	done   chan struct{}
}

// Option customises an Async sink.
type Option func(*Async)

// WithClock overrides the time source used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Async) { a.now = now }
}

// NewAsync starts the worker. A buffer <= 0 selects DefaultBuffer.
func NewAsync(w Writer, buffer int, log *logger.Logger, opts ...Option) *Async {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	a := &Async{
		writer: w,
		log:    logger.OrNop(log).With("service", "analytics"),
		now:    time.Now,
		queue:  make(chan entry, buffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Record enqueues the event and returns immediately.
func (a *Async) Record(category string, fields Fields) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		recordDropped(category)
		return
	}
	select {
	case a.queue <- entry{category: category, fields: fields, at: a.now()}:
	default:
		recordDropped(category)
	}
}

// Close stops accepting events, drains the queue and closes the Writer.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.writer.Close()
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		a.write(e)
	}
}

func (a *Async) write(e entry) {
	day, line, err := encode(e.fields, e.at)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = a.writer.Write(ctx, e.category, day, line)
		cancel()
	}
	if err != nil {
		a.log.Warn("analytics write failed", "category", e.category, "error", err)
		recordWrite(e.category, StatusError)
		return
	}
	recordWrite(e.category, StatusSuccess)
}
