package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sendTimeout bounds a single delivery attempt. There are no retries --
// delivery reliability belongs to the SMTP server, not this process.
const sendTimeout = 30 * time.Second

// message is one queued email.
type message struct {
	to      string
	subject string
	body    string
}

// Dispatcher is the fire-and-forget executor between the account lifecycle
// and the SMTP sender: a bounded queue drained by worker goroutines.
// Enqueue never blocks the calling request and failures are logged, never
// surfaced. The response to the user therefore has no ordering relationship
// with the email leaving the process.
type Dispatcher struct {
	sender Sender
	queue  chan message
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher and starts its workers.
func NewDispatcher(sender Sender, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		sender: sender,
		queue:  make(chan message, queueSize),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Enqueue queues one email for background delivery. If the queue is full
// or the dispatcher already closed, the message is dropped with a log line;
// the caller is never blocked or failed.
func (d *Dispatcher) Enqueue(to, subject, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		slog.Warn("mail dropped, dispatcher closed", slog.String("subject", subject))
		return
	}

	select {
	case d.queue <- message{to: to, subject: subject, body: body}:
	default:
		slog.Warn("mail dropped, queue full", slog.String("subject", subject))
	}
}

// Close stops intake and waits for the workers to drain the queue. Called
// once at shutdown, after the HTTP server stopped producing work.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// worker drains the queue until it is closed.
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.sender.Send(ctx, msg.to, msg.subject, msg.body)
		cancel()

		if err != nil {
			// Swallowed at this boundary: the operation that queued the
			// mail already answered its caller.
			slog.Error("mail delivery failed",
				slog.String("subject", msg.subject),
				slog.Any("error", err),
			)
			continue
		}

		slog.Debug("mail delivered", slog.String("subject", msg.subject))
	}
}
