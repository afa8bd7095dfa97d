package remote

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/shard/internal/project"
)

// TaskOp identifies an outbox task kind.
type TaskOp string

const (
	TaskUpsert TaskOp = "upsert"
	TaskDelete TaskOp = "delete"
)

// Task is one scheduled remote operation.
type Task struct {
	Op       TaskOp
	Identity string
	Project  project.Project // upsert payload
	ID       string          // delete target
}

const (
	outboxBuffer = 256
	taskTimeout  = 10 * time.Second
)

// Outbox drains scheduled remote operations on a background worker. Local
// history is always the immediately-consistent source of truth: a task may
// complete later or fail without blocking or reverting local state. Failures
// are logged only; there is no retry.
type Outbox struct {
	client Client
	logger *slog.Logger

	tasks chan Task
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewOutbox starts the worker. logger may be nil.
func NewOutbox(client Client, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Outbox{
		client: client,
		logger: logger,
		tasks:  make(chan Task, outboxBuffer),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

// EnqueueUpsert schedules a remote upsert. Never blocks: when the buffer is
// full the task is dropped and logged, matching the no-retry policy.
func (o *Outbox) EnqueueUpsert(identity string, p project.Project) {
	o.enqueue(Task{Op: TaskUpsert, Identity: identity, Project: p, ID: p.ID})
}

// EnqueueDelete schedules a remote deletion.
func (o *Outbox) EnqueueDelete(identity, projectID string) {
	o.enqueue(Task{Op: TaskDelete, Identity: identity, ID: projectID})
}

// Close stops accepting tasks, drains everything already enqueued, and waits
// for the worker to finish.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.tasks)
	o.mu.Unlock()

	o.wg.Wait()
}

func (o *Outbox) enqueue(t Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		o.logger.Warn("outbox closed, dropping task",
			slog.String("op", string(t.Op)), slog.String("id", t.ID))
		return
	}
	select {
	case o.tasks <- t:
	default:
		o.logger.Warn("outbox full, dropping task",
			slog.String("op", string(t.Op)), slog.String("id", t.ID))
	}
}

func (o *Outbox) run() {
	defer o.wg.Done()

	for t := range o.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		var err error
		switch t.Op {
		case TaskUpsert:
			err = o.client.Upsert(ctx, t.Identity, t.Project)
		case TaskDelete:
			err = o.client.Delete(ctx, t.Identity, t.ID)
		}
		cancel()

		if err != nil {
			o.logger.Error("remote task failed",
				slog.String("op", string(t.Op)),
				slog.String("id", t.ID),
				slog.String("error", err.Error()))
		}
	}
}
