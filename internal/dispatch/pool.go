package dispatch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/metrics"
	"github.com/canhld94/HeteroServing/internal/model"
	"github.com/canhld94/HeteroServing/internal/queue"
)

// ErrShuttingDown is returned by Submit once the pool's queue has been
// closed: the request was never accepted, so no bell will ring for it.
var ErrShuttingDown = apperr.NewIOError(errors.New("worker pool shutting down"))

// Pool owns one device's Queue and the set of Workers draining it. CPU
// and GPU engines may run several Workers concurrently against the same
// queue; the FPGA's singleton accelerator constraint limits its Pool to
// exactly one Worker, enforced by Server at construction time rather
// than by Pool itself.
type Pool struct {
	Device  engine.Device
	Queue   *queue.Queue[*Message]
	Metrics *metrics.Metrics
	workers []*Worker
}

// NewPool builds a Pool with one Worker per engine in engines, all
// draining the same Queue. Workers are not started; the Dispatcher
// decides which run on background goroutines and which (the singleton
// accelerator's) is handed back to run on the caller's goroutine.
func NewPool(device engine.Device, engines []engine.InferenceEngine, m *metrics.Metrics, log *slog.Logger) *Pool {
	q := queue.New[*Message]()
	p := &Pool{Device: device, Queue: q, Metrics: m}
	for i, e := range engines {
		p.workers = append(p.workers, &Worker{
			Name:    fmt.Sprintf("%s-%d", device, i),
			Engine:  e,
			Queue:   q,
			Metrics: m,
			Log:     log,
		})
	}
	return p
}

// Workers returns the pool's workers in construction order.
func (p *Pool) Workers() []*Worker { return p.workers }

// Close closes the pool's queue: Submit starts failing fast and every
// worker exits once the queue drains.
func (p *Pool) Close() { p.Queue.Close() }

// Submit enqueues data for detection and blocks until a Worker has
// produced a result.
func (p *Pool) Submit(data []byte) (model.Prediction, error) {
	msg := NewMessage(data)
	if !p.Queue.Push(msg) {
		return nil, ErrShuttingDown
	}
	if p.Metrics != nil {
		p.Metrics.ObserveEnqueue(string(p.Device), p.Queue.Size())
	}
	return msg.Wait()
}
