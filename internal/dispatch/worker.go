package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/canhld94/HeteroServing/internal/apperr"
	"github.com/canhld94/HeteroServing/internal/engine"
	"github.com/canhld94/HeteroServing/internal/metrics"
	"github.com/canhld94/HeteroServing/internal/queue"
)

// Worker repeatedly pops a Message off its device's Queue, runs it
// through the InferenceEngine it owns, and rings the Message's bell. A
// Worker never exits on an engine error: RunDetection failures are
// reported through the Message's result, same as a successful detection,
// so one bad request can never starve the rest of the queue.
type Worker struct {
	Name    string
	Engine  engine.InferenceEngine
	Queue   *queue.Queue[*Message]
	Metrics *metrics.Metrics
	Log     *slog.Logger
}

// Run blocks serving msgs from Queue until the Queue is closed and
// drained. Only one goroutine may call Run for a given Worker; the
// singleton-accelerator device additionally requires that its one
// Worker's Run is the caller's own goroutine (see server.Server.Run).
func (w *Worker) Run(ctx context.Context) {
	device := string(w.Engine.Device())
	for {
		msg, ok := w.Queue.Pop()
		if !ok {
			return
		}
		if w.Metrics != nil {
			w.Metrics.ObserveDequeue(device, w.Queue.Size())
			w.Metrics.SetWorkerBusy(device, w.Name, true)
		}

		start := time.Now()
		pred, err := w.Engine.RunDetection(ctx, msg.Data)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			// The result slot still gets written (an empty prediction)
			// and the bell still gets rung below; the worker carries on
			// with the next message.
			pred = nil
		}

		if w.Metrics != nil {
			w.Metrics.ObserveResult(device, string(w.Engine.Model()), outcomeOf(err), elapsed)
			var de *apperr.DecodeError
			if errors.As(err, &de) {
				w.Metrics.ObserveDecodeFailure(device)
			}
			w.Metrics.SetWorkerBusy(device, w.Name, false)
		}
		if err != nil && w.Log != nil {
			w.Log.Warn("detection failed", "device", device, "worker", w.Name, "err", err)
		}

		msg.complete(pred, err)
	}
}

func outcomeOf(err error) string {
	var de *apperr.DecodeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &de):
		return "decode_error"
	default:
		return "inference_error"
	}
}
