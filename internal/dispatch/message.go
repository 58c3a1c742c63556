package dispatch

import (
	"github.com/canhld94/HeteroServing/internal/bell"
	"github.com/canhld94/HeteroServing/internal/model"
)

// ringKey is the only key ever used on a Message's Bell: each Message is
// a single-use rendezvous, so there is never more than one round-trip to
// disambiguate.
const ringKey bell.Key = 1

// Message is one detection request in flight between the front end
// goroutine that received it and the Worker that will run it through an
// InferenceEngine: a data buffer, a result slot the worker fills in, and
// a bell the submitting goroutine waits on.
type Message struct {
	Data []byte

	bell   *bell.Bell
	result model.Prediction
	err    error
}

// NewMessage builds a Message ready to be pushed onto a device's Queue.
func NewMessage(data []byte) *Message {
	return &Message{Data: data, bell: bell.New()}
}

// Wait blocks until a Worker has run this Message's request and rung its
// bell, then returns the prediction and error the Worker stored.
func (m *Message) Wait() (model.Prediction, error) {
	m.bell.Wait(ringKey)
	return m.result, m.err
}

// complete stores the outcome and rings the bell, waking the goroutine
// blocked in Wait. Called exactly once, by the Worker that popped m.
func (m *Message) complete(pred model.Prediction, err error) {
	m.result = pred
	m.err = err
	m.bell.Ring(ringKey)
}
