package sim

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned for requests made against a closed Driver and
// for requests still pending when the Driver is torn down.
var ErrClosed = errors.New("sim: driver closed")

// Driver owns a Sim on a dedicated goroutine. All interaction happens
// through asynchronous request/response messages correlated by a
// monotonically increasing sequence number; callers never touch the
// Sim's state directly. There is no per-request cancellation: closing
// the driver invalidates every in-flight request at once.
type Driver struct {
	requests chan request
	exec     chan request
	replies  chan response
	quit     chan struct{}
	once     sync.Once
	seq      atomic.Uint64
}

type request struct {
	seq   uint64
	fn    func(*Sim) (any, error)
	reply chan response
}

type response struct {
	seq   uint64
	value any
	err   error
}

// NewDriver compiles nothing itself; it wraps an already compiled
// program in a fresh Sim running on its own goroutine.
func NewDriver(prog *Program) *Driver {
	d := &Driver{
		requests: make(chan request),
		exec:     make(chan request),
		replies:  make(chan response),
		quit:     make(chan struct{}),
	}
	go d.dispatch()
	go d.work(NewSim(prog))
	return d
}

// dispatch exclusively owns the pending-request map, so no locking is
// needed. It keeps accepting requests while the worker executes
// earlier ones, hands them over in arrival order, and matches each
// completion back to its caller by sequence number. Every map entry is
// removed exactly once, by its reply or by Close.
func (d *Driver) dispatch() {
	pending := make(map[uint64]chan response)
	var queue []request
	for {
		var exec chan request
		var next request
		if len(queue) > 0 {
			exec, next = d.exec, queue[0]
		}
		select {
		case <-d.quit:
			for seq, reply := range pending {
				reply <- response{seq: seq, err: ErrClosed}
			}
			return
		case req := <-d.requests:
			pending[req.seq] = req.reply
			queue = append(queue, req)
		case exec <- next:
			queue = queue[1:]
		case resp := <-d.replies:
			if reply, ok := pending[resp.seq]; ok {
				delete(pending, resp.seq)
				reply <- resp
			}
		}
	}
}

// work is the worker: it exclusively owns the Sim and executes one
// request at a time.
func (d *Driver) work(s *Sim) {
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.exec:
			value, err := req.fn(s)
			select {
			case d.replies <- response{seq: req.seq, value: value, err: err}:
			case <-d.quit:
				return
			}
		}
	}
}

// do submits one request and waits for its correlated reply.
func (d *Driver) do(ctx context.Context, fn func(*Sim) (any, error)) (any, error) {
	req := request{
		seq:   d.seq.Add(1),
		fn:    fn,
		reply: make(chan response, 1),
	}

	select {
	case d.requests <- req:
	case <-d.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.value, resp.err
	case <-d.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close tears down the worker. All still-pending requests fail with
// ErrClosed.
func (d *Driver) Close() {
	d.once.Do(func() { close(d.quit) })
}

// Reset re-runs the initial phase and clears saved results.
func (d *Driver) Reset(ctx context.Context) error {
	_, err := d.do(ctx, func(s *Sim) (any, error) {
		s.Reset()
		return nil, nil
	})
	return err
}

// RunTo integrates until simulation time reaches target.
func (d *Driver) RunTo(ctx context.Context, target float64) error {
	_, err := d.do(ctx, func(s *Sim) (any, error) {
		s.RunTo(target)
		return nil, nil
	})
	return err
}

// RunToEnd integrates to the spec's stop time.
func (d *Driver) RunToEnd(ctx context.Context) error {
	_, err := d.do(ctx, func(s *Sim) (any, error) {
		s.RunToEnd()
		return nil, nil
	})
	return err
}

// Time returns the current simulation time.
func (d *Driver) Time(ctx context.Context) (float64, error) {
	v, err := d.do(ctx, func(s *Sim) (any, error) {
		return s.Time(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// SetValue overrides a variable's current value.
func (d *Driver) SetValue(ctx context.Context, name string, value float64) error {
	_, err := d.do(ctx, func(s *Sim) (any, error) {
		return nil, s.SetValue(name, value)
	})
	return err
}

// Value returns the current value of each named variable.
func (d *Driver) Value(ctx context.Context, names ...string) (map[string]float64, error) {
	v, err := d.do(ctx, func(s *Sim) (any, error) {
		return s.Value(names...)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]float64), nil
}

// SeriesFor returns the saved series of each named variable.
func (d *Driver) SeriesFor(ctx context.Context, names ...string) (map[string]Series, error) {
	v, err := d.do(ctx, func(s *Sim) (any, error) {
		return s.SeriesFor(names...)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]Series), nil
}

// VarNames lists the simulated variables.
func (d *Driver) VarNames(ctx context.Context, includeHidden bool) ([]string, error) {
	v, err := d.do(ctx, func(s *Sim) (any, error) {
		return s.VarNames(includeHidden), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// WriteCSV exports all saved series joined on the time column.
func (d *Driver) WriteCSV(ctx context.Context, w io.Writer) error {
	_, err := d.do(ctx, func(s *Sim) (any, error) {
		return nil, s.WriteCSV(w)
	})
	return err
}
