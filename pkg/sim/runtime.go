package sim

import (
	"fmt"
	"math"
)

// Sim executes a compiled Program by fixed-step Euler integration.
// A Sim is not safe for concurrent use; wrap it in a Driver to share
// it across goroutines.
type Sim struct {
	prog *Program
	dt   float64

	curr []float64
	next []float64

	stepNum   int
	saveEvery int
	lastSaved int
	saved     []savedRow
}

type savedRow struct {
	time  float64
	slots []float64
}

// Series is one variable's saved result series.
type Series struct {
	Time   []float64
	Values []float64
}

// NewSim creates a simulation for a compiled program and resets it.
func NewSim(prog *Program) *Sim {
	dt := prog.Spec.ActualDT()
	saveEvery := int(math.Round(prog.Spec.ActualSaveStep() / dt))
	if saveEvery < 1 {
		saveEvery = 1
	}
	s := &Sim{prog: prog, dt: dt, saveEvery: saveEvery}
	s.Reset()
	return s
}

// Reset re-runs the initial calculation phase and discards any saved
// results.
func (s *Sim) Reset() {
	s.curr = make([]float64, s.prog.size)
	s.next = make([]float64, s.prog.size)
	s.curr[timeOff] = s.prog.Spec.Start
	s.stepNum = 0
	s.lastSaved = -1
	s.saved = nil

	for _, st := range s.prog.initials {
		a := st.(assignStmt)
		s.curr[a.off] = eval(a.expr, s.curr, s.dt)
	}
}

// Time returns the current simulation time.
func (s *Sim) Time() float64 {
	return s.curr[timeOff]
}

// RunTo integrates until simulation time reaches target, saving
// results on each save-step boundary the run crosses. A target off the
// save grid ends the run without saving a final partial row.
func (s *Sim) RunTo(target float64) {
	// Half-step tolerance keeps accumulated float error from dropping
	// or duplicating the final step.
	for s.curr[timeOff]+s.dt <= target+s.dt/2 {
		s.calcFlows()
		s.saveIfDue()
		s.calcStocks()
		s.curr, s.next = s.next, s.curr
		s.stepNum++
	}
	s.calcFlows()
	s.saveIfDue()
}

// RunToEnd integrates to the spec's stop time.
func (s *Sim) RunToEnd() {
	s.RunTo(s.prog.Spec.Stop)
}

// calcFlows evaluates the flow-phase run list into the current state.
func (s *Sim) calcFlows() {
	for _, st := range s.prog.flows {
		a := st.(assignStmt)
		s.curr[a.off] = eval(a.expr, s.curr, s.dt)
	}
}

// calcStocks integrates every stock into the next state. Slots not
// written this phase carry their current values forward.
func (s *Sim) calcStocks() {
	copy(s.next, s.curr)
	for _, st := range s.prog.stocks {
		u := st.(stockStmt)
		var delta float64
		for _, off := range u.inflows {
			delta += s.curr[off]
		}
		for _, off := range u.outflows {
			delta -= s.curr[off]
		}
		s.next[u.off] = s.curr[u.off] + delta*s.dt
	}
	s.next[timeOff] = s.curr[timeOff] + s.dt
}

// saveIfDue snapshots the current state on save-step boundaries.
func (s *Sim) saveIfDue() {
	if s.stepNum%s.saveEvery != 0 || s.stepNum == s.lastSaved {
		return
	}
	slots := make([]float64, len(s.curr))
	copy(slots, s.curr)
	s.saved = append(s.saved, savedRow{time: s.curr[timeOff], slots: slots})
	s.lastSaved = s.stepNum
}

// SetValue overrides a variable's current value by name.
func (s *Sim) SetValue(name string, value float64) error {
	off, ok := s.prog.Offset(name)
	if !ok {
		return fmt.Errorf("sim: unknown variable %q", name)
	}
	s.curr[off] = value
	return nil
}

// Value returns the current value of each named variable.
func (s *Sim) Value(names ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		off, ok := s.prog.Offset(name)
		if !ok {
			return nil, fmt.Errorf("sim: unknown variable %q", name)
		}
		out[name] = s.curr[off]
	}
	return out, nil
}

// SeriesFor returns the saved result series of each named variable.
func (s *Sim) SeriesFor(names ...string) (map[string]Series, error) {
	out := make(map[string]Series, len(names))
	for _, name := range names {
		off, ok := s.prog.Offset(name)
		if !ok {
			return nil, fmt.Errorf("sim: unknown variable %q", name)
		}
		series := Series{
			Time:   make([]float64, len(s.saved)),
			Values: make([]float64, len(s.saved)),
		}
		for i, row := range s.saved {
			series.Time[i] = row.time
			series.Values[i] = row.slots[off]
		}
		out[name] = series
	}
	return out, nil
}

// VarNames lists the simulated variables; see Program.VarNames.
func (s *Sim) VarNames(includeHidden bool) []string {
	return s.prog.VarNames(includeHidden)
}
