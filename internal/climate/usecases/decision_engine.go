package usecases

import (
	"sync"
	"time"

	"thermostat-server/internal/climate/domain"
)

// Decision is the outcome of one evaluation cycle.
type Decision struct {
	Mode     domain.Mode
	Previous domain.Mode
	// Transition is set when the actuator has to be driven into Mode.
	Transition bool
	// Due reports that the dwell of the previous mode had expired and the
	// policy was applied.
	Due bool
	// Held reports that the policy asked for a different mode while the
	// current one was still within its dwell.
	Held bool
	// Idle is set when there was no data to decide on.
	Idle bool
	Hold time.Duration
	At   time.Time
}

type EngineState struct {
	Mode           domain.Mode `json:"mode"`
	Desired        domain.Mode `json:"desired"`
	EnteredAt      time.Time   `json:"entered_at"`
	NextEvaluation time.Time   `json:"next_evaluation"`
	Armed          bool        `json:"armed"`
	Transitions    int         `json:"transitions"`
	ObservedAt     time.Time   `json:"observed_at"`
	Synced         bool        `json:"synced"`
}

func NewDecisionEngine(thresholds domain.Thresholds, dwell domain.DwellTimes) *DecisionEngine {
	return &DecisionEngine{
		thresholds: thresholds,
		dwell:      dwell,
		mode:       domain.ModeOff,
		desired:    domain.ModeOff,
		synced:     true,
	}
}

// DecisionEngine is the hysteresis state machine. Its only mutable state is
// the asserted mode and when it was entered; dwell is enforced by comparing
// timestamps, never by sleeping. After a failed actuator write the engine is
// unsynced and the next due evaluation drives the actuator even when the
// desired mode equals the recorded one.
type DecisionEngine struct {
	mu          sync.Mutex
	thresholds  domain.Thresholds
	dwell       domain.DwellTimes
	mode        domain.Mode
	desired     domain.Mode
	enteredAt   time.Time
	nextEval    time.Time
	armed       bool
	transitions int
	observedAt  time.Time
	synced      bool
}

var _ ModeSource = (*DecisionEngine)(nil)

// Evaluate applies the policy to snapshot. It never changes the asserted mode;
// a returned transition takes effect only once passed to Commit.
func (e *DecisionEngine) Evaluate(now time.Time, snapshot domain.AggregateSnapshot) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := Decision{Mode: e.mode, Previous: e.mode, At: now}
	if snapshot.IsZero() {
		d.Idle = true
		return d
	}

	desired := e.observe(now, snapshot)
	if e.armed && now.Before(e.nextEval) {
		d.Held = desired != e.mode
		d.Hold = e.nextEval.Sub(now)
		return d
	}

	d.Due = true
	d.Mode = desired
	d.Transition = desired != e.mode || !e.synced
	d.Hold = e.dwell.For(desired)
	return d
}

// Observe records the policy outcome for snapshot without deciding anything.
func (e *DecisionEngine) Observe(now time.Time, snapshot domain.AggregateSnapshot) domain.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if snapshot.IsZero() {
		return e.desired
	}
	return e.observe(now, snapshot)
}

func (e *DecisionEngine) observe(now time.Time, snapshot domain.AggregateSnapshot) domain.Mode {
	e.desired = domain.SelectMode(snapshot, e.thresholds)
	e.observedAt = now
	return e.desired
}

// Force builds a transition into mode that ignores the current dwell.
func (e *DecisionEngine) Force(now time.Time, mode domain.Mode) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Decision{
		Mode:       mode,
		Previous:   e.mode,
		Transition: mode != e.mode || !e.synced,
		Due:        true,
		Hold:       e.dwell.For(mode),
		At:         now,
	}
}

// Commit records that the actuator now is in d.Mode and starts its dwell.
// Decisions without a transition are ignored.
func (e *DecisionEngine) Commit(d Decision) {
	if !d.Transition {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = d.Mode
	e.enteredAt = d.At
	e.nextEval = d.At.Add(d.Hold)
	e.armed = true
	e.synced = true
	if d.Mode != d.Previous {
		e.transitions++
	}
}

// Desync records that the actuator may no longer match the recorded mode.
func (e *DecisionEngine) Desync() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.synced = false
}

func (e *DecisionEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineState{
		Mode:           e.mode,
		Desired:        e.desired,
		EnteredAt:      e.enteredAt,
		NextEvaluation: e.nextEval,
		Armed:          e.armed,
		Transitions:    e.transitions,
		ObservedAt:     e.observedAt,
		Synced:         e.synced,
	}
}
