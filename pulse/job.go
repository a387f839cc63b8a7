// Package pulse tracks user-initiated background work.
//
// A Slot holds the one Job occupying a purpose ("current view call",
// "current token enumeration"). Starting a new job replaces the slot's state
// wholesale and bumps its generation; anything the superseded job reports
// afterwards is recognised as stale and dropped.
package pulse

import (
	"encoding/json"
	"time"
)

// State is the lifecycle position of a Job
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
)

// Result is the terminal outcome of a job: a value, or an error message
type Result[T any] struct {
	Value T
	Err   string
}

// Ok reports whether the job succeeded
func (r Result[T]) Ok() bool {
	return r.Err == ""
}

// Job is a snapshot of one slot's state.
//
//	Idle                nothing started yet
//	InProgress(Log)     running; Log grows append-only
//	Done(Result)        finished; Log keeps the lines emitted while running
type Job[T any] struct {
	State       State
	Generation  uint64
	Log         []string
	Result      *Result[T]
	StartedAt   *time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// begin moves the job to InProgress with an empty log
func (j *Job[T]) begin(generation uint64) {
	now := time.Now()
	*j = Job[T]{
		State:      StateInProgress,
		Generation: generation,
		Log:        []string{},
		StartedAt:  &now,
		UpdatedAt:  now,
	}
}

// appendLog adds a progress line
func (j *Job[T]) appendLog(line string) {
	j.Log = append(j.Log, line)
	j.UpdatedAt = time.Now()
}

// finish moves the job to Done
func (j *Job[T]) finish(result Result[T]) {
	now := time.Now()
	j.State = StateDone
	j.Result = &result
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// snapshot copies the log so readers never share the writer's backing array
func (j Job[T]) snapshot() Job[T] {
	out := j
	if j.Log != nil {
		out.Log = append([]string(nil), j.Log...)
	}
	return out
}

// IsDone reports whether the job reached its terminal state
func (j Job[T]) IsDone() bool {
	return j.State == StateDone
}

// MarshalJSON renders {state, generation, log, result|error, timestamps}
func (j Job[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		State       State      `json:"state"`
		Generation  uint64     `json:"generation"`
		Log         []string   `json:"log,omitempty"`
		Result      *T         `json:"result,omitempty"`
		Error       string     `json:"error,omitempty"`
		StartedAt   *time.Time `json:"started_at,omitempty"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}{
		State:       j.State,
		Generation:  j.Generation,
		Log:         j.Log,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.Result != nil {
		if j.Result.Ok() {
			v := j.Result.Value
			out.Result = &v
		} else {
			out.Error = j.Result.Err
		}
	}
	return json.Marshal(out)
}
