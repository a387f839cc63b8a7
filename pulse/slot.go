package pulse

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/tzmeta/logger"
)

// Slot owns the current Job for one purpose and its generation counter
type Slot[T any] struct {
	name string
	log  *zap.SugaredLogger

	mu         sync.Mutex
	job        Job[T]
	generation uint64
	observers  map[int]func(Job[T])
	nextID     int
}

// NewSlot creates an idle slot
func NewSlot[T any](name string) *Slot[T] {
	return &Slot[T]{
		name:      name,
		log:       logger.ComponentLogger("pulse").With(logger.FieldSlot, name),
		job:       Job[T]{State: StateIdle},
		observers: make(map[int]func(Job[T])),
	}
}

// Name returns the slot's purpose
func (s *Slot[T]) Name() string {
	return s.name
}

// Snapshot returns a copy of the current job
func (s *Slot[T]) Snapshot() Job[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job.snapshot()
}

// Start replaces whatever the slot holds with a fresh InProgress job and
// returns the handle the new job must report through. Handles from earlier
// generations stop having any effect.
func (s *Slot[T]) Start() *Handle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job.State == StateInProgress {
		s.log.Debugw("Superseding running job", logger.FieldGeneration, s.generation)
	}
	s.generation++
	s.job.begin(s.generation)
	s.notifyLocked()
	return &Handle[T]{slot: s, generation: s.generation}
}

// Subscribe registers fn to receive a snapshot after every accepted
// transition. fn runs with the slot locked and must not call back into it.
// The returned function removes the subscription.
func (s *Slot[T]) Subscribe(fn func(Job[T])) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Follow is Subscribe, except fn first receives the current job. The
// delivery and the registration happen under one lock, so fn sees every
// transition after that snapshot and none before it.
func (s *Slot[T]) Follow(fn func(Job[T])) func() {
	s.mu.Lock()
	fn(s.job.snapshot())
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Slot[T]) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.job.snapshot()
	for _, fn := range s.observers {
		fn(snap)
	}
}

// apply runs mutate if generation is still current. It reports whether the
// update was accepted.
func (s *Slot[T]) apply(generation uint64, mutate func(*Job[T])) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.job.State != StateInProgress {
		s.log.Debugw("Dropping stale job update",
			logger.FieldGeneration, generation,
			"current_generation", s.generation,
		)
		return false
	}
	mutate(&s.job)
	s.notifyLocked()
	return true
}

// Handle is a running job's only way to touch its slot
type Handle[T any] struct {
	slot       *Slot[T]
	generation uint64
}

// Generation identifies the job this handle belongs to
func (h *Handle[T]) Generation() uint64 {
	return h.generation
}

// Stale reports whether a newer job has replaced this one or it already finished
func (h *Handle[T]) Stale() bool {
	h.slot.mu.Lock()
	defer h.slot.mu.Unlock()
	return h.generation != h.slot.generation || h.slot.job.State != StateInProgress
}

// Log appends a progress line. Returns false if the handle is stale.
func (h *Handle[T]) Log(line string) bool {
	return h.slot.apply(h.generation, func(j *Job[T]) { j.appendLog(line) })
}

// Logf is Log with formatting
func (h *Handle[T]) Logf(format string, args ...interface{}) bool {
	return h.Log(fmt.Sprintf(format, args...))
}

// EmitInfo makes a Handle usable as a ProgressEmitter
func (h *Handle[T]) EmitInfo(message string) {
	h.Log(message)
}

// Succeed finishes the job with value. Returns false if the handle is stale.
func (h *Handle[T]) Succeed(value T) bool {
	return h.slot.apply(h.generation, func(j *Job[T]) { j.finish(Result[T]{Value: value}) })
}

// Fail finishes the job with err's message. Returns false if the handle is stale.
func (h *Handle[T]) Fail(err error) bool {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return h.slot.apply(h.generation, func(j *Job[T]) { j.finish(Result[T]{Err: msg}) })
}
