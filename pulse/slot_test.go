package pulse

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tzmeta/errors"
)

func TestSlotStartsIdle(t *testing.T) {
	slot := NewSlot[int]("view-call")
	job := slot.Snapshot()
	assert.Equal(t, StateIdle, job.State)
	assert.Equal(t, uint64(0), job.Generation)
	assert.Nil(t, job.Result)
}

func TestJobLifecycle(t *testing.T) {
	slot := NewSlot[[]string]("token-enumeration")

	h := slot.Start()
	assert.Equal(t, uint64(1), h.Generation())
	assert.Equal(t, StateInProgress, slot.Snapshot().State)

	require.True(t, h.Log("calling all_tokens"))
	require.True(t, h.Logf("calling token_metadata for token %d", 0))
	require.True(t, h.Succeed([]string{"0"}))

	job := slot.Snapshot()
	assert.Equal(t, StateDone, job.State)
	assert.Equal(t, []string{"calling all_tokens", "calling token_metadata for token 0"}, job.Log)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Ok())
	assert.Equal(t, []string{"0"}, job.Result.Value)
	assert.NotNil(t, job.CompletedAt)

	// done is terminal for this generation
	assert.False(t, h.Log("late line"))
	assert.False(t, h.Fail(errors.New("late failure")))
	assert.True(t, h.Stale())
}

func TestFailRecordsMessage(t *testing.T) {
	slot := NewSlot[int]("view-call")
	h := slot.Start()
	require.True(t, h.Fail(errors.New("node unreachable")))

	job := slot.Snapshot()
	require.NotNil(t, job.Result)
	assert.False(t, job.Result.Ok())
	assert.Equal(t, "node unreachable", job.Result.Err)
}

// Job A is started, then job B replaces it. A's delayed result arrives after
// B has completed and must not overwrite B's outcome.
func TestStaleResultIsDiscarded(t *testing.T) {
	slot := NewSlot[string]("view-call")

	jobA := slot.Start()
	jobB := slot.Start()
	assert.True(t, jobA.Stale())
	assert.False(t, jobB.Stale())

	// B's visible state is a fresh InProgress with an empty log
	snap := slot.Snapshot()
	assert.Equal(t, StateInProgress, snap.State)
	assert.Equal(t, jobB.Generation(), snap.Generation)
	assert.Empty(t, snap.Log)

	require.True(t, jobB.Log("B running"))
	require.True(t, jobB.Succeed("B"))

	assert.False(t, jobA.Log("A running"))
	assert.False(t, jobA.Succeed("A"))

	final := slot.Snapshot()
	assert.Equal(t, jobB.Generation(), final.Generation)
	assert.Equal(t, "B", final.Result.Value)
	assert.Equal(t, []string{"B running"}, final.Log)
}

func TestStaleResultWhileNewJobRunning(t *testing.T) {
	slot := NewSlot[string]("view-call")
	jobA := slot.Start()
	jobB := slot.Start()

	assert.False(t, jobA.Fail(errors.New("A failed late")))
	snap := slot.Snapshot()
	assert.Equal(t, StateInProgress, snap.State)
	assert.Nil(t, snap.Result)

	require.True(t, jobB.Succeed("B"))
}

func TestSnapshotIsIsolatedFromWriter(t *testing.T) {
	slot := NewSlot[int]("view-call")
	h := slot.Start()
	h.Log("one")

	snap := slot.Snapshot()
	h.Log("two")
	snap.Log[0] = "mutated"

	assert.Equal(t, []string{"one", "two"}, slot.Snapshot().Log)
}

func TestSubscribeSeesAcceptedTransitionsOnly(t *testing.T) {
	slot := NewSlot[int]("view-call")

	var mu sync.Mutex
	var states []State
	unsubscribe := slot.Subscribe(func(j Job[int]) {
		mu.Lock()
		states = append(states, j.State)
		mu.Unlock()
	})

	old := slot.Start()
	h := slot.Start()
	old.Log("stale")
	h.Log("fresh")
	h.Succeed(7)

	unsubscribe()
	slot.Start()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateInProgress, StateInProgress, StateInProgress, StateDone}, states)
}

func TestFollowDeliversCurrentJobFirst(t *testing.T) {
	slot := NewSlot[int]("view-call")
	h := slot.Start()
	h.Log("before follow")

	var mu sync.Mutex
	var seen []Job[int]
	stop := slot.Follow(func(j Job[int]) {
		mu.Lock()
		seen = append(seen, j)
		mu.Unlock()
	})
	h.Succeed(1)
	stop()
	h.Log("after stop")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, StateInProgress, seen[0].State)
	assert.Equal(t, []string{"before follow"}, seen[0].Log)
	assert.Equal(t, StateDone, seen[1].State)
}

func TestConcurrentJobsOnSeparateSlots(t *testing.T) {
	views := NewSlot[int]("view-call")
	tokens := NewSlot[int]("token-enumeration")

	var wg sync.WaitGroup
	for _, s := range []*Slot[int]{views, tokens} {
		wg.Add(1)
		go func(s *Slot[int]) {
			defer wg.Done()
			h := s.Start()
			for i := 0; i < 50; i++ {
				h.Logf("step %d", i)
			}
			h.Succeed(50)
		}(s)
	}
	wg.Wait()

	for _, s := range []*Slot[int]{views, tokens} {
		job := s.Snapshot()
		assert.Len(t, job.Log, 50, s.Name())
		assert.Equal(t, 50, job.Result.Value)
	}
}

func TestJobJSON(t *testing.T) {
	slot := NewSlot[[]int]("token-enumeration")
	h := slot.Start()
	h.Log("calling all_tokens")
	h.Succeed([]int{0, 1})

	out, err := json.Marshal(slot.Snapshot())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "done", decoded["state"])
	assert.Equal(t, float64(1), decoded["generation"])
	assert.Equal(t, []interface{}{float64(0), float64(1)}, decoded["result"])
	assert.NotContains(t, decoded, "error")

	failed := NewSlot[[]int]("token-enumeration")
	failed.Start().Fail(errors.New("all_tokens failed"))
	out, err = json.Marshal(failed.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"error":"all_tokens failed"`)
	assert.NotContains(t, string(out), `"result"`)
}

func TestCollector(t *testing.T) {
	var c Collector
	var e ProgressEmitter = &c
	e.EmitInfo("a")
	e.EmitInfo("b")
	assert.Equal(t, []string{"a", "b"}, c.Lines)
	Discard.EmitInfo("ignored")
}
