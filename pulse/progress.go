package pulse

// ProgressEmitter receives human readable progress lines from long-running
// operations. It is a side channel: nothing emitted here is part of a result.
type ProgressEmitter interface {
	EmitInfo(message string)
}

// EmitterFunc adapts a function to ProgressEmitter
type EmitterFunc func(message string)

func (f EmitterFunc) EmitInfo(message string) {
	f(message)
}

// Discard drops every line
var Discard ProgressEmitter = EmitterFunc(func(string) {})

// Collector keeps every line in order; handy for tests and CLI summaries
type Collector struct {
	Lines []string
}

func (c *Collector) EmitInfo(message string) {
	c.Lines = append(c.Lines, message)
}

// JobBroadcaster pushes job snapshots to connected clients. The job is
// passed as interface{} so slots of any result type can share one broadcaster.
type JobBroadcaster interface {
	BroadcastJobUpdate(slot string, job interface{})
}
