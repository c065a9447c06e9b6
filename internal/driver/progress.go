package driver

import "time"

// Stage describes a step of the per-file pipeline.
type Stage string

const (
	StageLoad    Stage = "load"
	StageParse   Stage = "parse" // tokenize + build + graph
	StageRules   Stage = "rules"
	StageFix     Stage = "fix"
	StageRecheck Stage = "recheck"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is currently in Stage.
	StatusWorking Status = "working"
	// StatusDone indicates the file is finished.
	StatusDone Status = "done"
	// StatusError indicates the file finished with error problems.
	StatusError Status = "error"
)

// Event reports progress for a file.
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Problems int
	Elapsed  time.Duration
}

// ProgressSink consumes progress events; it is called from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
