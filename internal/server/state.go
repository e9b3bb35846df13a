package server

import (
	"sync"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
)

// Phase is the document currently shown by the host.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseResult  Phase = "result"
	PhaseError   Phase = "error"
)

// State tracks what the host displays. It is fed by analyzer callbacks.
type State struct {
	mu     sync.RWMutex
	phase  Phase
	source gitctx.Source
	result *analysis.Result
	err    error
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Phase  Phase
	Source gitctx.Source
	Result *analysis.Result
	Err    error
}

// NewState creates an idle state.
func NewState() *State {
	return &State{phase: PhaseIdle, source: gitctx.AllChanges}
}

// Observer returns the analyzer callbacks that drive this state.
func (s *State) Observer() analysis.Observer {
	return analysis.Observer{
		OnPending: s.SetLoading,
		OnResult:  s.SetResult,
		OnError:   s.SetError,
	}
}

func (s *State) SetLoading(src gitctx.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseLoading
	s.source = src
	s.err = nil
}

func (s *State) SetResult(res *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseResult
	s.result = res
	s.source = res.Source
	s.err = nil
}

func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseError
	s.err = err
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Phase: s.phase, Source: s.source, Result: s.result, Err: s.err}
}
