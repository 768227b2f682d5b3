package core

import (
	"sync"
	"time"
)

// Session represents one task execution. It owns the ordered transcript, the
// per-agent quota map, the visited-agent multiset and the terminal result.
// It is safe for concurrent access, although the orchestration loop runs a
// session strictly sequentially (single active agent at a time).
//
// Contract:
//   - Mutations update the Updated timestamp
//   - Transcript returns a copy, callers cannot mutate internal state
//   - Quota entries are created lazily on first access
//   - Terminal state is absorbing: SetResult is a no-op once set
type Session struct {
	ID      string
	Task    string
	Created time.Time
	Updated time.Time

	mu         sync.RWMutex
	transcript []Entry
	quotas     map[string]*Quota
	visited    map[string]int
	hops       int
	active     string
	state      map[string]any
	result     *Result
}

// NewSession creates a new session for the given task.
func NewSession(id, task string) *Session {
	now := time.Now()
	return &Session{
		ID:      id,
		Task:    task,
		Created: now,
		Updated: now,
		quotas:  map[string]*Quota{},
		visited: map[string]int{},
		state:   map[string]any{},
	}
}

// Append adds an entry to the transcript.
func (s *Session) Append(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, e)
	s.Updated = time.Now()
}

// Transcript returns a copy of the full transcript to prevent callers from
// mutating internal state.
func (s *Session) Transcript() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Quota returns the live quota for agentName, creating it lazily.
func (s *Session) Quota(agentName string) *Quota {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotas[agentName]
	if !ok {
		q = NewQuota()
		s.quotas[agentName] = q
	}
	return q
}

// Visit marks agentName as the active agent and bumps its visit count.
func (s *Session) Visit(agentName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = agentName
	s.visited[agentName]++
	s.Updated = time.Now()
}

// VisitCount returns how many times agentName has been invoked this session.
func (s *Session) VisitCount(agentName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visited[agentName]
}

// Active returns the name of the currently executing agent.
func (s *Session) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Hops returns the number of agent-to-agent transitions so far.
func (s *Session) Hops() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hops
}

// AddHop records one agent-to-agent transition.
func (s *Session) AddHop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hops++
	s.Updated = time.Now()
}

// GetState returns the value and existence flag for a shared state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// SetState sets a key/value pair in the session's shared state.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
	s.Updated = time.Now()
}

// StateSnapshot returns a shallow copy of the shared state map.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// Terminal reports whether the session reached an absorbing state.
func (s *Session) Terminal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

// SetResult records the terminal result. The first result wins; terminal
// states are absorbing.
func (s *Session) SetResult(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return
	}
	s.result = &r
	s.Updated = time.Now()
}

// Result returns the terminal result, or nil while the session is running.
func (s *Session) Result() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := &Session{
		ID:      s.ID,
		Task:    s.Task,
		Created: s.Created,
		Updated: s.Updated,
		quotas:  make(map[string]*Quota, len(s.quotas)),
		visited: make(map[string]int, len(s.visited)),
		state:   make(map[string]any, len(s.state)),
		hops:    s.hops,
		active:  s.active,
	}
	c.transcript = make([]Entry, len(s.transcript))
	copy(c.transcript, s.transcript)
	for k, v := range s.quotas {
		c.quotas[k] = v.clone()
	}
	for k, v := range s.visited {
		c.visited[k] = v
	}
	for k, v := range s.state {
		c.state[k] = v
	}
	if s.result != nil {
		r := *s.result
		c.result = &r
	}
	return c
}

// SessionStore persists sessions and their evolving transcript.
type SessionStore interface {
	Create(id, task string) (*Session, error)
	Get(id string) (*Session, error)
	Save(s *Session) error
}
