package server

import (
	"sync"

	"github.com/google/uuid"
)

// SessionInfo describes a connected session for monitoring.
type SessionInfo struct {
	ID         uuid.UUID
	Addr       string
	SourceLang string
	TargetLang string
}

// SessionList tracks the currently connected sessions.
type SessionList struct {
	sessions map[uuid.UUID]*SessionInfo
	mu       sync.RWMutex
}

func NewSessionList() *SessionList {
	return &SessionList{
		sessions: make(map[uuid.UUID]*SessionInfo),
	}
}

func (sl *SessionList) Add(info *SessionInfo) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.sessions[info.ID] = info
}

func (sl *SessionList) Remove(id uuid.UUID) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	delete(sl.sessions, id)
}

func (sl *SessionList) Get(id uuid.UUID) (*SessionInfo, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	info, ok := sl.sessions[id]
	return info, ok
}

func (sl *SessionList) Len() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return len(sl.sessions)
}
