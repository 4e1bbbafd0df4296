package main

import (
	"sync"

	"github.com/meikuraledutech/canvas"
	"github.com/meikuraledutech/canvas/editor"
)

// sessions holds one editor per open project.
type sessions struct {
	mu   sync.RWMutex
	open map[string]*editor.Editor
	opts []editor.Option
}

func newSessions(opts ...editor.Option) *sessions {
	return &sessions{open: make(map[string]*editor.Editor), opts: opts}
}

func (s *sessions) get(projectID string) (*editor.Editor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.open[projectID]
	return e, ok
}

// start opens a fresh editor on g, replacing any session already open for
// the project.
func (s *sessions) start(projectID string, g canvas.Graph) (*editor.Editor, error) {
	e := editor.New(s.opts...)
	if err := e.Load(g); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.open[projectID] = e
	s.mu.Unlock()
	return e, nil
}

func (s *sessions) close(projectID string) {
	s.mu.Lock()
	delete(s.open, projectID)
	s.mu.Unlock()
}
