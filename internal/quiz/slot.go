package quiz

import (
	"sync"

	"github.com/jimmyBizMobile/SensAI/pkg/models"
)

// Slot holds at most one pending quiz. It is shared by the generation cycle,
// which fills it, and the answer path, which clears it.
type Slot struct {
	mu      sync.Mutex
	pending *models.PendingQuiz
}

// Set replaces the pending quiz.
func (s *Slot) Set(q models.PendingQuiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &q
}

// Get returns a copy of the pending quiz.
func (s *Slot) Get() (models.PendingQuiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return models.PendingQuiz{}, false
	}
	return *s.pending, true
}

// ClearIf empties the slot only if it still holds the quiz with id.
// A newer quiz posted while an answer was being graded stays pending.
func (s *Slot) ClearIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || s.pending.ID != id {
		return false
	}
	s.pending = nil
	return true
}

// Clear empties the slot unconditionally.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
