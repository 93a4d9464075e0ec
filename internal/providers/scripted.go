package providers

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedLLM replays a fixed queue of completions in order. It is the
// LLM stand-in for tests and offline demos: each Complete call pops the
// next scripted reply and records the prompt it was asked.
type ScriptedLLM struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

// NewScriptedLLM builds a scripted client from the replies, in the
// order they will be served.
func NewScriptedLLM(replies ...string) *ScriptedLLM {
	return &ScriptedLLM{replies: replies}
}

// Push appends more replies to the end of the script.
func (s *ScriptedLLM) Push(replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Complete pops the next scripted reply. Running past the end of the
// script is an error so tests fail loudly instead of looping.
func (s *ScriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return "", fmt.Errorf("scripted llm exhausted after %d prompts", len(s.prompts))
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next, nil
}

// Prompts returns a copy of every prompt seen so far.
func (s *ScriptedLLM) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Remaining reports how many scripted replies are still queued.
func (s *ScriptedLLM) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}
