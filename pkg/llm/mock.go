package llm

import (
	"context"
	"strings"
	"sync"
)

// MockProvider is a scriptable Provider for tests. Responses are matched by
// prompt substring, falling back to a default. Safe for concurrent use.
type MockProvider struct {
	mu sync.Mutex

	rules    []mockRule
	fallback string
	err      error

	Prompts []string // every prompt seen, in call order
}

type mockRule struct {
	substr   string
	response string
}

// NewMockProvider creates a mock that answers every prompt with fallback.
func NewMockProvider(fallback string) *MockProvider {
	return &MockProvider{fallback: fallback}
}

// Respond registers a canned response for prompts containing substr. Rules
// are checked in registration order.
func (m *MockProvider) Respond(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{substr: substr, response: response})
	return m
}

// Fail makes every subsequent call return err.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete implements Provider.
func (m *MockProvider) Complete(_ context.Context, prompt string, _ Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.rules {
		if strings.Contains(prompt, r.substr) {
			return r.response, nil
		}
	}
	return m.fallback, nil
}

// CallCount returns how many completions were requested.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
