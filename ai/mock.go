package ai

import "context"

// MockService is a deterministic LLMService stand-in for pipeline-stage
// tests. Responses is consumed in order; one call to Chat pops one entry.
type MockService struct {
	Responses []string
	Err       error

	Calls [][]Message
}

// Chat implements LLMService.
func (m *MockService) Chat(ctx context.Context, messages []Message) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}
