package judge

import "context"

type mockGenerator struct {
	response string
	err      error
	calls    int

	lastSystem string
	lastUser   string
}

func (m *mockGenerator) GenerateContent(_ context.Context, system, user string) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	return m.response, m.err
}

func (m *mockGenerator) Model() string { return "test-model" }
