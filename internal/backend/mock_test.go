package backend

import (
	"context"
	"io"
	"sync"

	"rfamscan/internal/proc"
)

// MockExecutor implements proc.Executor for testing
type MockExecutor struct {
	mu sync.Mutex

	// Calls records every spec passed to Run
	Calls []proc.Spec

	// Stdins holds what each call read from its Stdin
	Stdins []string

	// Stdout is returned as Result.Stdout
	Stdout string

	// Error injection
	RunErr   error
	ExitCode int

	// Custom behavior
	RunFunc func(spec proc.Spec) (proc.Result, error)
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

func (m *MockExecutor) Run(ctx context.Context, spec proc.Spec) (proc.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, spec)
	stdin := ""
	if spec.Stdin != nil {
		data, _ := io.ReadAll(spec.Stdin)
		stdin = string(data)
	}
	m.Stdins = append(m.Stdins, stdin)

	if m.RunFunc != nil {
		return m.RunFunc(spec)
	}
	return proc.Result{ExitCode: m.ExitCode, Stdout: m.Stdout}, m.RunErr
}
