// Package mocks provides testify mocks for the runner package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock implementing runner.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, command string) (string, string, error) {
	args := m.Called(ctx, command)
	return args.String(0), args.String(1), args.Error(2)
}
