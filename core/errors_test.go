package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewExecutorError("sandbox", CodeSandboxError, cause)

	assert.Equal(t, "executor error [SANDBOX_ERROR] in sandbox: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("dispatch: %w", err)
	got, ok := AsExecutorError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "sandbox", got.Agent)

	_, ok = AsExecutorError(errors.New("plain"))
	assert.False(t, ok)
}

func TestExecutorError_NoCode(t *testing.T) {
	err := &ExecutorError{Agent: "a", Message: "bad"}
	assert.Equal(t, "executor error in a: bad", err.Error())
}

type describedAgent struct{}

func (describedAgent) Name() string        { return "d" }
func (describedAgent) Description() string { return "described" }
func (describedAgent) Handle(context.Context, Task) (Result, error) {
	return NewResult("d", nil), nil
}

func TestDescribeAgent(t *testing.T) {
	info := DescribeAgent(describedAgent{}, "builtin")
	assert.Equal(t, AgentInfo{Name: "d", Kind: "builtin", Description: "described"}, info)
}

func TestInvocation_Succeeded(t *testing.T) {
	assert.True(t, Invocation{ID: "1"}.Succeeded())
	assert.False(t, Invocation{ID: "1", Error: "boom"}.Succeeded())
}
