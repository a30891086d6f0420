package command

import (
	"context"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRunCapturesOutput(t *testing.T) {
	assert := assert_.New(t)
	r := NewRunner(zap.NewNop())

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	assert.NoError(err)
	assert.Equal(0, res.ExitCode)
	assert.Equal("out\n", string(res.Stdout))
	assert.Equal("err\n", string(res.Stderr))
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	assert := assert_.New(t)
	r := NewRunner(zap.NewNop())

	res, err := r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	assert.NoError(err)
	assert.Equal(3, res.ExitCode)
	assert.Equal("broken\n", string(res.Stderr))
}

func TestRunMissingExecutable(t *testing.T) {
	assert := assert_.New(t)
	r := NewRunner(zap.NewNop())

	_, err := r.Run(context.Background(), "definitely-not-installed-tool")
	assert.ErrorIs(err, ErrNotFound)
}
