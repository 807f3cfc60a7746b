package interrupter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterrupter_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Interrupter{}.Run(ctx), context.Canceled)
}
