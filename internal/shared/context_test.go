package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, ActorFromContext(ctx))
	assert.Equal(t, int64(42), ActorFromContext(ContextWithActor(ctx, 42)))
}

func TestParseActor(t *testing.T) {
	assert.Equal(t, int64(7), ParseActor(" 7 "))
	assert.Zero(t, ParseActor(""))
	assert.Zero(t, ParseActor("-3"))
	assert.Zero(t, ParseActor("bob"))
}
