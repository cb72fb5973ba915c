package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobsCacheNilSafe(t *testing.T) {
	ctx := context.Background()

	// The API boots with a nil cache when redis is unreachable; every
	// operation must degrade to a no-op.
	var c *JobsCache
	assert.Equal(t, "", c.Get(ctx, "page=1"))
	c.Set(ctx, "page=1", []byte("{}"))
	c.Invalidate(ctx)

	empty := &JobsCache{}
	assert.Equal(t, "", empty.Get(ctx, "page=1"))
	empty.Set(ctx, "page=1", []byte("{}"))
	empty.Invalidate(ctx)
}
