package memory_test

import (
	"context"
	"testing"

	"github.com/phrazzld/taskhub-api/internal/platform/memory"
	"github.com/phrazzld/taskhub-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) storetest.Stores {
		s := memory.NewStore()
		return storetest.Stores{Users: s.Users(), Tasks: s.Tasks(), Transactor: s}
	})
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Users().FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Tasks().FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
