package guard_test

import (
	"errors"
	"sync"
	"testing"

	"warehouse/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	notConstructed := errors.New("command not constructed")

	t.Run("constructed_guard_returns_nil", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(notConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_guard_returns_given_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(notConstructed)

		assert.Equal(t, notConstructed, err)
	})

	t.Run("zero_value_guard_falls_back_to_default_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})

	t.Run("copies_keep_constructed_flag", func(t *testing.T) {
		g := guard.NewConstructorGuard()
		cp := g

		require.NoError(t, cp.Validate(notConstructed))
	})
}

func TestConstructorGuard_EmbeddedInCommand(t *testing.T) {
	errClaimNotConstructed := errors.New("claim must be created via newClaim")

	type claim struct {
		agentID string
		guard   guard.ConstructorGuard
	}
	newClaim := func(agentID string) (claim, error) {
		if agentID == "" {
			return claim{}, errors.New("agent id is required")
		}
		return claim{agentID: agentID, guard: guard.NewConstructorGuard()}, nil
	}

	c, err := newClaim("agent-7")
	require.NoError(t, err)
	require.NoError(t, c.guard.Validate(errClaimNotConstructed))

	var zero claim
	require.ErrorIs(t, zero.guard.Validate(errClaimNotConstructed), errClaimNotConstructed)

	_, err = newClaim("")
	require.EqualError(t, err, "agent id is required")
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()
	notConstructed := errors.New("not constructed")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.NoError(t, g.Validate(notConstructed))
			}
		}()
	}
	wg.Wait()
}
