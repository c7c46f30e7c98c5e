package grant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/engine"
	dErrors "parley/pkg/domain-errors"
)

func TestScopeUnion(t *testing.T) {
	acc := NewAccumulator(engine.NewInMemoryGrantStore())
	handle := acc.New("u1", "web-app")

	handle.AddOIDCScope("a", "b")
	handle.AddOIDCScope("b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, handle.OIDCScope())

	// Adding the same set twice yields no duplicates.
	handle.AddOIDCScope("a", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, handle.OIDCScope())
}

func TestClaimsAndResourceScopeUnion(t *testing.T) {
	acc := NewAccumulator(engine.NewInMemoryGrantStore())
	handle := acc.New("u1", "web-app")

	handle.AddOIDCClaims("sub", "email")
	handle.AddOIDCClaims("email", "name")
	assert.Equal(t, []string{"sub", "email", "name"}, handle.OIDCClaims())

	handle.AddResourceScope("urn:api", "read")
	handle.AddResourceScope("urn:api", "read", "write")
	handle.AddResourceScope("urn:other", "read")
	assert.Equal(t, map[string][]string{
		"urn:api":   {"read", "write"},
		"urn:other": {"read"},
	}, handle.ResourceScopes())
}

func TestSaveAndReload(t *testing.T) {
	store := engine.NewInMemoryGrantStore()
	acc := NewAccumulator(store)
	ctx := context.Background()

	handle := acc.New("u1", "web-app")
	handle.AddOIDCScope("profile", "email")
	assert.True(t, handle.IsNew())

	grantID, err := handle.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, grantID)

	loaded, err := acc.Load(ctx, grantID)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	assert.Equal(t, []string{"profile", "email"}, loaded.OIDCScope())

	// Extending a loaded grant keeps its id.
	loaded.AddOIDCScope("address")
	id2, err := loaded.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, grantID, id2)
}

func TestSaveTwiceKeepsID(t *testing.T) {
	acc := NewAccumulator(engine.NewInMemoryGrantStore())
	ctx := context.Background()

	handle := acc.New("u1", "web-app")
	id1, err := handle.Save(ctx)
	require.NoError(t, err)
	id2, err := handle.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "repeated save must not mint a new grant id")
}

func TestLoadMissingGrant(t *testing.T) {
	acc := NewAccumulator(engine.NewInMemoryGrantStore())

	_, err := acc.Load(context.Background(), "missing")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
