package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("helicone"))
	assert.Empty(t, r.Names())

	r.Register(NewHelicone("key"))
	r.Register(NewLangSmith("key"))
	r.Register(NewLangfuse("pk", "sk"))

	require.NotNil(t, r.Get("helicone"))
	assert.Equal(t, SourceHelicone, r.Get("helicone").Source())
	assert.Nil(t, r.Get("unknown"))
	assert.ElementsMatch(t, []string{"helicone", "langsmith", "langfuse"}, r.Names())
}
