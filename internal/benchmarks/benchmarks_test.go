package benchmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MODEL NORMALIZATION TESTS
// =============================================================================

func TestNormalizeModel(t *testing.T) {
	cases := map[string]string{
		"GPT-4o":            "gpt-4o",
		"GPT_4o":            "gpt-4o",
		"gpt 4o":            "gpt-4o",
		"gpt__4o":           "gpt-4o",
		"gpt--4o":           "gpt-4o",
		"-gpt-4o-":          "gpt-4o",
		"Claude_3 5  Haiku": "claude-3-5-haiku",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeModel(in), "input %q", in)
	}
}

// =============================================================================
// LOOKUP CASCADE TESTS
// =============================================================================

func TestGet_ExactKey(t *testing.T) {
	s := NewStore()

	e, err := s.Get("llama-3.1-70b", "vllm", "h100")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "vllm", e.Framework)
	assert.Equal(t, "h100", e.Hardware)
	assert.Equal(t, 310.0, e.Metrics.ThroughputTPS)
	assert.NotEmpty(t, e.OptimalConfig)
}

func TestGet_DefaultsToAPI(t *testing.T) {
	s := NewStore()

	e, err := s.Get("gpt-4o", "", "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "api", e.Framework)
	assert.Equal(t, "api", e.Hardware)
}

func TestGet_NormalizesBeforeLookup(t *testing.T) {
	s := NewStore()

	e, err := s.Get("GPT_4o", "api", "api")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "gpt-4o", e.Model)
}

func TestGet_Alias(t *testing.T) {
	s := NewStore()

	e, err := s.Get("gpt-4o-2024-08-06", "api", "api")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "gpt-4o", e.Model)

	e, err = s.Get("deepseek-chat", "", "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "deepseek-v3", e.Model)
}

func TestGet_FallsBackToDefaultDimensions(t *testing.T) {
	s := NewStore()

	// No tgi:h100 entry exists for gpt-4o, so the api:api entry serves.
	e, err := s.Get("gpt-4o", "tgi", "h100")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "api", e.Framework)
}

func TestGet_FuzzyMatch(t *testing.T) {
	s := NewStore()

	// Version-suffixed names resolve by substring containment.
	e, err := s.Get("gpt-4o-2025-01-01-preview", "", "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "gpt-4o", e.Model)

	// Partial names resolve to the first containing entry in load order.
	e, err = s.Get("claude-3-5", "", "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "claude-3-5-sonnet", e.Model)
}

func TestGet_NoMatchIsNilNotError(t *testing.T) {
	s := NewStore()

	e, err := s.Get("totally-unknown-model-xyz", "", "")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestGet_InvalidData(t *testing.T) {
	s := NewStoreFromBytes([]byte("not json"))
	_, err := s.Get("gpt-4o", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load benchmark data")
}

func TestGet_MissingFile(t *testing.T) {
	s := NewStoreFromFile("/nonexistent/benchmarks.json")
	_, err := s.Get("gpt-4o", "", "")
	require.Error(t, err)
}

func TestHas(t *testing.T) {
	s := NewStore()
	assert.True(t, s.Has("gpt-4o"))
	assert.True(t, s.Has("gpt4o"))
	assert.False(t, s.Has("totally-unknown-model-xyz"))
}

func TestList_PreservesLoadOrder(t *testing.T) {
	s := NewStore()

	entries, err := s.List()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "gpt-4o", entries[0].Model)
}

func TestVersion(t *testing.T) {
	s := NewStore()

	version, lastUpdated, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, "2025.08", version)
	assert.Equal(t, "2025-08-18", lastUpdated)
}

func TestFuzzyOrder_InjectedTable(t *testing.T) {
	raw := []byte(`{
		"version": "test",
		"benchmarks": {
			"mymodel-large:api:api": {"model": "mymodel-large", "metrics": {"p95_latency_ms": 1}},
			"mymodel:api:api": {"model": "mymodel", "metrics": {"p95_latency_ms": 2}}
		}
	}`)
	s := NewStoreFromBytes(raw)

	// Both entry models contain the query; the first in document order wins.
	e, err := s.Get("my", "", "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "mymodel-large", e.Model)
}
