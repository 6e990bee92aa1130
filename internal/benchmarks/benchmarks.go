// Package benchmarks resolves model names against a static table of
// InferenceMAX reference measurements and derives gap comparisons between
// observed metrics and the benchmark baseline.
//
// DESIGN: The table is bundled with the binary and immutable for the
// process lifetime. A Store parses it lazily on first lookup and caches
// the result; there is no invalidation, so refreshing the data means
// restarting the process. Lookups tolerate naming variance through a
// fixed cascade: exact composite key, alias, default framework/hardware,
// then fuzzy substring matching in load order.
package benchmarks

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

//go:embed data/inferencemax.json
var bundledData []byte

// Metrics is the reference measurement bundle for one benchmark entry.
type Metrics struct {
	TTFTMs        float64 `json:"ttft_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	ThroughputTPS float64 `json:"throughput_tps"`
	CostPer1kIn   float64 `json:"cost_per_1k_input"`
	CostPer1kOut  float64 `json:"cost_per_1k_output"`
}

// Entry is one benchmark table row, keyed by "model:framework:hardware".
type Entry struct {
	Model         string         `json:"model"`
	Provider      string         `json:"provider"`
	Framework     string         `json:"framework"`
	Hardware      string         `json:"hardware"`
	Metrics       Metrics        `json:"metrics"`
	OptimalConfig map[string]any `json:"optimal_config,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// data is the parsed benchmark table. keys preserves the order entries
// appeared in the source file; the fuzzy fallback scans in that order.
type data struct {
	Version     string
	LastUpdated string
	Source      string
	keys        []string
	entries     map[string]*Entry
	aliases     map[string]string
}

// Store resolves model names to benchmark entries. The zero source is the
// bundled table; alternate data can be injected for tests or overridden
// with a file path. Safe for concurrent use.
type Store struct {
	raw      []byte
	loadOnce sync.Once
	data     *data
	loadErr  error
}

// NewStore creates a store backed by the bundled benchmark table.
func NewStore() *Store {
	return &Store{raw: bundledData}
}

// NewStoreFromBytes creates a store from raw table JSON. Used by tests to
// inject alternate reference data.
func NewStoreFromBytes(raw []byte) *Store {
	return &Store{raw: raw}
}

// NewStoreFromFile creates a store that reads the table from path on
// first lookup.
func NewStoreFromFile(path string) *Store {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &Store{loadErr: fmt.Errorf("failed to load benchmark data: %w", err)}
	}
	return &Store{raw: raw}
}

// load parses the table once and caches it for the process lifetime.
func (s *Store) load() (*data, error) {
	s.loadOnce.Do(func() {
		if s.loadErr != nil {
			return
		}
		if !gjson.ValidBytes(s.raw) {
			s.loadErr = fmt.Errorf("failed to load benchmark data: invalid JSON")
			return
		}
		root := gjson.ParseBytes(s.raw)

		d := &data{
			Version:     root.Get("version").String(),
			LastUpdated: root.Get("last_updated").String(),
			Source:      root.Get("source").String(),
			entries:     map[string]*Entry{},
			aliases:     map[string]string{},
		}

		// gjson iterates object members in document order, which fixes
		// the fuzzy-fallback scan order to the order entries were loaded.
		root.Get("benchmarks").ForEach(func(key, value gjson.Result) bool {
			entry := &Entry{
				Model:     value.Get("model").String(),
				Provider:  value.Get("provider").String(),
				Framework: value.Get("framework").String(),
				Hardware:  value.Get("hardware").String(),
				Notes:     value.Get("notes").String(),
				Metrics: Metrics{
					TTFTMs:        value.Get("metrics.ttft_ms").Float(),
					P50LatencyMs:  value.Get("metrics.p50_latency_ms").Float(),
					P95LatencyMs:  value.Get("metrics.p95_latency_ms").Float(),
					P99LatencyMs:  value.Get("metrics.p99_latency_ms").Float(),
					ThroughputTPS: value.Get("metrics.throughput_tps").Float(),
					CostPer1kIn:   value.Get("metrics.cost_per_1k_input").Float(),
					CostPer1kOut:  value.Get("metrics.cost_per_1k_output").Float(),
				},
			}
			if cfg := value.Get("optimal_config"); cfg.IsObject() {
				entry.OptimalConfig = map[string]any{}
				cfg.ForEach(func(k, v gjson.Result) bool {
					entry.OptimalConfig[k.String()] = v.Value()
					return true
				})
			}
			d.keys = append(d.keys, key.String())
			d.entries[key.String()] = entry
			return true
		})

		root.Get("model_aliases").ForEach(func(key, value gjson.Result) bool {
			d.aliases[key.String()] = value.String()
			return true
		})

		if len(d.entries) == 0 {
			s.loadErr = fmt.Errorf("failed to load benchmark data: no benchmark entries")
			return
		}
		s.data = d
	})
	return s.data, s.loadErr
}

var (
	modelSeparators = regexp.MustCompile(`[_\s]+`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

// NormalizeModel produces the canonical lookup form of a model name:
// lowercase, underscores/whitespace collapsed to single hyphens, repeated
// hyphens collapsed, leading/trailing hyphens stripped.
func NormalizeModel(model string) string {
	m := strings.ToLower(model)
	m = modelSeparators.ReplaceAllString(m, "-")
	m = repeatedHyphens.ReplaceAllString(m, "-")
	return strings.Trim(m, "-")
}

// Get resolves a model name (with optional framework/hardware qualifiers)
// to a benchmark entry. Empty framework/hardware default to "api".
// Returns nil when nothing matches; absence of benchmark data is an
// expected condition, not an error. The only error case is an unloadable
// table.
func (s *Store) Get(model, framework, hardware string) (*Entry, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}

	if framework == "" {
		framework = "api"
	}
	if hardware == "" {
		hardware = "api"
	}
	normalized := NormalizeModel(model)

	// 1. Exact composite key.
	if e, ok := d.entries[normalized+":"+framework+":"+hardware]; ok {
		return e, nil
	}

	// 2. Registered alias.
	if canonical, ok := d.aliases[normalized]; ok {
		if e, ok := d.entries[canonical]; ok {
			return e, nil
		}
	}

	// 3. Default framework/hardware dimensions.
	if e, ok := d.entries[normalized+":api:api"]; ok {
		return e, nil
	}

	// 4. Fuzzy fallback: bidirectional substring containment against each
	// entry's own model name, first match in load order wins.
	for _, key := range d.keys {
		entryModel := NormalizeModel(d.entries[key].Model)
		if strings.Contains(entryModel, normalized) || strings.Contains(normalized, entryModel) {
			return d.entries[key], nil
		}
	}

	return nil, nil
}

// Has reports whether any benchmark entry resolves for model.
func (s *Store) Has(model string) bool {
	e, err := s.Get(model, "", "")
	return err == nil && e != nil
}

// List returns all entries in load order.
func (s *Store) List() ([]*Entry, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, len(d.keys))
	for _, key := range d.keys {
		entries = append(entries, d.entries[key])
	}
	return entries, nil
}

// Version returns the table's version and last-updated stamps.
func (s *Store) Version() (version, lastUpdated string, err error) {
	d, err := s.load()
	if err != nil {
		return "", "", err
	}
	return d.Version, d.LastUpdated, nil
}
