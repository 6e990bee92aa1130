package history

import (
	"github.com/tidwall/gjson"
)

// CallsiteCount is the callsite tally of one analysis side.
type CallsiteCount struct {
	Callsites int `json:"callsites"`
}

// BaselineDelta compares a current analysis against a baseline.
// Baseline is nil when no baseline was available.
type BaselineDelta struct {
	Current  CallsiteCount  `json:"current"`
	Baseline *CallsiteCount `json:"baseline"`
	Delta    CallsiteCount  `json:"delta"`
}

// CompareToBaseline diffs two analysis payloads by callsite count.
// A nil/empty baseline yields a zero baseline side.
func CompareToBaseline(current, baseline []byte) BaselineDelta {
	currentCount := int(gjson.GetBytes(current, "callsites.#").Int())

	delta := BaselineDelta{
		Current: CallsiteCount{Callsites: currentCount},
		Delta:   CallsiteCount{Callsites: currentCount},
	}
	if len(baseline) > 0 {
		baselineCount := int(gjson.GetBytes(baseline, "callsites.#").Int())
		delta.Baseline = &CallsiteCount{Callsites: baselineCount}
		delta.Delta = CallsiteCount{Callsites: currentCount - baselineCount}
	}
	return delta
}
