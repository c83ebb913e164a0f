package intent

import "github.com/toolgateway/gateway/internal/registry"

// FromRegistrySamples adapts the registry's stored training rows (which
// additionally carry an ID and a validated flag the classifier has no use
// for) into the plain (text, label, weight) triples Train expects.
func FromRegistrySamples(rows []*registry.TrainingSample) []TrainingSample {
	out := make([]TrainingSample, 0, len(rows))
	for _, r := range rows {
		out = append(out, TrainingSample{Text: r.Text, Label: r.Intent, Weight: r.Weight})
	}
	return out
}
