package device

import (
	"math"
	"strconv"
	"strings"

	"github.com/lox/probabilitylab/internal/cdf"
)

var (
	coinLabels = []string{"Heads", "Tails"}
	dieLabels  = []string{"1", "2", "3", "4", "5", "6"}

	customFallbackLabels = []string{"Outcome 1", "Outcome 2"}
)

// Build returns the definition for cfg. Unknown kinds build a spinner, which
// matches how the configuration layer treats anything that is not a coin, die
// or custom device.
func Build(cfg Config) *Definition {
	var def *Definition
	switch cfg.Kind {
	case Coin:
		def = &Definition{
			Kind:          Coin,
			Labels:        append([]string(nil), coinLabels...),
			Probabilities: normalizeClamped(cfg.CoinProbabilities, len(coinLabels), coinMin, coinMax),
		}
	case Die:
		def = &Definition{
			Kind:          Die,
			Labels:        append([]string(nil), dieLabels...),
			Probabilities: normalizeClamped(cfg.DieProbabilities, len(dieLabels), dieMin, dieMax),
		}
	case Custom:
		def = buildCustom(cfg.Custom)
	default:
		def = buildSpinner(cfg.SpinnerSectors, cfg.SpinnerSkew)
	}

	if m, ok := kindMeta[def.Kind]; ok {
		def.Name = m.name
		def.Icon = m.icon
	}
	def.CDF = cdf.Build(def.Probabilities)
	return def
}

func buildSpinner(sectors int, skew float64) *Definition {
	if sectors == 0 {
		sectors = DefaultSpinnerSectors
	}
	sectors = min(max(sectors, MinSpinnerSectors), MaxSpinnerSectors)
	if math.IsNaN(skew) {
		skew = 0
	}
	skew = math.Min(math.Max(skew, -1), 1)

	labels := make([]string, sectors)
	weights := make([]float64, sectors)
	center := float64(sectors-1) / 2
	var total float64
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
		weights[i] = math.Exp(skew * (float64(i) - center))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	return &Definition{
		Kind:          Spinner,
		Labels:        labels,
		Probabilities: weights,
		Sectors:       sectors,
		Skew:          skew,
	}
}

func buildCustom(settings CustomSettings) *Definition {
	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = DefaultCustomName
	}

	// Probabilities follow their labels through dedup so positions stay aligned.
	seen := make(map[string]struct{}, len(settings.Outcomes))
	labels := make([]string, 0, len(settings.Outcomes))
	var raw []float64
	if settings.Probabilities != nil && len(settings.Probabilities) == len(settings.Outcomes) {
		raw = make([]float64, 0, len(settings.Outcomes))
	}
	for i, outcome := range settings.Outcomes {
		label := strings.TrimSpace(outcome)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
		if raw != nil {
			raw = append(raw, settings.Probabilities[i])
		}
	}

	if len(labels) < 2 {
		labels = append([]string(nil), customFallbackLabels...)
		raw = nil
	}
	if len(labels) > MaxCustomOutcomes {
		labels = labels[:MaxCustomOutcomes]
		if raw != nil {
			raw = raw[:MaxCustomOutcomes]
		}
	}
	probabilities := normalizeStrict(raw, len(labels))
	if probabilities == nil {
		probabilities = uniform(len(labels))
	}

	return &Definition{
		Kind:          Custom,
		Name:          name,
		Icon:          strings.TrimSpace(settings.Icon),
		Labels:        labels,
		Probabilities: probabilities,
	}
}
