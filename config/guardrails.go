// Package config loads the tunable resource guardrails spec.md section 9
// calls "guardrails, not contracts": per-format caps on channel count,
// record count, string length, and file size, plus the passthrough-
// detection thresholds cleanup_after_load uses. None of these numbers
// change parse *semantics* — only how defensively a parser bails out on
// pathological input — so they're the one configuration surface this
// library owns, loaded from an optional TOML file in the style
// holocm/holo-build and spatialmodel/inmap use for their own config.
package config

import "github.com/BurntSushi/toml"

// Guardrails bounds resource consumption during parsing. Zero-value fields
// fall back to Default's values via Guardrails.WithDefaults.
type Guardrails struct {
	// MaxChannels caps gamma channel count per Measurement (spec.md
	// section 5: "<= 65536").
	MaxChannels int `toml:"max_channels"`
	// MaxFixedStringLen caps fixed-width header string fields (spec.md
	// section 5: "<= 63 bytes").
	MaxFixedStringLen int `toml:"max_fixed_string_len"`
	// MaxFileSizeBytes is an input size limit. It is loaded and defaulted,
	// but neither the dispatcher nor any parser checks input size against
	// it.
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"`
	// MaxRecords is a limit on Measurements per file. It is loaded and
	// defaulted, but no parser checks its record count against it.
	MaxRecords int `toml:"max_records"`
	// PassthroughMinSamples and PassthroughMaxMedianRealTime freeze the
	// heuristic spec.md section 4.6 calls out as "not essential to
	// reproduce bit-exactly... must be deterministic."
	PassthroughMinSamples        int     `toml:"passthrough_min_samples"`
	PassthroughMaxMedianRealTime float64 `toml:"passthrough_max_median_real_time_sec"`
}

// Default returns the guardrail values spec.md gives explicitly.
func Default() Guardrails {
	return Guardrails{
		MaxChannels:                  65536,
		MaxFixedStringLen:            63,
		MaxFileSizeBytes:             64 << 20, // 64 MiB
		MaxRecords:                   1 << 20,
		PassthroughMinSamples:        5,
		PassthroughMaxMedianRealTime: 3.0,
	}
}

// WithDefaults fills any zero-valued field of g from Default().
func (g Guardrails) WithDefaults() Guardrails {
	d := Default()
	if g.MaxChannels == 0 {
		g.MaxChannels = d.MaxChannels
	}
	if g.MaxFixedStringLen == 0 {
		g.MaxFixedStringLen = d.MaxFixedStringLen
	}
	if g.MaxFileSizeBytes == 0 {
		g.MaxFileSizeBytes = d.MaxFileSizeBytes
	}
	if g.MaxRecords == 0 {
		g.MaxRecords = d.MaxRecords
	}
	if g.PassthroughMinSamples == 0 {
		g.PassthroughMinSamples = d.PassthroughMinSamples
	}
	if g.PassthroughMaxMedianRealTime == 0 {
		g.PassthroughMaxMedianRealTime = d.PassthroughMaxMedianRealTime
	}
	return g
}

// Load reads a TOML guardrails file, applying Default() for any field the
// file omits.
func Load(path string) (Guardrails, error) {
	var g Guardrails
	if _, err := toml.DecodeFile(path, &g); err != nil {
		return Guardrails{}, err
	}
	return g.WithDefaults(), nil
}
