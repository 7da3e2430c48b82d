package parsers

import (
	"specutils/calibration"
	"specutils/config"
	"specutils/internal/numeric"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatTxtOrCsv, probeTxtOrCsv, parseTxtOrCsv)
}

// probeTxtOrCsv is the last-resort catch-all the teacher's
// parseChannelData covered directly: any file whose entire content
// whitespace/CSV-splits into a run of numeric tokens with no recognizable
// structure is treated as a bare channel-count dump.
func probeTxtOrCsv(input []byte) bool {
	vals := numeric.SplitToFloats(string(input), "", false)
	return len(vals) >= 16
}

// parseTxtOrCsv reads a flat whitespace- or comma-separated list of channel
// counts with no header, generalizing the teacher's parseChannelData
// (strings.Fields + strconv.Atoi) to internal/numeric's tolerant splitter
// and a full Measurement/SpecFile wrapper.
func parseTxtOrCsv(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	counts := numeric.SplitToFloats(string(input), "", true)
	if len(counts) == 0 {
		return nil, &specerr.UnrecognizedFormatError{Format: "TxtOrCsv"}
	}
	if len(counts) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "txt/csv body"}
	}

	cal := calibration.NewFullRangeFraction(len(counts), []float64{0, 3000}, nil)
	m := specfile.NewMeasurement(cal, counts)

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}
