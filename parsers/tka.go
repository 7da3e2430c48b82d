package parsers

import (
	"bufio"
	"bytes"
	"strings"

	"specutils/calibration"
	"specutils/config"
	"specutils/internal/numeric"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatTka, probeTka, parseTka)
}

// probeTka is intentionally permissive (TKA carries no signature bytes of
// its own): it only rejects input that clearly isn't "two numbers then a
// column of numbers," leaving FormatDispatcher's extension hint and
// fallback order to do the real discrimination.
func probeTka(input []byte) bool {
	lines := splitNonEmptyLines(input, 4)
	if len(lines) < 3 {
		return false
	}
	for _, l := range lines[:3] {
		if _, _, ok := numeric.ParseDouble(strings.TrimSpace(l)); !ok {
			return false
		}
	}
	return true
}

func splitNonEmptyLines(input []byte, limit int) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(input))
	for sc.Scan() && (limit <= 0 || len(out) < limit) {
		l := strings.TrimSpace(sc.Text())
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// parseTka implements the TKA (Ortec "time-keyed ASCII") format: live time
// on the first line, real time on the second, one channel count per
// subsequent line. No calibration or metadata is carried in the format
// itself, so a default full-range-fraction calibration is assigned.
func parseTka(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	sc := bufio.NewScanner(bytes.NewReader(input))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var liveTime, realTime float64
	var haveLive, haveReal bool
	var counts []float64
	var warnings []string

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, _, ok := numeric.ParseDouble(line)
		if !ok {
			warnings = append(warnings, "unparseable TKA line: "+numeric.UTF8LimitStrSize(line, 63))
			continue
		}
		switch {
		case !haveLive:
			liveTime, haveLive = v, true
		case !haveReal:
			realTime, haveReal = v, true
		default:
			counts = append(counts, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &specerr.IoError{Err: err}
	}
	if !haveLive || !haveReal || len(counts) == 0 {
		return nil, &specerr.UnrecognizedFormatError{Format: "Tka"}
	}
	if len(counts) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "Tka body"}
	}

	cal := calibration.NewFullRangeFraction(len(counts), []float64{0, 3000}, nil)
	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, realTime)
	m.ParseWarnings = append(m.ParseWarnings, warnings...)

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}
