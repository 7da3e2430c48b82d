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
	register(FormatAmptek, probeAmptek, parseAmptek)
}

func probeAmptek(input []byte) bool {
	head := input
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.Contains(head, []byte("<<PMCA SPECTRUM>>"))
}

// parseAmptek implements the Amptek MCA text format: `<<TAG>>` section
// markers, `KEY - value` header lines, a `<<DATA>>`...`<<END>>` channel
// block, and optional DP5 configuration/status blocks whose lines become
// remarks, per spec.md section 4.4.
func parseAmptek(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	sc := bufio.NewScanner(bytes.NewReader(input))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		gain, liveTime, realTime float64
		serial, deviceType       string
		remarks                  []string
		counts                   []float64
		inData, inBlock          bool
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case line == "<<DATA>>":
			inData = true
			continue
		case line == "<<END>>":
			inData = false
			continue
		case strings.HasPrefix(line, "<<") && strings.HasSuffix(line, ">>"):
			inBlock = strings.Contains(line, "CONFIGURATION") || strings.Contains(line, "STATUS")
			if strings.HasSuffix(line, "END>>") {
				inBlock = false
			}
			continue
		}

		if inData {
			if v, _, ok := numeric.ParseDouble(line); ok {
				counts = append(counts, v)
			}
			continue
		}

		if inBlock {
			remarks = append(remarks, line)
			if v, ok := strings.CutPrefix(line, "Serial Number:"); ok && serial == "" {
				serial = strings.TrimSpace(v)
			}
			if v, ok := strings.CutPrefix(line, "Device Type:"); ok && deviceType == "" {
				deviceType = strings.TrimSpace(v)
			}
			continue
		}

		key, value, ok := cutAmptekHeaderLine(line)
		if !ok {
			continue
		}
		switch key {
		case "GAIN":
			if v, _, ok := numeric.ParseDouble(value); ok {
				gain = v
			}
		case "LIVE_TIME":
			if v, _, ok := numeric.ParseDouble(value); ok {
				liveTime = v
			}
		case "REAL_TIME":
			if v, _, ok := numeric.ParseDouble(value); ok {
				realTime = v
			}
		case "SERIAL_NUMBER":
			if serial == "" {
				serial = value
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &specerr.IoError{Err: err}
	}
	if len(counts) == 0 {
		return nil, &specerr.UnrecognizedFormatError{Format: "AmptekMCA"}
	}
	if len(counts) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "Amptek <<DATA>>"}
	}

	var cal *calibration.Calibration
	if gain > 0 && gain < 100 {
		cal = calibration.NewPolynomial(len(counts), []float64{0, gain}, nil)
	} else {
		cal = calibration.NewFullRangeFraction(len(counts), []float64{0, 3000}, nil)
	}

	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, realTime)
	m.SetRemarks(remarks)

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.InstrumentID = serial
	sf.InstrumentModel = deviceType
	sf.DetectorTypeGuess = specfile.DetectorAmptek
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

// cutAmptekHeaderLine splits a "TAG - value" header line.
func cutAmptekHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, " - ")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+3:]), true
}
