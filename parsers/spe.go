package parsers

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"specutils/calibration"
	"specutils/config"
	"specutils/internal/numeric"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatSpe, probeSpe, parseSpe)
}

func probeSpe(input []byte) bool {
	head := input
	if len(head) > 256 {
		head = head[:256]
	}
	return bytes.Contains(head, []byte("$SPEC_ID:")) || bytes.Contains(head, []byte("$DATA:"))
}

var speDateFormats = []string{
	"01/02/2006 15:04:05",
	"02-Jan-2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseSpe implements the IAEA SPE line-oriented `$SECTION:` text format,
// generalized from the single-spectrum teacher reader into a full
// Measurement plus SpecFile wrapper.
func parseSpe(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	var (
		specID, dateMea string
		remarks         []string
		liveTime, rt    float64
		haveDataRange   bool
		dataLines       []string
		calLines        []string
	)

	var section string
	sc := bufio.NewScanner(bytes.NewReader(input))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "$") {
			section = line
			continue
		}
		switch section {
		case "$SPEC_ID:":
			specID = line
		case "$SPEC_REM:":
			remarks = append(remarks, line)
		case "$DATE_MEA:":
			dateMea = line
		case "$MEAS_TIM:":
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if lt, _, ok := numeric.ParseDouble(fields[0]); ok {
					liveTime = lt
				}
				if r, _, ok := numeric.ParseDouble(fields[1]); ok {
					rt = r
				}
			} else if len(fields) == 1 {
				if v, _, ok := numeric.ParseDouble(fields[0]); ok {
					liveTime, rt = v, v
				}
			}
		case "$DATA:":
			if !haveDataRange {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					_, e1 := strconv.Atoi(fields[0])
					_, e2 := strconv.Atoi(fields[1])
					if e1 == nil && e2 == nil {
						haveDataRange = true
						continue
					}
				}
			}
			dataLines = append(dataLines, line)
		case "$MCA_CAL:":
			calLines = append(calLines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &specerr.IoError{Err: err}
	}

	if len(dataLines) == 0 {
		return nil, &specerr.UnrecognizedFormatError{Format: "Spe"}
	}

	counts := make([]float64, 0, len(dataLines))
	var warnings []string
	for _, line := range dataLines {
		v, _, ok := numeric.ParseDouble(line)
		if !ok {
			warnings = append(warnings, "unparseable SPE channel count: "+numeric.UTF8LimitStrSize(line, 63))
			continue
		}
		counts = append(counts, v)
	}
	if len(counts) == 0 {
		return nil, &specerr.InvalidFieldError{What: "channel data", Where: "$DATA section"}
	}
	if len(counts) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "$DATA section"}
	}
	cal := parseSpeCalibration(calLines, len(counts))

	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, rt)
	m.SetTitle(specID)
	m.SetRemarks(remarks)
	m.ParseWarnings = append(m.ParseWarnings, warnings...)
	if t, ok := parseSpeDate(dateMea); ok {
		m.SetStartTime(t)
	}

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

func parseSpeCalibration(lines []string, numChannels int) *calibration.Calibration {
	var coeffs []float64
	for i, line := range lines {
		if i == 0 {
			continue // coefficient count line, redundant with len(coeffs)
		}
		// Real IAEA SPE files carry every coefficient on one
		// whitespace-separated line rather than one per line.
		coeffs = append(coeffs, numeric.SplitToFloats(line, "", false)...)
	}
	if len(coeffs) < 2 {
		return calibration.NewFullRangeFraction(numChannels, []float64{0, 3000}, nil)
	}
	return calibration.NewPolynomial(numChannels, coeffs, nil)
}

func parseSpeDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range speDateFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
