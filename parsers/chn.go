package parsers

import (
	"fmt"
	"time"

	"specutils/calibration"
	"specutils/config"
	"specutils/internal/byteio"
	"specutils/internal/numeric"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatChn, probeChn, parseChn)
}

func probeChn(input []byte) bool {
	if len(input) < 32 {
		return false
	}
	r := byteio.New(input)
	magic, err := r.I16LE()
	return err == nil && magic == -1
}

// parseChn implements the Ortec CHN integer format's 32-byte header, the
// channel-data block, and the optional calibration/description footer, per
// spec.md section 4.4.
func parseChn(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	r := byteio.New(input)

	magic, err := r.I16LE()
	if err != nil || magic != -1 {
		return nil, &specerr.UnrecognizedFormatError{Format: "Chn"}
	}

	if _, err := r.U16LE(); err != nil { // MCA number
		return nil, &specerr.InvalidFieldError{What: "mca number", Where: "Chn header"}
	}
	if _, err := r.U16LE(); err != nil { // segment, expected 1
		return nil, &specerr.InvalidFieldError{What: "segment", Where: "Chn header"}
	}

	var warnings []string

	secStr, err := r.FixedASCII(2)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "seconds-of-start", Where: "Chn header"}
	}

	realTimeTicks, err := r.U32LE()
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "real_time", Where: "Chn header"}
	}
	liveTimeTicks, err := r.U32LE()
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "live_time", Where: "Chn header"}
	}
	realTime := float64(realTimeTicks) / 50.0
	liveTime := float64(liveTimeTicks) / 50.0

	dayStr, err := r.FixedASCII(2)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "day", Where: "Chn header"}
	}
	monthStr, err := r.FixedASCII(3)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "month", Where: "Chn header"}
	}
	yearStr, err := r.FixedASCII(2)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "year", Where: "Chn header"}
	}
	centuryByte, err := r.U8()
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "century flag", Where: "Chn header"}
	}
	hourStr, err := r.FixedASCII(2)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "hour", Where: "Chn header"}
	}
	minStr, err := r.FixedASCII(2)
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "minute", Where: "Chn header"}
	}

	startTime, ok := parseChnTimestamp(dayStr, monthStr, yearStr, centuryByte, hourStr, minStr, secStr)
	if !ok {
		warnings = append(warnings, "could not parse Chn start timestamp")
	}

	firstChannel, err := r.U16LE()
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "first_channel", Where: "Chn header"}
	}
	// first_channel == 1 means the stored channel data is shifted one
	// slot from what the header's channel count implies; any other
	// nonzero value is an anomaly this reader doesn't try to guess at
	// (DESIGN.md open-question decision 1).
	if firstChannel != 0 && firstChannel != 1 {
		warnings = append(warnings, fmt.Sprintf("unexpected first_channel value %d", firstChannel))
	}
	channelShift := 0
	if firstChannel == 1 {
		channelShift = 1
	}

	numChannels, err := r.U16LE()
	if err != nil {
		return nil, &specerr.InvalidFieldError{What: "num_channels", Where: "Chn header"}
	}
	n := int(numChannels)
	if n == 0 {
		n = (len(input) - 32 - 512) / 4
	}
	if n < 128 || n > 32768 || n&(n-1) != 0 {
		return nil, &specerr.InvalidFieldError{What: "num_channels", Where: "Chn header"}
	}
	if n > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "num_channels exceeds guardrail", Where: "Chn header"}
	}
	counts := make([]float64, n)
	for i := channelShift; i < n; i++ {
		v, err := r.U32LE()
		if err != nil {
			return nil, &specerr.InvalidFieldError{What: "channel data", Where: "Chn body"}
		}
		counts[i] = float64(v)
	}
	if n >= 2 {
		counts[0], counts[1] = 0, 0
		counts[n-1], counts[n-2] = 0, 0
	}

	var cal *calibration.Calibration
	var detDesc, title string

	if r.Len() >= 2 {
		chntype, err := r.I16LE()
		if err == nil {
			switch chntype {
			case -102, -101, 1:
			case -13:
				warnings = append(warnings, "Chn footer chntype -13 (list-mode marker) in spectrum file")
			default:
				warnings = append(warnings, fmt.Sprintf("unrecognized Chn footer chntype %d", chntype))
			}

			if r.Len() >= 12 {
				c0, e1 := r.F32LE()
				c1, e2 := r.F32LE()
				c2, e3 := r.F32LE()
				if e1 == nil && e2 == nil && e3 == nil {
					cal = buildChnCalibration(n, float64(c0), float64(c1), float64(c2))
				}
			}

			footerStart := r.Pos() - 14
			if footerStart >= 0 && footerStart+256+64 <= len(input) {
				r2 := byteio.New(input[footerStart:])
				r2.Seek(256)
				if descLen, err := r2.U8(); err == nil && int(descLen) <= 63 {
					if s, err := r2.FixedASCII(int(descLen)); err == nil {
						detDesc = s
					}
				}
				r2.Seek(320)
				if titleLen, err := r2.U8(); err == nil && int(titleLen) <= 63 {
					if s, err := r2.FixedASCII(int(titleLen)); err == nil {
						title = numeric.UTF8LimitStrSize(s, g.MaxFixedStringLen)
					}
				}
			}
		}
	}
	if cal == nil {
		cal = calibration.NewFullRangeFraction(n, []float64{0, 3000}, nil)
	}

	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, realTime)
	if ok {
		m.SetStartTime(startTime)
	}
	m.DetectorTypeString = detDesc
	m.SetTitle(title)
	m.ParseWarnings = append(m.ParseWarnings, warnings...)

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.DetectorTypeGuess = specfile.DetectorOrtecCHN
	sf.InstrumentType = "Spectrometer"
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

// buildChnCalibration applies the FRF-vs-polynomial heuristic spec.md
// section 4.4 gives for the Chn footer's three coefficients.
func buildChnCalibration(n int, c0, c1, c2 float64) *calibration.Calibration {
	if c1 >= 1000 && c1 <= 16000 && c0 > -100 && c0 < 100 {
		if c1 > 0 && (c2 < -1e6 || c2 > 1e6) {
			c2 = 0
		}
		return calibration.NewFullRangeFraction(n, []float64{c0, c1, c2}, nil)
	}
	if c1 < 1000 {
		return calibration.NewPolynomial(n, []float64{c0, c1, c2}, nil)
	}
	return calibration.NewPolynomial(n, []float64{c0, c1, c2}, nil)
}

var chnMonths = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March, "Apr": time.April,
	"May": time.May, "Jun": time.June, "Jul": time.July, "Aug": time.August,
	"Sep": time.September, "Oct": time.October, "Nov": time.November, "Dec": time.December,
}

func parseChnTimestamp(dayStr, monthStr, yearStr string, century byte, hourStr, minStr, secStr string) (time.Time, bool) {
	day, _, ok1 := numeric.ParseInt(dayStr)
	year, _, ok2 := numeric.ParseInt(yearStr)
	hour, _, ok3 := numeric.ParseInt(hourStr)
	minute, _, ok4 := numeric.ParseInt(minStr)
	second, _, ok5 := numeric.ParseInt(secStr)
	month, okMonth := chnMonths[monthStr]
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !okMonth {
		return time.Time{}, false
	}
	fullYear := int(year)
	if century == '0' {
		fullYear += 1900
	} else {
		fullYear += 2000
	}
	return time.Date(fullYear, month, int(day), int(hour), int(minute), int(second), 0, time.UTC), true
}
