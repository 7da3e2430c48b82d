package parsers

import (
	"bytes"
	"time"

	"specutils/calibration"
	"specutils/config"
	"specutils/internal/byteio"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatGR130, probeGR13x, parseGR130)
	register(FormatGR135, probeGR13x, parseGR135)
}

var gr13xMagic = []byte("ZZZZ")

func probeGR13x(input []byte) bool {
	return len(input) >= 8 && bytes.Equal(input[:4], gr13xMagic)
}

// gr13xVersion describes one of the three known GR130/GR135 record
// layouts spec.md section 4.4 distinguishes by record size and the
// spectrum/survey/CZT/dose type byte at offsets 4, 6, 8.
type gr13xVersion struct {
	recordSize   int
	channels     int
	calOffset    int
	liveOffset   int
	neutronOffset int // 0 means "not carried"
	naiDefault   [3]float64
	cztDefault   [3]float64
}

var (
	gr130v0 = gr13xVersion{recordSize: 2099, channels: 256, calOffset: 31, liveOffset: 47,
		naiDefault: [3]float64{0, 3000.0 / 256, 0}}
	gr135v1a = gr13xVersion{recordSize: 2099, channels: 1024, calOffset: 31, liveOffset: 50,
		naiDefault: [3]float64{0, 3000.0 / 1024, 0}}
	gr135v1b = gr13xVersion{recordSize: 2124, channels: 1024, calOffset: 44, liveOffset: 75,
		naiDefault: [3]float64{0, 3000.0 / 1024, 0}}
	gr135v2 = gr13xVersion{recordSize: 2127, channels: 1024, calOffset: 44, liveOffset: 75,
		neutronOffset: 36, naiDefault: [3]float64{0, 3000.0 / 1024, 0}, cztDefault: [3]float64{0, 1500.0 / 1024, 0}}
)

// selectGR13xVersion picks the version table entry for recordSize,
// disambiguating the 2099-byte size GR130 v0 and GR135 v1 share by the
// channel count the caller (parseGR130 or parseGR135) expects.
func selectGR13xVersion(recordSize, wantChannels int) (gr13xVersion, bool) {
	switch recordSize {
	case 2099:
		if wantChannels == gr130v0.channels {
			return gr130v0, true
		}
		return gr135v1a, true
	case 2124:
		return gr135v1b, true
	case 2127:
		return gr135v2, true
	default:
		return gr13xVersion{}, false
	}
}

func parseGR130(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	return parseGR13x(input, originHint, g, specfile.DetectorGR130, gr130v0.channels)
}

func parseGR135(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	return parseGR13x(input, originHint, g, specfile.DetectorGR135, gr135v1a.channels)
}

// parseGR13x implements the Exploranium GR130/GR135 binary record format:
// magic, a BCD timestamp read at byte offset 9 for every version (with a
// fallback scan across the header if that offset doesn't decode to a valid
// date), uint16 channel data, and three float32 calibration coefficients.
// When the coefficients are absent or invalid the version's NaI default is
// applied; no CZT default is ever selected.
func parseGR13x(input []byte, originHint string, g config.Guardrails, wantDetector specfile.DetectorType, wantChannels int) (*specfile.SpecFile, error) {
	if !probeGR13x(input) {
		return nil, &specerr.UnrecognizedFormatError{Format: wantDetector.String()}
	}

	recordSize := len(input)
	ver, ok := selectGR13xVersion(recordSize, wantChannels)
	if !ok {
		return nil, &specerr.UnrecognizedFormatError{Format: wantDetector.String()}
	}
	if ver.channels != wantChannels {
		return nil, &specerr.UnrecognizedFormatError{Format: wantDetector.String()}
	}
	if ver.channels > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "GR13x"}
	}

	var warnings []string

	startTime, ok := gr13xTimestampAt(input, 9)
	if !ok {
		startTime, ok = gr13xScanForTimestamp(input, 75)
		if !ok {
			warnings = append(warnings, "could not locate a valid GR13x BCD timestamp")
		}
	}

	r := byteio.New(input)
	r.Seek(ver.calOffset)
	var coeffs [3]float64
	validCal := true
	for i := 0; i < 3; i++ {
		v, err := r.F32LE()
		if err != nil {
			validCal = false
			break
		}
		coeffs[i] = float64(v)
	}
	if !validCal || !finiteCoeffs(coeffs) {
		coeffs = [3]float64(ver.naiDefault)
		warnings = append(warnings, "GR13x calibration missing or invalid; applied per-model default")
	}
	cal := calibration.NewPolynomial(ver.channels, coeffs[:], nil)

	r.Seek(48) // first channel data begins after the fixed binary header
	counts := make([]float64, ver.channels)
	for i := 0; i < ver.channels; i++ {
		v, err := r.U16LE()
		if err != nil {
			return nil, &specerr.InvalidFieldError{What: "channel data", Where: "GR13x body"}
		}
		counts[i] = float64(v)
	}

	var neutrons []float64
	if ver.neutronOffset > 0 && ver.neutronOffset+2 <= len(input) {
		r.Seek(ver.neutronOffset)
		if n, err := r.U16LE(); err == nil {
			neutrons = []float64{float64(n)}
		}
	}

	var liveTimeMs uint32
	if ver.liveOffset+4 <= len(input) {
		r.Seek(ver.liveOffset)
		liveTimeMs, _ = r.U32LE()
	}
	liveTime := float64(liveTimeMs) / 1000.0

	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, liveTime)
	if ok {
		m.SetStartTime(startTime)
	}
	if len(neutrons) > 0 {
		m.SetNeutronCounts(neutrons)
	}
	m.ParseWarnings = append(m.ParseWarnings, warnings...)

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.DetectorTypeGuess = wantDetector
	sf.Manufacturer = "Exploranium"
	sf.InstrumentModel = wantDetector.String()
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

func finiteCoeffs(c [3]float64) bool {
	for _, v := range c {
		if v != v { // NaN
			return false
		}
	}
	return true
}

// gr13xTimestampAt decodes the BCD {year-2000, month, day, hour, minute,
// second} sextet at byte offset off.
func gr13xTimestampAt(input []byte, off int) (time.Time, bool) {
	if off+6 > len(input) {
		return time.Time{}, false
	}
	year, ok1 := byteio.BCDByte(input[off])
	month, ok2 := byteio.BCDByte(input[off+1])
	day, ok3 := byteio.BCDByte(input[off+2])
	hour, ok4 := byteio.BCDByte(input[off+3])
	minute, ok5 := byteio.BCDByte(input[off+4])
	second, ok6 := byteio.BCDByte(input[off+5])
	if ok1 != nil || ok2 != nil || ok3 != nil || ok4 != nil || ok5 != nil || ok6 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(2000+year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

// gr13xScanForTimestamp scans up to window bytes of the header for any BCD
// sextet that decodes to a plausible calendar date, per spec.md's
// documented fallback when the primary offset fails.
func gr13xScanForTimestamp(input []byte, window int) (time.Time, bool) {
	limit := window
	if limit > len(input)-6 {
		limit = len(input) - 6
	}
	for off := 0; off < limit; off++ {
		if t, ok := gr13xTimestampAt(input, off); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
