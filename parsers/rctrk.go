package parsers

import (
	"encoding/json"
	"time"

	"specutils/calibration"
	"specutils/config"
	"specutils/specerr"
	"specutils/specfile"
)

func init() {
	register(FormatRadiaCode, probeRadiaCode, parseRadiaCode)
}

// rctrkCalibration is RadiaCode's {a,b,c} polynomial calibration encoding.
type rctrkCalibration struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

type rctrkCoordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type rctrkSpectrum struct {
	Channels    []float64         `json:"channels"`
	Duration    float64           `json:"duration"`
	RealTime    float64           `json:"realTime"`
	Calibration rctrkCalibration  `json:"calibration"`
	Timestamp   int64             `json:"timestamp"`
	Coordinates *rctrkCoordinates `json:"coordinates"`
}

type rctrkMarkerWithSpectrum struct {
	Lat       float64        `json:"lat"`
	Lon       float64        `json:"lon"`
	DoseRate  float64        `json:"doseRate"`
	CountRate float64        `json:"countRate"`
	Date      int64          `json:"date"`
	Spectrum  *rctrkSpectrum `json:"spectrum,omitempty"`
}

type rctrkFile struct {
	ID      string                    `json:"id"`
	Markers []rctrkMarkerWithSpectrum `json:"markers"`
	Spectra []rctrkSpectrum           `json:"spectra,omitempty"`
}

func probeRadiaCode(input []byte) bool {
	head := input
	if len(head) > 512 {
		head = head[:512]
	}
	return looksLikeJSONObjectContaining(head, `"markers"`) || looksLikeJSONObjectContaining(head, `"spectra"`)
}

func looksLikeJSONObjectContaining(head []byte, needle string) bool {
	trimmed := trimLeadingSpace(head)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return containsBytes(head, []byte(needle))
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

func containsBytes(haystack, needle []byte) bool {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}

// parseRadiaCode implements RadiaCode's .rctrk JSON track/spectrum format,
// extended from the teacher's reader with position and the full
// Measurement field set.
func parseRadiaCode(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	var file rctrkFile
	if err := json.Unmarshal(input, &file); err != nil {
		return nil, &specerr.UnrecognizedFormatError{Format: "RadiaCode"}
	}

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.InstrumentType = "Spectrometer"
	sf.InstrumentModel = "RadiaCode"
	sf.DetectorTypeGuess = specfile.DetectorRadiaCode

	added := 0
	for _, mk := range file.Markers {
		if mk.Spectrum == nil {
			continue
		}
		m, err := rctrkMeasurement(mk.Spectrum, g)
		if err != nil {
			continue
		}
		if mk.Spectrum.Coordinates == nil {
			t := time.Unix(mk.Date, 0).UTC()
			m.SetPosition(mk.Lat, mk.Lon, &t)
		}
		m.DoseRate = mk.DoseRate
		sf.AddMeasurement(m, false)
		added++
	}
	for _, s := range file.Spectra {
		m, err := rctrkMeasurement(&s, g)
		if err != nil {
			continue
		}
		sf.AddMeasurement(m, false)
		added++
	}

	if added == 0 {
		return nil, &specerr.InvalidFieldError{What: "no spectra in rctrk file", Where: "rctrk"}
	}
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

func rctrkMeasurement(s *rctrkSpectrum, g config.Guardrails) (*specfile.Measurement, error) {
	if len(s.Channels) == 0 {
		return nil, &specerr.InvalidFieldError{What: "empty channels", Where: "rctrk spectrum"}
	}
	if len(s.Channels) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "rctrk spectrum"}
	}
	n := len(s.Channels)
	var cal *calibration.Calibration
	if s.Calibration.A == 0 && s.Calibration.B == 0 && s.Calibration.C == 0 {
		energyMax := 3000.0 * float64(n) / 1024.0
		cal = calibration.NewFullRangeFraction(n, []float64{0, energyMax}, nil)
	} else {
		cal = calibration.NewPolynomial(n, []float64{s.Calibration.A, s.Calibration.B, s.Calibration.C}, nil)
	}

	m := specfile.NewMeasurement(cal, s.Channels)
	m.SetTimes(s.Duration, s.RealTime)
	m.DetectorName = "RadiaCode"
	if s.Coordinates != nil {
		t := time.Unix(s.Timestamp, 0).UTC()
		m.SetPosition(s.Coordinates.Lat, s.Coordinates.Lon, &t)
	}
	if s.Timestamp != 0 {
		m.SetStartTime(time.Unix(s.Timestamp, 0).UTC())
	}
	return m, nil
}
