package parsers

import (
	"bytes"
	"encoding/xml"
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
	register(FormatN42_2012, probeN42_2012, parseN42_2012)
	register(FormatN42_2006, probeN42_2006, parseN42_2006)
}

// n42Document is a schema-tolerant superset of ANSI N42.42's two generations
// of XML layout: N42-2006's `<Measurement><DetectorData><DetectorMeasurement>
// <SpectrumMeasurement><Spectrum>` nesting, and N42-2012's flatter
// `<RadMeasurement><Spectrum>` siblings, unified into one Go struct by
// `encoding/xml` tag matching, the way the teacher's n42.go models one
// variant.
type n42Document struct {
	XMLName         xml.Name          `xml:"N42InstrumentData"`
	InstrumentInfo  *n42InstrumentInfo `xml:"RadInstrumentInformation"`
	Measurements    []n42Measurement  `xml:"Measurement"`
	RadMeasurements []n42RadMeasurement `xml:"RadMeasurement"`
}

type n42InstrumentInfo struct {
	Manufacturer    string `xml:"RadInstrumentManufacturerName"`
	InstrumentModel string `xml:"RadInstrumentModelName"`
	InstrumentID    string `xml:"RadInstrumentIdentifier"`
}

// n42Measurement is the N42-2006 shape.
type n42Measurement struct {
	InstrumentInfo *n42LegacyInstrumentInfo `xml:"InstrumentInformation"`
	DetectorData   *n42DetectorData         `xml:"DetectorData"`
	StartTime      string                   `xml:"StartTime"`
}

type n42LegacyInstrumentInfo struct {
	InstrumentType  string `xml:"InstrumentType"`
	Manufacturer    string `xml:"Manufacturer"`
	InstrumentModel string `xml:"InstrumentModel"`
	InstrumentID    string `xml:"InstrumentID"`
}

type n42DetectorData struct {
	StartTime           string                  `xml:"StartTime"`
	DetectorMeasurement *n42DetectorMeasurement `xml:"DetectorMeasurement"`
}

type n42DetectorMeasurement struct {
	SpectrumMeasurement *n42SpectrumMeasurement `xml:"SpectrumMeasurement"`
}

type n42SpectrumMeasurement struct {
	Spectra []n42Spectrum `xml:"Spectrum"`
}

// n42RadMeasurement is the N42-2012 shape: Spectrum is a direct sibling of
// the measurement's own timing fields, and detector name comes from a
// reference attribute rather than nesting.
type n42RadMeasurement struct {
	StartDateTime string        `xml:"StartDateTime"`
	RealTime      string        `xml:"RealTimeDuration"`
	Spectra       []n42Spectrum `xml:"Spectrum"`
	GPS           *n42GPS       `xml:"RadInstrumentState>StateVector>GeographicPoint"`
}

type n42GPS struct {
	Latitude  float64 `xml:"LatitudeValue"`
	Longitude float64 `xml:"LongitudeValue"`
}

type n42Spectrum struct {
	DetectorName string           `xml:"radDetectorInformationReference,attr"`
	RealTime     string           `xml:"RealTime"`
	LiveTime     string           `xml:"LiveTimeDuration"`
	ChannelData  string           `xml:"ChannelData"`
	Calibration  []n42Calibration `xml:"Calibration"`
}

type n42Calibration struct {
	Type     string       `xml:"Type,attr"`
	Equation *n42Equation `xml:"Equation"`
}

type n42Equation struct {
	Model        string `xml:"Model,attr"`
	Coefficients string `xml:"Coefficients"`
}

func probeN42_2012(input []byte) bool {
	return bytes.Contains(input, []byte("RadMeasurement")) && looksLikeXML(input)
}

func probeN42_2006(input []byte) bool {
	return looksLikeXML(input) && bytes.Contains(input, []byte("N42InstrumentData")) &&
		!bytes.Contains(input, []byte("RadMeasurement"))
}

func looksLikeXML(input []byte) bool {
	head := bytes.TrimLeft(input, " \t\r\n")
	return bytes.HasPrefix(head, []byte("<?xml")) || bytes.HasPrefix(head, []byte("<N42"))
}

func parseN42_2012(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	return parseN42(input, originHint, g, true)
}

func parseN42_2006(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	return parseN42(input, originHint, g, false)
}

// parseN42 is shared between the 2006 and 2012 schema variants: both carry
// the same Spectrum/Calibration leaf shape, generalized from the teacher's
// single-schema ParseN42/convertN42Spectrum into a function that walks
// whichever of n42Document's two measurement slices is populated and emits
// one Measurement per Spectrum, per spec.md section 4.4.
func parseN42(input []byte, originHint string, g config.Guardrails, variant2012 bool) (*specfile.SpecFile, error) {
	var doc n42Document
	if err := xml.Unmarshal(input, &doc); err != nil {
		return nil, &specerr.UnrecognizedFormatError{Format: "N42"}
	}

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	if doc.InstrumentInfo != nil {
		sf.InstrumentModel = doc.InstrumentInfo.InstrumentModel
		sf.InstrumentID = doc.InstrumentInfo.InstrumentID
		sf.Manufacturer = doc.InstrumentInfo.Manufacturer
	}

	added := 0

	if variant2012 {
		for _, rm := range doc.RadMeasurements {
			startTime, _ := parseN42Time(rm.StartDateTime)
			for _, spec := range rm.Spectra {
				if spec.RealTime == "" {
					spec.RealTime = rm.RealTime
				}
				m, err := n42SpectrumToMeasurement(&spec, g)
				if err != nil {
					continue
				}
				if !startTime.IsZero() {
					m.SetStartTime(startTime)
				}
				if rm.GPS != nil {
					t := startTime
					m.SetPosition(rm.GPS.Latitude, rm.GPS.Longitude, &t)
				}
				sf.AddMeasurement(m, false)
				added++
			}
		}
	} else {
		for _, meas := range doc.Measurements {
			deviceModel := ""
			if meas.InstrumentInfo != nil {
				deviceModel = meas.InstrumentInfo.InstrumentModel
				if sf.InstrumentModel == "" {
					sf.InstrumentModel = meas.InstrumentInfo.InstrumentModel
					sf.Manufacturer = meas.InstrumentInfo.Manufacturer
					sf.InstrumentID = meas.InstrumentInfo.InstrumentID
				}
			}
			if meas.DetectorData == nil || meas.DetectorData.DetectorMeasurement == nil ||
				meas.DetectorData.DetectorMeasurement.SpectrumMeasurement == nil {
				continue
			}
			startTimeStr := meas.DetectorData.StartTime
			if startTimeStr == "" {
				startTimeStr = meas.StartTime
			}
			startTime, _ := parseN42Time(startTimeStr)

			for _, spec := range meas.DetectorData.DetectorMeasurement.SpectrumMeasurement.Spectra {
				m, err := n42SpectrumToMeasurement(&spec, g)
				if err != nil {
					continue
				}
				if !startTime.IsZero() {
					m.SetStartTime(startTime)
				}
				m.DetectorTypeString = deviceModel
				sf.AddMeasurement(m, false)
				added++
			}
		}
	}

	if added == 0 {
		return nil, &specerr.InvalidFieldError{What: "no valid spectra found", Where: "N42 document"}
	}
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

func n42SpectrumToMeasurement(spec *n42Spectrum, g config.Guardrails) (*specfile.Measurement, error) {
	counts := numeric.SplitToFloats(spec.ChannelData, "", true)
	if len(counts) == 0 {
		return nil, &specerr.InvalidFieldError{What: "empty channel data", Where: "N42 Spectrum"}
	}
	if len(counts) > g.MaxChannels {
		return nil, &specerr.InvalidFieldError{What: "channel count exceeds guardrail", Where: "N42 Spectrum"}
	}

	liveTime, _ := parseN42Duration(spec.LiveTime)
	realTime, err := parseN42Duration(spec.RealTime)
	if err != nil {
		realTime = liveTime
	}

	cal := calibration.NewFullRangeFraction(len(counts), []float64{0, 3000}, nil)
	for _, c := range spec.Calibration {
		if c.Equation == nil {
			continue
		}
		if strings.EqualFold(c.Type, "Energy") || c.Type == "" {
			if parsed, ok := parseN42CalibrationEquation(len(counts), c.Equation.Coefficients); ok {
				cal = parsed
				break
			}
		}
	}

	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(liveTime, realTime)
	m.DetectorName = spec.DetectorName
	return m, nil
}

func parseN42Time(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseN42Duration decodes an ISO-8601 duration of the simple "PT{n}S" /
// "PT{n}M" shape N42's RealTime/LiveTime elements use.
func parseN42Duration(duration string) (float64, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, &specerr.InvalidFieldError{What: "empty duration", Where: "N42"}
	}
	if !strings.HasPrefix(duration, "PT") {
		return 0, &specerr.InvalidFieldError{What: "unsupported duration format: " + duration, Where: "N42"}
	}
	body := strings.TrimPrefix(duration, "PT")
	switch {
	case strings.HasSuffix(body, "S"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(body, "S"), 64)
		return v, err
	case strings.HasSuffix(body, "M"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(body, "M"), 64)
		return v * 60, err
	default:
		return 0, &specerr.InvalidFieldError{What: "unsupported duration format: " + duration, Where: "N42"}
	}
}

func parseN42CalibrationEquation(numChannels int, coeffStr string) (*calibration.Calibration, bool) {
	fields := strings.Fields(coeffStr)
	if len(fields) < 2 {
		return nil, false
	}
	coeffs := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		coeffs = append(coeffs, v)
	}
	return calibration.NewPolynomial(numChannels, coeffs, nil), true
}
