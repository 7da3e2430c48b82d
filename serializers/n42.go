// Package serializers implements the output side of spec.md section 4.7:
// a canonical N42-2012 writer (the module's round-trip target) plus
// CHN/SPE/TKA writers for the single-spectrum legacy formats. Each mirrors
// the shape of its corresponding parser in the parsers package, generalized
// from read to write.
package serializers

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"specutils/specfile"
)

type n42WriteDoc struct {
	XMLName        xml.Name           `xml:"N42InstrumentData"`
	Xmlns          string             `xml:"xmlns,attr"`
	InstrumentInfo n42WriteInstrument `xml:"RadInstrumentInformation"`
	RadMeasurement []n42WriteMeasurement `xml:"RadMeasurement"`
}

type n42WriteInstrument struct {
	Manufacturer    string `xml:"RadInstrumentManufacturerName"`
	InstrumentModel string `xml:"RadInstrumentModelName"`
	InstrumentID    string `xml:"RadInstrumentIdentifier"`
}

type n42WriteMeasurement struct {
	ID            string           `xml:"id,attr"`
	StartDateTime string           `xml:"StartDateTime"`
	RealTime      string           `xml:"RealTimeDuration"`
	Spectrum      []n42WriteSpectrum `xml:"Spectrum"`
}

type n42WriteSpectrum struct {
	DetectorName string             `xml:"radDetectorInformationReference,attr"`
	LiveTime     string             `xml:"LiveTimeDuration"`
	ChannelData  string             `xml:"ChannelData"`
	Calibration  n42WriteCalibration `xml:"Calibration"`
}

type n42WriteCalibration struct {
	Type         string `xml:"Type,attr"`
	Coefficients string `xml:"Equation>Coefficients"`
}

// WriteN42 serializes every Measurement in sf into one N42-2012 document,
// grouping measurements that share a start time under one RadMeasurement
// element the way the teacher's ParseN42 reads them back out, so a
// round-trip through WriteN42 then the parsers package's N42-2012 reader
// reproduces the same Measurement set (spec.md section 8's round-trip
// property).
func WriteN42(sf *specfile.SpecFile) ([]byte, error) {
	doc := n42WriteDoc{
		Xmlns: "http://physics.nist.gov/N42/2011/N42",
		InstrumentInfo: n42WriteInstrument{
			Manufacturer:    sf.Manufacturer,
			InstrumentModel: sf.InstrumentModel,
			InstrumentID:    sf.InstrumentID,
		},
	}

	byStartTime := map[time.Time]*n42WriteMeasurement{}
	var order []time.Time
	for _, m := range sf.Measurements() {
		rm, ok := byStartTime[m.StartTime]
		if !ok {
			rm = &n42WriteMeasurement{
				ID:            fmt.Sprintf("RadMeasurement-%d", m.SampleNumber),
				StartDateTime: formatN42Time(m.StartTime),
				RealTime:      formatN42Duration(m.RealTime),
			}
			byStartTime[m.StartTime] = rm
			order = append(order, m.StartTime)
		}
		rm.Spectrum = append(rm.Spectrum, n42WriteSpectrum{
			DetectorName: m.DetectorName,
			LiveTime:     formatN42Duration(m.LiveTime),
			ChannelData:  formatN42ChannelData(m.GammaCounts),
			Calibration:  writeN42Calibration(m),
		})
	}
	for _, t := range order {
		rm := byStartTime[t]
		sortSpectraByDetectorName(rm.Spectrum)
		doc.RadMeasurement = append(doc.RadMeasurement, *rm)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal N42 document: %w", err)
	}
	header := []byte(xml.Header)
	return append(header, out...), nil
}

// sortSpectraByDetectorName orders a RadMeasurement's Spectrum elements so
// the document's element order doesn't depend on SpecFile load order,
// reusing the same alphabetical convention specfile.SortedDetectorNames
// applies to detector name listings.
func sortSpectraByDetectorName(spectra []n42WriteSpectrum) {
	names := make([]string, len(spectra))
	for i, sp := range spectra {
		names[i] = sp.DetectorName
	}
	order := specfile.SortedDetectorNames(names)
	rank := make(map[string]int, len(order))
	for i, n := range order {
		if _, exists := rank[n]; !exists {
			rank[n] = i
		}
	}
	sort.SliceStable(spectra, func(i, j int) bool {
		return rank[spectra[i].DetectorName] < rank[spectra[j].DetectorName]
	})
}

func writeN42Calibration(m *specfile.Measurement) n42WriteCalibration {
	if m.EnergyCalibration == nil {
		return n42WriteCalibration{Type: "Energy"}
	}
	cal := m.EnergyCalibration.ToPolynomial()
	fields := make([]string, 0, len(cal.Coefficients()))
	for _, c := range cal.Coefficients() {
		fields = append(fields, strconv.FormatFloat(c, 'g', -1, 64))
	}
	return n42WriteCalibration{Type: "Energy", Coefficients: strings.Join(fields, " ")}
}

func formatN42ChannelData(counts []float64) string {
	fields := make([]string, len(counts))
	for i, c := range counts {
		fields[i] = strconv.FormatFloat(c, 'f', -1, 64)
	}
	return strings.Join(fields, " ")
}

func formatN42Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatN42Duration(seconds float64) string {
	return fmt.Sprintf("PT%sS", strconv.FormatFloat(seconds, 'f', -1, 64))
}
