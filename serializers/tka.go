package serializers

import (
	"strconv"
	"strings"

	"specutils/specfile"
)

// WriteTKA serializes sf into the bare two-number-then-counts TKA text
// format tka.go's parser reads. TKA carries no calibration, so any energy
// calibration on the Measurement is silently dropped, the same asymmetry
// spec.md section 4.4 documents for this format.
func WriteTKA(sf *specfile.SpecFile) ([]byte, error) {
	m, err := singleMeasurement(sf)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(strconv.FormatFloat(m.LiveTime, 'f', -1, 64))
	b.WriteString("\n")
	b.WriteString(strconv.FormatFloat(m.RealTime, 'f', -1, 64))
	b.WriteString("\n")
	for _, c := range m.GammaCounts {
		b.WriteString(strconv.FormatFloat(c, 'f', -1, 64))
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
