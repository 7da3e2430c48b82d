package serializers

import (
	"fmt"
	"strconv"
	"strings"

	"specutils/specfile"
)

// WriteSPE serializes sf into the IAEA text ($SECTION:-delimited) format,
// mirroring spe.go's parser sections in reverse. Like CHN, SPE carries one
// spectrum per file.
func WriteSPE(sf *specfile.SpecFile) ([]byte, error) {
	m, err := singleMeasurement(sf)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("$SPEC_ID:\n")
	fmt.Fprintf(&b, "%s\n", m.Title)
	b.WriteString("$SPEC_REM:\n")
	for _, r := range m.Remarks {
		fmt.Fprintf(&b, "%s\n", r)
	}
	b.WriteString("$DATE_MEA:\n")
	fmt.Fprintf(&b, "%s\n", formatSpeDate(m))
	b.WriteString("$MEAS_TIM:\n")
	fmt.Fprintf(&b, "%s %s\n", formatSpeNumber(m.LiveTime), formatSpeNumber(m.RealTime))
	b.WriteString("$DATA:\n")
	fmt.Fprintf(&b, "0 %d\n", len(m.GammaCounts)-1)
	for _, c := range m.GammaCounts {
		fmt.Fprintf(&b, "%s\n", formatSpeNumber(c))
	}
	b.WriteString("$MCA_CAL:\n")
	coeffs := speCalibrationCoefficients(m)
	fmt.Fprintf(&b, "%d\n", len(coeffs))
	fields := make([]string, len(coeffs))
	for i, c := range coeffs {
		fields[i] = strconv.FormatFloat(c, 'E', 6, 64)
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(fields, " "))

	return []byte(b.String()), nil
}

func formatSpeDate(m *specfile.Measurement) string {
	if m.StartTime.IsZero() {
		return "00/00/0000 00:00:00"
	}
	return m.StartTime.UTC().Format("01/02/2006 15:04:05")
}

func formatSpeNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func speCalibrationCoefficients(m *specfile.Measurement) []float64 {
	if m.EnergyCalibration == nil {
		return nil
	}
	return m.EnergyCalibration.ToPolynomial().Coefficients()
}
