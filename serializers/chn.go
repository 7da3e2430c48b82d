package serializers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"specutils/specfile"
)

// WriteCHN serializes sf into a single Ortec integer CHN record, mirroring
// chn.go's parser header layout in reverse. CHN carries exactly one
// spectrum per file, so multiple Measurements are summed first via
// SpecFile.SumMeasurements (nil samples/detectors selects everything);
// an empty SpecFile is a clean error rather than an empty file.
func WriteCHN(sf *specfile.SpecFile) ([]byte, error) {
	m, err := singleMeasurement(sf)
	if err != nil {
		return nil, err
	}
	if len(m.GammaCounts) < 128 || len(m.GammaCounts) > 32768 {
		return nil, fmt.Errorf("CHN requires 128-32768 channels, have %d", len(m.GammaCounts))
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(-1))
	binary.Write(&buf, binary.LittleEndian, int16(1)) // MCA number
	binary.Write(&buf, binary.LittleEndian, int16(1)) // segment
	writeChnFixedASCII(&buf, fmt.Sprintf("%02d", secondsField(m.StartTime)), 2)
	binary.Write(&buf, binary.LittleEndian, uint32(m.RealTime*50))
	binary.Write(&buf, binary.LittleEndian, uint32(m.LiveTime*50))
	writeChnDate(&buf, m.StartTime)
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // first_channel
	binary.Write(&buf, binary.LittleEndian, uint16(len(m.GammaCounts)))

	for _, c := range m.GammaCounts {
		binary.Write(&buf, binary.LittleEndian, uint32(c))
	}

	binary.Write(&buf, binary.LittleEndian, int16(-101))
	coeffs := chnCalibrationCoefficients(m)
	for _, c := range coeffs {
		binary.Write(&buf, binary.LittleEndian, float32(c))
	}
	buf.Write(make([]byte, 242)) // reserved through footer+256

	// Length byte plus 63-byte text at footer+256 (description) and
	// footer+320 (title), as the parser reads them.
	for _, s := range []string{m.MeasurementDescription, m.Title} {
		if len(s) > 63 {
			s = s[:63]
		}
		buf.WriteByte(byte(len(s)))
		writeChnFixedASCII(&buf, s, 63)
	}

	return buf.Bytes(), nil
}

func secondsField(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return t.Second()
}

func writeChnFixedASCII(buf *bytes.Buffer, s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	buf.Write(b)
}

func writeChnDate(buf *bytes.Buffer, t time.Time) {
	if t.IsZero() {
		t = time.Unix(0, 0).UTC()
	}
	writeChnFixedASCII(buf, fmt.Sprintf("%02d", t.Day()), 2)
	writeChnFixedASCII(buf, chnMonthName(t.Month()), 3)
	writeChnFixedASCII(buf, fmt.Sprintf("%02d", t.Year()%100), 2)
	// century is a single ASCII flag byte, '0' for 19xx and '1' for 20xx+,
	// matching parseChnTimestamp's check on the raw byte rather than a
	// two-digit century number.
	if t.Year() >= 2000 {
		buf.WriteByte('1')
	} else {
		buf.WriteByte('0')
	}
	writeChnFixedASCII(buf, fmt.Sprintf("%02d", t.Hour()), 2)
	writeChnFixedASCII(buf, fmt.Sprintf("%02d", t.Minute()), 2)
}

func chnMonthName(m time.Month) string {
	names := [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	return names[m-1]
}

// chnCalibrationCoefficients extracts up to 3 polynomial coefficients:
// FRF calibrations are converted to polynomial form first, so the written
// footer always carries plain polynomial coefficients.
func chnCalibrationCoefficients(m *specfile.Measurement) [3]float64 {
	var out [3]float64
	if m.EnergyCalibration == nil {
		return out
	}
	coeffs := m.EnergyCalibration.ToPolynomial().Coefficients()
	for i := 0; i < 3 && i < len(coeffs); i++ {
		out[i] = coeffs[i]
	}
	return out
}

func singleMeasurement(sf *specfile.SpecFile) (*specfile.Measurement, error) {
	if sf.NumMeasurements() == 0 {
		return nil, fmt.Errorf("cannot serialize an empty SpecFile to a single-spectrum format")
	}
	if sf.NumMeasurements() == 1 {
		return sf.Measurement(0), nil
	}
	return sf.SumMeasurements(nil, nil)
}
