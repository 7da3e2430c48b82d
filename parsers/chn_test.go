package parsers

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/calibration"
	"specutils/config"
	"specutils/serializers"
	"specutils/specfile"
)

// buildChn assembles a minimal valid Ortec CHN byte buffer: the 32-byte
// header, n uint32 channel counts, and a footer carrying a polynomial
// calibration, mirroring the layout parseChn reads.
func buildChn(n int, counts []uint32, c0, c1, c2 float32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int16(-1)) // magic
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mca number
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // segment
	buf.WriteString("00")                              // seconds
	binary.Write(&buf, binary.LittleEndian, uint32(10*50)) // real time
	binary.Write(&buf, binary.LittleEndian, uint32(9*50))  // live time
	buf.WriteString("15")                              // day
	buf.WriteString("Jun")                             // month
	buf.WriteString("23")                               // year
	buf.WriteByte('1')                                  // century (>=2000)
	buf.WriteString("10")                               // hour
	buf.WriteString("30")                               // minute
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // first_channel
	binary.Write(&buf, binary.LittleEndian, uint16(n)) // num_channels
	for i := 0; i < n; i++ {
		v := uint32(0)
		if i < len(counts) {
			v = counts[i]
		}
		binary.Write(&buf, binary.LittleEndian, v)
	}
	binary.Write(&buf, binary.LittleEndian, int16(-101)) // chntype
	binary.Write(&buf, binary.LittleEndian, c0)
	binary.Write(&buf, binary.LittleEndian, c1)
	binary.Write(&buf, binary.LittleEndian, c2)
	buf.Write(make([]byte, 228)) // reserved
	return buf.Bytes()
}

func TestProbeChnRecognizesMagic(t *testing.T) {
	data := buildChn(128, nil, 0, 3, 0)
	assert.True(t, probeChn(data))
}

func TestProbeChnRejectsShortInput(t *testing.T) {
	assert.False(t, probeChn([]byte{0xFF, 0xFF}))
}

func TestProbeChnRejectsWrongMagic(t *testing.T) {
	data := buildChn(128, nil, 0, 3, 0)
	data[0] = 0x01
	assert.False(t, probeChn(data))
}

func TestParseChnReadsHeaderAndCounts(t *testing.T) {
	counts := make([]uint32, 128)
	for i := range counts {
		counts[i] = uint32(i)
	}
	data := buildChn(128, counts, 0, 3, 0)

	sf, err := parseChn(data, "test.chn", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.Equal(t, 10.0, m.RealTime)
	assert.Equal(t, 9.0, m.LiveTime)
	require.Len(t, m.GammaCounts, 128)
	// First/last two channels are zeroed by the reader per the Ortec
	// convention of storing housekeeping values there.
	assert.Equal(t, 0.0, m.GammaCounts[0])
	assert.Equal(t, 0.0, m.GammaCounts[127])
	assert.Equal(t, 5.0, m.GammaCounts[5])
}

func TestParseChnRejectsNonPowerOfTwoChannelCount(t *testing.T) {
	data := buildChn(130, nil, 0, 3, 0)
	_, err := parseChn(data, "test.chn", config.Default())
	assert.Error(t, err)
}

func TestParseChnRejectsBadMagic(t *testing.T) {
	data := buildChn(128, nil, 0, 3, 0)
	data[0] = 0x05
	_, err := parseChn(data, "test.chn", config.Default())
	assert.Error(t, err)
}

func TestParseChnAppliesFirstChannelShift(t *testing.T) {
	counts := make([]uint32, 128)
	for i := range counts {
		counts[i] = uint32(i + 1)
	}
	data := buildChn(128, counts, 0, 3, 0)
	// first_channel sits at byte offset 28, right after the fixed 28-byte
	// header prefix (magic, mca, segment, seconds, real/live time, date).
	binary.LittleEndian.PutUint16(data[28:30], 1)

	sf, err := parseChn(data, "test.chn", config.Default())
	require.NoError(t, err)
	// channelShift==1 means the reader starts filling at index 1 using
	// the stream's first value (counts[0]==1), so GammaCounts[2] ends up
	// holding the stream's second value (counts[1]==2), one slot behind
	// where it would land with no shift.
	assert.Equal(t, float64(counts[1]), sf.Measurement(0).GammaCounts[2])
}

func TestParseChnRoundTripsThroughWriteCHN(t *testing.T) {
	cal := calibration.NewPolynomial(128, []float64{0, 3, 0}, nil)
	counts := make([]float64, 128)
	for i := range counts {
		counts[i] = float64(i)
	}
	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(9, 10)

	sf := specfile.New()
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)

	out, err := serializers.WriteCHN(sf)
	require.NoError(t, err)

	readBack, err := parseChn(out, "roundtrip.chn", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, readBack.NumMeasurements())

	rm := readBack.Measurement(0)
	assert.Equal(t, 9.0, rm.LiveTime)
	assert.Equal(t, 10.0, rm.RealTime)
	assert.Equal(t, []float64{0, 3, 0}, rm.EnergyCalibration.Coefficients())
	// Channels 0, 1, n-2, n-1 are zeroed by the reader regardless of what
	// was written, matching parseChn's housekeeping-slot convention.
	assert.Equal(t, float64(5), rm.GammaCounts[5])
}
