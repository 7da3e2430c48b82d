package parsers

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/config"
)

func bcdByte(v int) byte {
	return byte((v/10)<<4 | (v % 10))
}

// buildGR13x assembles a minimal record of the given size with the magic,
// a BCD timestamp at offset 9, a polynomial calibration at calOffset, and
// ascending uint16 channel data starting at offset 48.
func buildGR13x(size, calOffset, channels int, coeffs [3]float32) []byte {
	buf := make([]byte, size)
	copy(buf[0:4], "ZZZZ")
	ts := []byte{bcdByte(23), bcdByte(6), bcdByte(15), bcdByte(10), bcdByte(30), bcdByte(0)}
	copy(buf[9:15], ts)
	for i, c := range coeffs {
		binary.LittleEndian.PutUint32(buf[calOffset+i*4:], math.Float32bits(c))
	}
	for i := 0; i < channels; i++ {
		binary.LittleEndian.PutUint16(buf[48+i*2:], uint16(i))
	}
	return buf
}

func TestProbeGR13xRequiresMagicAndMinimumLength(t *testing.T) {
	data := buildGR13x(2099, 31, 256, [3]float32{0, 11.71875, 0})
	assert.True(t, probeGR13x(data))
	assert.False(t, probeGR13x([]byte("ZZ")))
	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	assert.False(t, probeGR13x(bad))
}

func TestParseGR130ReadsChannelsAndCalibration(t *testing.T) {
	data := buildGR13x(2099, 31, 256, [3]float32{0, 11.71875, 0})
	sf, err := parseGR130(data, "test.gr1", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	require.Len(t, m.GammaCounts, 256)
	assert.Equal(t, 5.0, m.GammaCounts[5])
	assert.InDelta(t, 11.71875, m.EnergyCalibration.Coefficients()[1], 1e-4)
	assert.True(t, m.StartTime.Equal(time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)))
}

func TestParseGR135ReadsWiderChannelCount(t *testing.T) {
	data := buildGR13x(2099, 31, 1024, [3]float32{0, 2.9296875, 0})
	sf, err := parseGR135(data, "test.gr1", config.Default())
	require.NoError(t, err)
	require.Len(t, sf.Measurement(0).GammaCounts, 1024)
}

func TestParseGR130RejectsGR135SizedRecord(t *testing.T) {
	data := buildGR13x(2124, 44, 1024, [3]float32{0, 2.9296875, 0})
	_, err := parseGR130(data, "test.gr1", config.Default())
	assert.Error(t, err)
}

func TestParseGR13xFallsBackToDefaultCalibrationOnNaN(t *testing.T) {
	data := buildGR13x(2099, 31, 256, [3]float32{float32(math.NaN()), 0, 0})
	sf, err := parseGR130(data, "test.gr1", config.Default())
	require.NoError(t, err)
	m := sf.Measurement(0)
	assert.InDelta(t, 3000.0/256, m.EnergyCalibration.Coefficients()[1], 1e-9)
	assert.NotEmpty(t, m.ParseWarnings)
}
