package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/config"
)

const sampleAmptek = `<<PMCA SPECTRUM>>
TAG - 100
GAIN - 3.0
LIVE_TIME - 9.0
REAL_TIME - 10.0
SERIAL_NUMBER - SN123
<<DATA>>
1
2
3
<<END>>
<<DP5 CONFIGURATION>>
Device Type: DP5
Serial Number: SN123
<<DP5 CONFIGURATION END>>
`

func TestProbeAmptekRecognizesHeaderTag(t *testing.T) {
	assert.True(t, probeAmptek([]byte(sampleAmptek)))
}

func TestProbeAmptekRejectsUnrelatedText(t *testing.T) {
	assert.False(t, probeAmptek([]byte("plain text file")))
}

func TestParseAmptekReadsCountsTimesAndCalibration(t *testing.T) {
	sf, err := parseAmptek([]byte(sampleAmptek), "test.mca", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.Equal(t, []float64{1, 2, 3}, m.GammaCounts)
	assert.Equal(t, 9.0, m.LiveTime)
	assert.Equal(t, 10.0, m.RealTime)
	assert.Equal(t, []float64{0, 3}, m.EnergyCalibration.Coefficients())
	assert.Equal(t, "DP5", sf.InstrumentModel)
	assert.Equal(t, "SN123", sf.InstrumentID)
	assert.Contains(t, m.Remarks, "Device Type: DP5")
}

func TestParseAmptekFallsBackToDefaultCalibrationWithoutGain(t *testing.T) {
	body := "<<PMCA SPECTRUM>>\n<<DATA>>\n1\n2\n<<END>>\n"
	sf, err := parseAmptek([]byte(body), "test.mca", config.Default())
	require.NoError(t, err)
	assert.Equal(t, 3000.0, sf.Measurement(0).EnergyCalibration.UpperEnergy())
}

func TestParseAmptekErrorsWithoutDataBlock(t *testing.T) {
	_, err := parseAmptek([]byte("<<PMCA SPECTRUM>>\nTAG - 1\n"), "test.mca", config.Default())
	assert.Error(t, err)
}
