package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/config"
)

const sampleRctrkMarkers = `{
  "id": "track-1",
  "markers": [
    {
      "lat": 40.0,
      "lon": -111.0,
      "doseRate": 0.1,
      "countRate": 5,
      "date": 1686824400,
      "spectrum": {
        "channels": [1, 2, 3, 4],
        "duration": 9,
        "realTime": 10,
        "calibration": {"a": 0, "b": 3, "c": 0}
      }
    }
  ]
}`

const sampleRctrkSpectra = `{
  "id": "track-2",
  "spectra": [
    {
      "channels": [1, 1, 1, 1],
      "duration": 5,
      "realTime": 5,
      "calibration": {"a": 0, "b": 0, "c": 0}
    }
  ]
}`

func TestProbeRadiaCodeRecognizesMarkersAndSpectra(t *testing.T) {
	assert.True(t, probeRadiaCode([]byte(sampleRctrkMarkers)))
	assert.True(t, probeRadiaCode([]byte(sampleRctrkSpectra)))
}

func TestProbeRadiaCodeRejectsNonJSONObject(t *testing.T) {
	assert.False(t, probeRadiaCode([]byte(`["markers"]`)))
	assert.False(t, probeRadiaCode([]byte(`{"other": true}`)))
}

func TestParseRadiaCodeMarkerSpectrumUsesMarkerPosition(t *testing.T) {
	sf, err := parseRadiaCode([]byte(sampleRctrkMarkers), "test.rctrk", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.Equal(t, []float64{1, 2, 3, 4}, m.GammaCounts)
	assert.Equal(t, 9.0, m.LiveTime)
	assert.Equal(t, 10.0, m.RealTime)
	require.True(t, m.HasGPSInfo())
	assert.Equal(t, 40.0, *m.Latitude)
	assert.Equal(t, []float64{0, 3, 0}, m.EnergyCalibration.Coefficients())
}

func TestParseRadiaCodeStandaloneSpectrumUsesDefaultCalibration(t *testing.T) {
	sf, err := parseRadiaCode([]byte(sampleRctrkSpectra), "test.rctrk", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.False(t, m.HasGPSInfo())
	// All-zero calibration falls back to a default FRF scaled down from the
	// usual 3000 keV / 1024-channel range to this spectrum's 4 channels.
	assert.InDelta(t, 3000.0*4.0/1024.0, m.EnergyCalibration.UpperEnergy(), 1e-9)
}

func TestParseRadiaCodeErrorsOnEmptyFile(t *testing.T) {
	_, err := parseRadiaCode([]byte(`{"id": "empty"}`), "test.rctrk", config.Default())
	assert.Error(t, err)
}

func TestParseRadiaCodeRejectsNonJSON(t *testing.T) {
	_, err := parseRadiaCode([]byte(`not json`), "test.rctrk", config.Default())
	assert.Error(t, err)
}
