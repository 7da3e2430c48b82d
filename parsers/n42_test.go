package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/calibration"
	"specutils/config"
	"specutils/serializers"
	"specutils/specfile"
)

const sampleN42_2012 = `<?xml version="1.0"?>
<N42InstrumentData xmlns="http://physics.nist.gov/N42/2011/N42">
  <RadInstrumentInformation>
    <RadInstrumentManufacturerName>Acme</RadInstrumentManufacturerName>
    <RadInstrumentModelName>Widget</RadInstrumentModelName>
  </RadInstrumentInformation>
  <RadMeasurement id="RadMeasurement-1">
    <StartDateTime>2023-06-15T10:30:00Z</StartDateTime>
    <RealTimeDuration>PT10S</RealTimeDuration>
    <Spectrum radDetectorInformationReference="Aa1">
      <LiveTimeDuration>PT9S</LiveTimeDuration>
      <ChannelData>1 2 3 4</ChannelData>
      <Calibration Type="Energy">
        <Equation Model="Polynomial">
          <Coefficients>0 10</Coefficients>
        </Equation>
      </Calibration>
    </Spectrum>
  </RadMeasurement>
</N42InstrumentData>
`

const sampleN42_2006 = `<?xml version="1.0"?>
<N42InstrumentData>
  <Measurement>
    <InstrumentInformation>
      <Manufacturer>Acme</Manufacturer>
      <InstrumentModel>Widget</InstrumentModel>
    </InstrumentInformation>
    <DetectorData>
      <StartTime>2023-06-15T10:30:00Z</StartTime>
      <DetectorMeasurement>
        <SpectrumMeasurement>
          <Spectrum radDetectorInformationReference="Aa1">
            <RealTime>PT10S</RealTime>
            <LiveTimeDuration>PT9S</LiveTimeDuration>
            <ChannelData>1 2 3 4</ChannelData>
          </Spectrum>
        </SpectrumMeasurement>
      </DetectorMeasurement>
    </DetectorData>
  </Measurement>
</N42InstrumentData>
`

func TestProbeN42_2012RequiresRadMeasurement(t *testing.T) {
	assert.True(t, probeN42_2012([]byte(sampleN42_2012)))
	assert.False(t, probeN42_2012([]byte(sampleN42_2006)))
}

func TestProbeN42_2006RejectsRadMeasurementDocs(t *testing.T) {
	assert.True(t, probeN42_2006([]byte(sampleN42_2006)))
	assert.False(t, probeN42_2006([]byte(sampleN42_2012)))
}

func TestParseN42_2012ReadsSpectrumAndCalibration(t *testing.T) {
	sf, err := parseN42_2012([]byte(sampleN42_2012), "test.n42", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.Equal(t, []float64{1, 2, 3, 4}, m.GammaCounts)
	assert.Equal(t, 9.0, m.LiveTime)
	assert.Equal(t, 10.0, m.RealTime)
	assert.Equal(t, "Aa1", m.DetectorName)
	assert.Equal(t, []float64{0, 10}, m.EnergyCalibration.Coefficients())
	assert.Equal(t, "Acme", sf.Manufacturer)
}

func TestParseN42_2006ReadsLegacyNesting(t *testing.T) {
	sf, err := parseN42_2006([]byte(sampleN42_2006), "test.n42", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	assert.Equal(t, []float64{1, 2, 3, 4}, m.GammaCounts)
	assert.Equal(t, 10.0, m.RealTime)
	assert.Equal(t, "Widget", sf.InstrumentModel)
}

func TestParseN42ErrorsWhenNoSpectraPresent(t *testing.T) {
	body := `<?xml version="1.0"?><N42InstrumentData><RadMeasurement></RadMeasurement></N42InstrumentData>`
	_, err := parseN42_2012([]byte(body), "test.n42", config.Default())
	assert.Error(t, err)
}

func TestParseN42RoundTripsThroughWriteN42(t *testing.T) {
	sf := specfile.New()
	sf.Manufacturer = "Acme"
	sf.InstrumentModel = "Widget"
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := specfile.NewMeasurement(cal, []float64{1, 2, 3, 4})
	m.DetectorName = "Aa1"
	m.SetTimes(9, 10)
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)

	out, err := serializers.WriteN42(sf)
	require.NoError(t, err)

	readBack, err := parseN42_2012(out, "roundtrip.n42", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, readBack.NumMeasurements())
	assert.Equal(t, []float64{1, 2, 3, 4}, readBack.Measurement(0).GammaCounts)
	assert.Equal(t, []float64{0, 10}, readBack.Measurement(0).EnergyCalibration.Coefficients())
}
