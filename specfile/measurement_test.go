package specfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/calibration"
)

func flatCounts(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewMeasurementSumsGammaCounts(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, []float64{1, 2, 3, 4})
	assert.Equal(t, 10.0, m.GammaCountSum)
}

func TestSetTimesDemotesWhenLiveExceedsReal(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	m.SetTimes(20, 10)
	assert.Equal(t, 0.0, m.LiveTime)
	assert.Equal(t, 0.0, m.RealTime)
	require.Len(t, m.ParseWarnings, 1)
}

func TestSetTimesKeepsValidOrdering(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	m.SetTimes(5, 10)
	assert.Equal(t, 5.0, m.LiveTime)
	assert.Equal(t, 10.0, m.RealTime)
	assert.Empty(t, m.ParseWarnings)
}

func TestSetGammaCountsWarnsOnChannelMismatch(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	m.SetGammaCounts(flatCounts(8, 1))
	require.Len(t, m.ParseWarnings, 1)
}

func TestHasGPSInfoRequiresBothCoordinatesInRange(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	assert.False(t, m.HasGPSInfo())

	m.SetPosition(40.0, -111.0, nil)
	assert.True(t, m.HasGPSInfo())

	m.SetPosition(400.0, -111.0, nil)
	assert.False(t, m.HasGPSInfo())
}

func TestGammaChannelsSumClampsRange(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, []float64{1, 2, 3, 4})
	assert.Equal(t, 10.0, m.GammaChannelsSum(-5, 100))
	assert.Equal(t, 2.0, m.GammaChannelsSum(1, 1))
}

func TestGammaIntegralMatchesWholeSpectrumSum(t *testing.T) {
	cal := calibration.NewPolynomial(100, []float64{0, 10}, nil)
	counts := flatCounts(100, 2)
	m := NewMeasurement(cal, counts)
	total := m.GammaIntegral(cal.LowerEnergy(), cal.UpperEnergy())
	assert.InDelta(t, 200.0, total, 1e-6)
}

func TestGammaIntegralHandlesPartialChannelOverlap(t *testing.T) {
	cal := calibration.NewPolynomial(10, []float64{0, 10}, nil) // 10 keV/channel
	counts := flatCounts(10, 1)
	m := NewMeasurement(cal, counts)
	// [5, 15) keV covers the upper half of channel 0 and the lower half of
	// channel 1, each contributing half their count.
	got := m.GammaIntegral(5, 15)
	assert.InDelta(t, 1.0, got, 1e-6)
}

func TestRebinPreservesTotalCounts(t *testing.T) {
	srcCal := calibration.NewPolynomial(100, []float64{0, 10}, nil)
	m := NewMeasurement(srcCal, flatCounts(100, 3))
	dstCal := calibration.NewPolynomial(50, []float64{0, 20}, nil)

	require.NoError(t, m.Rebin(dstCal))
	assert.Len(t, m.GammaCounts, 50)
	assert.InDelta(t, 300.0, m.GammaCountSum, 1e-6)
}

func TestRebinRejectsInvalidCalibration(t *testing.T) {
	srcCal := calibration.NewPolynomial(100, []float64{0, 10}, nil)
	m := NewMeasurement(srcCal, flatCounts(100, 1))
	bad := calibration.NewPolynomial(1, nil, nil)
	assert.Error(t, m.Rebin(bad))
}

func TestCombineGammaChannelsHalvesChannelCount(t *testing.T) {
	cal := calibration.NewPolynomial(8, []float64{0, 10}, nil)
	m := NewMeasurement(cal, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	require.NoError(t, m.CombineGammaChannels(2))
	assert.Equal(t, []float64{2, 4, 6, 8}, m.GammaCounts)
	assert.Equal(t, 4, m.EnergyCalibration.NumChannels())
}

func TestCombineGammaChannelsRejectsIndivisibleCount(t *testing.T) {
	cal := calibration.NewPolynomial(7, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(7, 1))
	assert.Error(t, m.CombineGammaChannels(2))
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, []float64{1, 2, 3, 4})
	lat := 10.0
	m.SetPosition(lat, 20.0, nil)
	m.SetRemarks([]string{"original"})

	clone := m.Clone()
	clone.GammaCounts[0] = 999
	clone.Remarks[0] = "changed"
	*clone.Latitude = 50.0

	assert.Equal(t, 1.0, m.GammaCounts[0])
	assert.Equal(t, "original", m.Remarks[0])
	assert.Equal(t, 10.0, *m.Latitude)
	assert.Same(t, m.EnergyCalibration, clone.EnergyCalibration)
}

func TestSetNeutronCountsComputesSumAndFlag(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	assert.False(t, m.ContainedNeutron)

	m.SetNeutronCounts([]float64{1, 2, 3})
	assert.True(t, m.ContainedNeutron)
	assert.Equal(t, 6.0, m.NeutronCountsSum)
}

func TestSetStartTimeRoundTrips(t *testing.T) {
	cal := calibration.NewPolynomial(4, []float64{0, 10}, nil)
	m := NewMeasurement(cal, flatCounts(4, 1))
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.SetStartTime(now)
	assert.True(t, m.StartTime.Equal(now))
}
