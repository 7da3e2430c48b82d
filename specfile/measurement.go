package specfile

import (
	"math"
	"time"

	"specutils/calibration"
)

// Measurement is one spectrum record: gamma channel counts, neutron tube
// counts, timing, and metadata, per spec.md section 3. A Measurement is
// normally owned exclusively by a *SpecFile; callers mutate it through the
// SpecFile-routed setters below so sample/detector indices and the
// `modified` flag stay correct (spec.md's "mutation routes through
// SpecFile" design note).
type Measurement struct {
	SampleNumber   int
	DetectorName   string
	DetectorNumber int

	LiveTime float64
	RealTime float64

	GammaCounts   []float64
	GammaCountSum float64

	EnergyCalibration *calibration.Calibration

	NeutronCounts    []float64
	NeutronCountsSum float64
	ContainedNeutron bool
	NeutronLiveTime  float64

	StartTime    time.Time // zero Time == "not-a-time"
	Latitude     *float64
	Longitude    *float64
	PositionTime *time.Time

	SourceType      SourceType
	QualityStatus   QualityStatus
	OccupancyStatus OccupancyStatus

	Title                  string
	MeasurementDescription string
	Remarks                []string
	ParseWarnings          []string

	PCFTag byte

	DoseRate           float64
	ExposureRate       float64
	Speed              float64
	DetectorTypeString string

	DerivedDataProperties DerivedDataFlag
}

// NewMeasurement constructs an empty Measurement for the given calibration.
// gammaCounts may be nil for a neutron-only record.
func NewMeasurement(cal *calibration.Calibration, gammaCounts []float64) *Measurement {
	m := &Measurement{EnergyCalibration: cal}
	if gammaCounts != nil {
		m.setGammaCountsUnchecked(gammaCounts)
	}
	m.NeutronLiveTime = m.RealTime
	return m
}

func sumFloats(vs []float64) float64 {
	s := 0.0
	for _, v := range vs {
		s += v
	}
	return s
}

func (m *Measurement) setGammaCountsUnchecked(counts []float64) {
	m.GammaCounts = counts
	m.GammaCountSum = sumFloats(counts)
}

// SetGammaCounts installs new channel counts; the caller's EnergyCalibration
// must already have a matching NumChannels, or the mismatch is recorded as
// a parse warning (spec.md's "after mutation, len == num_channels"
// invariant is advisory for external callers, not panic-enforced).
func (m *Measurement) SetGammaCounts(counts []float64) {
	m.setGammaCountsUnchecked(counts)
	m.checkChannelCountInvariant()
}

func (m *Measurement) checkChannelCountInvariant() {
	if m.EnergyCalibration == nil || m.GammaCounts == nil {
		return
	}
	if m.EnergyCalibration.NumChannels() != len(m.GammaCounts) {
		m.ParseWarnings = append(m.ParseWarnings,
			"gamma channel count does not match energy calibration channel count")
	}
}

// SetEnergyCalibration atomically swaps the shared calibration reference.
// Existing readers holding the old *calibration.Calibration are unaffected
// (it's immutable), matching the "swap never mutates behind callers"
// design note.
func (m *Measurement) SetEnergyCalibration(cal *calibration.Calibration) {
	m.EnergyCalibration = cal
	m.checkChannelCountInvariant()
}

// SetNeutronCounts installs new neutron tube counts and recomputes the sum.
func (m *Measurement) SetNeutronCounts(counts []float64) {
	m.NeutronCounts = counts
	m.NeutronCountsSum = sumFloats(counts)
	m.ContainedNeutron = len(counts) > 0
}

// SetTimes sets live/real time, demoting to zero and recording a parse
// warning if live_time > real_time (spec.md's Measurement invariant).
func (m *Measurement) SetTimes(liveTime, realTime float64) {
	if liveTime != 0 && realTime != 0 && liveTime > realTime {
		m.ParseWarnings = append(m.ParseWarnings, "live_time exceeded real_time; both demoted to zero")
		liveTime, realTime = 0, 0
	}
	m.LiveTime, m.RealTime = liveTime, realTime
}

// SetStartTime sets the measurement's start timestamp.
func (m *Measurement) SetStartTime(t time.Time) { m.StartTime = t }

// SetPosition sets GPS latitude/longitude and (optionally) the time they
// were recorded.
func (m *Measurement) SetPosition(lat, lon float64, at *time.Time) {
	m.Latitude, m.Longitude = &lat, &lon
	m.PositionTime = at
}

// HasGPSInfo reports whether both coordinates are present and in valid
// ranges, per spec.md section 3.
func (m *Measurement) HasGPSInfo() bool {
	if m.Latitude == nil || m.Longitude == nil {
		return false
	}
	return *m.Latitude >= -90 && *m.Latitude <= 90 && *m.Longitude >= -180 && *m.Longitude <= 180
}

// SetRemarks replaces the remarks list.
func (m *Measurement) SetRemarks(remarks []string) { m.Remarks = remarks }

// SetSourceType sets the IntrinsicActivity/Calibration/Background/
// Foreground/Unknown classification.
func (m *Measurement) SetSourceType(t SourceType) { m.SourceType = t }

// SetTitle sets the measurement title.
func (m *Measurement) SetTitle(title string) { m.Title = title }

// GammaChannelsSum returns the sum of counts in channels [a, b], with
// boundary channels contributing a fraction proportional to the overlap —
// here implemented as whole-channel inclusion since a/b are integral
// channel indices; see GammaIntegral for the energy-range, fractional-
// channel variant.
func (m *Measurement) GammaChannelsSum(a, b int) float64 {
	if len(m.GammaCounts) == 0 {
		return 0
	}
	if a < 0 {
		a = 0
	}
	if b >= len(m.GammaCounts) {
		b = len(m.GammaCounts) - 1
	}
	sum := 0.0
	for i := a; i <= b; i++ {
		sum += m.GammaCounts[i]
	}
	return sum
}

// GammaIntegral returns the count total over the energy range [eLow, eHigh],
// linearly interpolating within boundary channels so that a partial-channel
// overlap contributes a proportional fraction, per spec.md section 4.3.
func (m *Measurement) GammaIntegral(eLow, eHigh float64) float64 {
	if len(m.GammaCounts) == 0 || m.EnergyCalibration == nil {
		return 0
	}
	if eHigh < eLow {
		eLow, eHigh = eHigh, eLow
	}
	if math.IsInf(eLow, -1) {
		eLow = m.EnergyCalibration.LowerEnergy()
	}
	if math.IsInf(eHigh, 1) {
		eHigh = m.EnergyCalibration.UpperEnergy()
	}
	cLow := m.EnergyCalibration.ChannelForEnergy(eLow)
	cHigh := m.EnergyCalibration.ChannelForEnergy(eHigh)
	return m.fractionalChannelSum(cLow, cHigh)
}

func (m *Measurement) fractionalChannelSum(cLow, cHigh float64) float64 {
	n := len(m.GammaCounts)
	if cLow < 0 {
		cLow = 0
	}
	if cHigh > float64(n) {
		cHigh = float64(n)
	}
	if cHigh <= cLow {
		return 0
	}
	lo, hi := int(math.Floor(cLow)), int(math.Floor(cHigh))
	if lo == hi {
		if lo >= n {
			return 0
		}
		return m.GammaCounts[lo] * (cHigh - cLow)
	}
	sum := 0.0
	if lo < n {
		sum += m.GammaCounts[lo] * (float64(lo+1) - cLow)
	}
	for i := lo + 1; i < hi && i < n; i++ {
		sum += m.GammaCounts[i]
	}
	if hi < n {
		sum += m.GammaCounts[hi] * (cHigh - float64(hi))
	}
	return sum
}

// Rebin redistributes counts so the integral over each new channel equals
// the integral of the old piece-wise spectrum over the same energy range,
// per spec.md section 4.3. Peaks retain their energy; channel numbers
// change. newCal need not have the same NumChannels as the current
// calibration.
func (m *Measurement) Rebin(newCal *calibration.Calibration) error {
	if newCal == nil || newCal.Type() == calibration.Invalid {
		return &rebinError{"new calibration is invalid"}
	}
	edges := newCal.LowerChannelEnergies()
	n := len(edges) - 1
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		cLow := m.EnergyCalibration.ChannelForEnergy(edges[i])
		cHigh := m.EnergyCalibration.ChannelForEnergy(edges[i+1])
		out[i] = m.fractionalChannelSum(cLow, cHigh)
	}
	m.EnergyCalibration = newCal
	m.setGammaCountsUnchecked(out)
	return nil
}

type rebinError struct{ reason string }

func (e *rebinError) Error() string { return "rebin: " + e.reason }

// CombineGammaChannels sums k adjacent channels into one and derives a new
// EnergyCalibration via calibration.Calibration.CombineChannels, per
// spec.md section 4.3. Requires NumChannels % k == 0.
func (m *Measurement) CombineGammaChannels(k int) error {
	if k <= 0 || len(m.GammaCounts)%k != 0 {
		return &rebinError{"channel count not divisible by combine factor"}
	}
	n := len(m.GammaCounts) / k
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = sumFloats(m.GammaCounts[i*k : i*k+k])
	}
	newCal, err := m.EnergyCalibration.CombineChannels(k)
	if err != nil {
		return err
	}
	m.EnergyCalibration = newCal
	m.setGammaCountsUnchecked(out)
	return nil
}

// Clone returns a deep-enough copy for SpecFile.Clone: slices are copied so
// mutating the clone never affects the original, but the shared
// EnergyCalibration pointer is intentionally retained (it's immutable).
func (m *Measurement) Clone() *Measurement {
	c := *m
	c.GammaCounts = append([]float64(nil), m.GammaCounts...)
	c.NeutronCounts = append([]float64(nil), m.NeutronCounts...)
	c.Remarks = append([]string(nil), m.Remarks...)
	c.ParseWarnings = append([]string(nil), m.ParseWarnings...)
	if m.Latitude != nil {
		lat := *m.Latitude
		c.Latitude = &lat
	}
	if m.Longitude != nil {
		lon := *m.Longitude
		c.Longitude = &lon
	}
	if m.PositionTime != nil {
		pt := *m.PositionTime
		c.PositionTime = &pt
	}
	return &c
}
