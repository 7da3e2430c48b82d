package specfile

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"specutils/calibration"
	"specutils/config"
)

// SpecFile is the aggregate root spec.md section 3 describes: an ordered
// collection of Measurements plus the file-level metadata and derived
// indices cleanup_after_load computes. Callers load/parse into one,
// optionally call CleanupAfterLoad, then query or serialize it.
type SpecFile struct {
	measurements []*Measurement

	sampleNumbers    []int
	detectorNames    []string
	gammaDetNames    []string
	neutronDetNames  []string
	byKey            map[measurementKey]*Measurement

	Filename           string
	UUID               string
	InstrumentType     string
	Manufacturer       string
	InstrumentModel    string
	InstrumentID       string
	DetectorTypeGuess  DetectorType
	LaneNumber         int
	MeasurementLocName string
	InspectionType     string
	Operator           string

	Remarks       []string
	ParseWarnings []string

	DetectorAnalysisRemarks []string

	ContainsDerivedData    bool
	ContainsNonDerivedData bool

	modified bool

	calDedup map[string]*calibration.Calibration

	Guardrails config.Guardrails
}

type measurementKey struct {
	sample   int
	detector string
}

// New returns an empty SpecFile with default guardrails.
func New() *SpecFile {
	return &SpecFile{
		byKey:                  make(map[measurementKey]*Measurement),
		calDedup:               make(map[string]*calibration.Calibration),
		ContainsNonDerivedData: true,
		Guardrails:             config.Default(),
	}
}

// AddMeasurement appends m to the file. If doCleanup is true,
// CleanupAfterLoad(StandardCleanup) runs afterward; batch loaders should
// pass false for every Measurement but the last for speed, matching the
// "single combined renumbering pass" guidance in spec.md section 4.6.
func (s *SpecFile) AddMeasurement(m *Measurement, doCleanup bool) {
	s.measurements = append(s.measurements, m)
	s.modified = true
	if m.EnergyCalibration != nil {
		s.internCalibration(m)
	}
	if doCleanup {
		s.CleanupAfterLoad(StandardCleanup)
		s.modified = true
	}
}

// internCalibration replaces m's calibration with a structurally-equal one
// already owned by this file, if any, so SpecFile never holds two distinct
// *calibration.Calibration values with identical content (spec.md section
// 4.2's dedup-by-structural-equality requirement).
func (s *SpecFile) internCalibration(m *Measurement) {
	key := m.EnergyCalibration.Key()
	if existing, ok := s.calDedup[key]; ok {
		m.EnergyCalibration = existing
		return
	}
	s.calDedup[key] = m.EnergyCalibration
}

// RemoveMeasurement removes m from the file, if present.
func (s *SpecFile) RemoveMeasurement(m *Measurement) {
	for i, mm := range s.measurements {
		if mm == m {
			s.measurements = append(s.measurements[:i], s.measurements[i+1:]...)
			s.modified = true
			return
		}
	}
}

// RemoveMeasurements removes every Measurement for which keep returns false.
func (s *SpecFile) RemoveMeasurements(keep func(*Measurement) bool) {
	out := s.measurements[:0]
	for _, m := range s.measurements {
		if keep(m) {
			out = append(out, m)
		} else {
			s.modified = true
		}
	}
	s.measurements = out
}

// Reset clears the SpecFile back to New()'s state.
func (s *SpecFile) Reset() {
	*s = *New()
}

// NumMeasurements returns the number of Measurements in the file.
func (s *SpecFile) NumMeasurements() int { return len(s.measurements) }

// Measurement returns the i'th Measurement in load order.
func (s *SpecFile) Measurement(i int) *Measurement { return s.measurements[i] }

// Measurements returns every Measurement in load order.
func (s *SpecFile) Measurements() []*Measurement { return s.measurements }

// MeasurementByKey returns the Measurement for a given (sample, detector)
// pair, computed by the last CleanupAfterLoad call.
func (s *SpecFile) MeasurementByKey(sample int, detector string) (*Measurement, bool) {
	m, ok := s.byKey[measurementKey{sample, detector}]
	return m, ok
}

// SampleNumbers returns the sorted, de-duplicated sample numbers known as of
// the last CleanupAfterLoad call.
func (s *SpecFile) SampleNumbers() []int { return s.sampleNumbers }

// DetectorNames returns every detector name, in first-seen order.
func (s *SpecFile) DetectorNames() []string { return s.detectorNames }

// GammaDetectorNames returns detector names that produced gamma counts.
func (s *SpecFile) GammaDetectorNames() []string { return s.gammaDetNames }

// NeutronDetectorNames returns detector names that produced neutron counts.
func (s *SpecFile) NeutronDetectorNames() []string { return s.neutronDetNames }

// SumGammaLiveTime sums LiveTime across every Measurement.
func (s *SpecFile) SumGammaLiveTime() float64 {
	var t float64
	for _, m := range s.measurements {
		t += m.LiveTime
	}
	return t
}

// SumGammaRealTime sums RealTime across every Measurement.
func (s *SpecFile) SumGammaRealTime() float64 {
	var t float64
	for _, m := range s.measurements {
		t += m.RealTime
	}
	return t
}

// GammaCountSum sums GammaCountSum across every Measurement.
func (s *SpecFile) GammaCountSum() float64 {
	var t float64
	for _, m := range s.measurements {
		t += m.GammaCountSum
	}
	return t
}

// NeutronCountsSum sums NeutronCountsSum across every Measurement.
func (s *SpecFile) NeutronCountsSum() float64 {
	var t float64
	for _, m := range s.measurements {
		t += m.NeutronCountsSum
	}
	return t
}

// HasGPSInfo reports whether any Measurement carries valid GPS coordinates.
func (s *SpecFile) HasGPSInfo() bool {
	for _, m := range s.measurements {
		if m.HasGPSInfo() {
			return true
		}
	}
	return false
}

// MeanLatitude and MeanLongitude average GPS coordinates across every
// Measurement that has them, per spec.md section 4.6.
func (s *SpecFile) MeanLatitude() (float64, bool)  { return s.meanCoord(true) }
func (s *SpecFile) MeanLongitude() (float64, bool) { return s.meanCoord(false) }

func (s *SpecFile) meanCoord(lat bool) (float64, bool) {
	var sum float64
	var n int
	for _, m := range s.measurements {
		if !m.HasGPSInfo() {
			continue
		}
		if lat {
			sum += *m.Latitude
		} else {
			sum += *m.Longitude
		}
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MemorySize estimates in-memory footprint, formatted the way
// github.com/dustin/go-humanize renders it for operator-facing diagnostics
// (spec.md section 6's "inspect" surface).
func (s *SpecFile) MemorySize() string {
	var bytes uint64
	bytes += uint64(len(s.measurements)) * 200
	for _, m := range s.measurements {
		bytes += uint64(len(m.GammaCounts)) * 8
		bytes += uint64(len(m.NeutronCounts)) * 8
		if m.EnergyCalibration != nil {
			bytes += uint64(len(m.EnergyCalibration.Coefficients())) * 8
		}
	}
	return humanize.Bytes(bytes)
}

// Modified reports whether the SpecFile has been mutated since load (or
// since the last call to ClearModified).
func (s *SpecFile) Modified() bool { return s.modified }

// ClearModified resets the modified flag, e.g. immediately after a
// successful write-out.
func (s *SpecFile) ClearModified() { s.modified = false }

// ChangeDetectorName renames every Measurement whose DetectorName equals
// oldName, then recomputes derived indices.
func (s *SpecFile) ChangeDetectorName(oldName, newName string) {
	changed := false
	for _, m := range s.measurements {
		if m.DetectorName == oldName {
			m.DetectorName = newName
			changed = true
		}
	}
	s.CleanupAfterLoad(DontChangeOrReorderSamples)
	if changed {
		s.modified = true
	}
}

// SumMeasurements returns a synthetic Measurement summing gamma/neutron
// counts across every Measurement whose sample number is in samples and
// whose detector name is in detectors (empty slices mean "all"), per
// spec.md section 4.3's combine-for-display operation. All contributing
// Measurements must share a channel count compatible with rebinning onto
// the first one's calibration.
func (s *SpecFile) SumMeasurements(samples []int, detectors []string) (*Measurement, error) {
	sampleSet := toSet(samples)
	detSet := toSetStr(detectors)

	var base *Measurement
	var gamma, neutron []float64
	var liveTime, realTime float64
	var anyNeutron bool

	for _, m := range s.measurements {
		if len(sampleSet) > 0 && !sampleSet[m.SampleNumber] {
			continue
		}
		if len(detSet) > 0 && !detSet[m.DetectorName] {
			continue
		}
		if base == nil {
			base = m
			gamma = append([]float64(nil), m.GammaCounts...)
			neutron = append([]float64(nil), m.NeutronCounts...)
			liveTime, realTime = m.LiveTime, m.RealTime
			anyNeutron = m.ContainedNeutron
			continue
		}
		counts := m.GammaCounts
		if base.EnergyCalibration != nil && m.EnergyCalibration != nil &&
			!base.EnergyCalibration.Equal(m.EnergyCalibration) {
			tmp := m.Clone()
			if err := tmp.Rebin(base.EnergyCalibration); err != nil {
				return nil, fmt.Errorf("sum_measurements: %w", err)
			}
			counts = tmp.GammaCounts
		}
		for i := range gamma {
			if i < len(counts) {
				gamma[i] += counts[i]
			}
		}
		for i := range neutron {
			if i < len(m.NeutronCounts) {
				neutron[i] += m.NeutronCounts[i]
			}
		}
		liveTime += m.LiveTime
		realTime += m.RealTime
		anyNeutron = anyNeutron || m.ContainedNeutron
	}
	if base == nil {
		return nil, fmt.Errorf("sum_measurements: no matching measurements")
	}

	out := NewMeasurement(base.EnergyCalibration, gamma)
	out.SetNeutronCounts(neutron)
	out.ContainedNeutron = anyNeutron
	out.SetTimes(liveTime, realTime)
	out.DetectorName = "summed"
	out.DerivedDataProperties |= DerivedProcessedSum
	return out, nil
}

func toSet(vs []int) map[int]bool {
	if len(vs) == 0 {
		return nil
	}
	m := make(map[int]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func toSetStr(vs []string) map[string]bool {
	if len(vs) == 0 {
		return nil
	}
	m := make(map[string]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

// CleanupAfterLoad recomputes every stored derived index (sample numbers,
// detector name lists, the (sample,detector) lookup map, derived-data
// flags, and the pseudo-UUID), per spec.md section 4.6; the passthrough
// flag and mean GPS are not stored but computed on each call to
// Passthrough and MeanLatitude/MeanLongitude. Parsers
// call this once after populating Measurements; AddMeasurement(m, true)
// calls it automatically.
func (s *SpecFile) CleanupAfterLoad(flags CleanupFlags) {
	if flags != DontChangeOrReorderSamples {
		s.assignSampleNumbers(flags == ReorderSamplesByTime)
	}

	s.byKey = make(map[measurementKey]*Measurement, len(s.measurements))
	sampleSet := map[int]bool{}
	var detNames, gammaDet, neutronDet []string
	seenDet, seenGammaDet, seenNeutronDet := map[string]bool{}, map[string]bool{}, map[string]bool{}

	derivedAny, nonDerivedAny := false, false

	for _, m := range s.measurements {
		s.byKey[measurementKey{m.SampleNumber, m.DetectorName}] = m
		sampleSet[m.SampleNumber] = true

		if !seenDet[m.DetectorName] {
			seenDet[m.DetectorName] = true
			detNames = append(detNames, m.DetectorName)
		}
		if len(m.GammaCounts) > 0 && !seenGammaDet[m.DetectorName] {
			seenGammaDet[m.DetectorName] = true
			gammaDet = append(gammaDet, m.DetectorName)
		}
		if m.ContainedNeutron && !seenNeutronDet[m.DetectorName] {
			seenNeutronDet[m.DetectorName] = true
			neutronDet = append(neutronDet, m.DetectorName)
		}
		if m.EnergyCalibration != nil {
			s.internCalibration(m)
		}
		if m.DerivedDataProperties != 0 {
			derivedAny = true
		} else {
			nonDerivedAny = true
		}
	}

	samples := make([]int, 0, len(sampleSet))
	for k := range sampleSet {
		samples = append(samples, k)
	}
	sort.Ints(samples)

	s.sampleNumbers = samples
	s.detectorNames = detNames
	s.gammaDetNames = gammaDet
	s.neutronDetNames = neutronDet
	s.ContainsDerivedData = derivedAny
	s.ContainsNonDerivedData = nonDerivedAny || !derivedAny

	if s.DetectorTypeGuess == DetectorUnknown {
		s.DetectorTypeGuess = s.guessDetectorType()
	}

	s.UUID = s.derivePseudoUUID()
	s.modified = false
}

// assignSampleNumbers groups Measurements sharing a start time into the
// same sample number, in either load order or start-time order, per
// spec.md section 4.6's sample/detector numbering pass.
func (s *SpecFile) assignSampleNumbers(byTime bool) {
	order := make([]int, len(s.measurements))
	for i := range order {
		order[i] = i
	}
	if byTime {
		sort.SliceStable(order, func(a, b int) bool {
			return s.measurements[order[a]].StartTime.Before(s.measurements[order[b]].StartTime)
		})
	}

	sampleOf := map[time.Time]int{}
	next := 1
	for _, idx := range order {
		m := s.measurements[idx]
		if m.StartTime.IsZero() {
			m.SampleNumber = next
			next++
			continue
		}
		n, ok := sampleOf[m.StartTime]
		if !ok {
			n = next
			sampleOf[m.StartTime] = n
			next++
		}
		m.SampleNumber = n
	}
}

// passthrough reports whether this file looks like a portal-monitor
// passthrough recording: many short samples rather than one long count,
// per spec.md section 4.6's explicitly-frozen, configurable heuristic.
func (s *SpecFile) passthrough() bool {
	g := s.Guardrails.WithDefaults()
	if len(s.sampleNumbers) < g.PassthroughMinSamples {
		return false
	}
	realTimes := make([]float64, 0, len(s.measurements))
	for _, m := range s.measurements {
		if m.RealTime > 0 {
			realTimes = append(realTimes, m.RealTime)
		}
	}
	if len(realTimes) == 0 {
		return false
	}
	sort.Float64s(realTimes)
	median := realTimes[len(realTimes)/2]
	if len(realTimes)%2 == 0 {
		median = (realTimes[len(realTimes)/2-1] + realTimes[len(realTimes)/2]) / 2
	}
	return median < g.PassthroughMaxMedianRealTime
}

// Passthrough exposes the passthrough() heuristic result.
func (s *SpecFile) Passthrough() bool { return s.passthrough() }

// guessDetectorType returns DetectorTypeGuess unchanged; it does not infer
// a type from instrument metadata. Parsers that recognize their own
// format's signature (CHN, RadiaCode, ...) set DetectorTypeGuess directly;
// for the other formats it stays DetectorUnknown.
func (s *SpecFile) guessDetectorType() DetectorType {
	return s.DetectorTypeGuess
}

// derivePseudoUUID computes a deterministic, content-derived UUID: the
// filename, the instrument type/manufacturer/model/ID and every
// Measurement's key fields are folded into a boost::hash-compatible
// structural hash (hash.go); that seed is then combined in turn with each
// index 0..15, the low byte of each result giving one of 16 bytes that are
// formatted as a UUID via
// github.com/google/uuid so two structurally-identical SpecFiles always
// get the same id (spec.md section 4.6's pseudo-UUID requirement).
func (s *SpecFile) derivePseudoUUID() string {
	h := &structuralHasher{}
	h.combineString(s.Filename)
	h.combineString(s.InstrumentType)
	h.combineString(s.Manufacturer)
	h.combineString(s.InstrumentModel)
	h.combineString(s.InstrumentID)

	for _, m := range s.measurements {
		h.combineInt(int64(m.SampleNumber))
		h.combineString(m.DetectorName)
		h.combineFloat(m.LiveTime)
		h.combineFloat(m.RealTime)
		h.combineFloats(m.GammaCounts)
		h.combineFloats(m.NeutronCounts)
		if m.EnergyCalibration != nil {
			h.combineInt(int64(m.EnergyCalibration.Type()))
			h.combineFloats(m.EnergyCalibration.Coefficients())
		}
	}

	var b [16]byte
	seed := h.seed
	for i := 0; i < 16; i++ {
		seed = hashCombine(seed, uint64(i))
		b[i] = byte(seed)
	}
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// Clone returns a deep copy: Measurements are cloned (sharing immutable
// calibration pointers), slices are copied, derived indices are
// recomputed rather than copied verbatim.
func (s *SpecFile) Clone() *SpecFile {
	c := New()
	*c = *s
	c.measurements = make([]*Measurement, len(s.measurements))
	for i, m := range s.measurements {
		c.measurements[i] = m.Clone()
	}
	c.Remarks = append([]string(nil), s.Remarks...)
	c.ParseWarnings = append([]string(nil), s.ParseWarnings...)
	c.DetectorAnalysisRemarks = append([]string(nil), s.DetectorAnalysisRemarks...)
	c.calDedup = make(map[string]*calibration.Calibration, len(s.calDedup))
	c.byKey = make(map[measurementKey]*Measurement, len(s.byKey))
	c.CleanupAfterLoad(DontChangeOrReorderSamples)
	return c
}

// SortedDetectorNames returns names in alphabetical order, a stable
// iteration order serializers use instead of depending on map order.
func SortedDetectorNames(names []string) []string {
	out := append([]string(nil), names...)
	slices.Sort(out)
	return out
}
