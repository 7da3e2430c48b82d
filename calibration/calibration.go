// Package calibration implements the immutable, shareable energy-calibration
// object described in spec.md section 4.2: it converts gamma channel numbers
// to energies (keV) and back, under one of several vendor parameterizations.
package calibration

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/slices"
)

// Type identifies the calibration parameterization.
type Type int

const (
	// Invalid marks a calibration that failed construction-time validation.
	Invalid Type = iota
	// Polynomial is the classic energy = sum(c_i * channel^i) form.
	Polynomial
	// FullRangeFraction parameterizes on channel/num_channels instead of
	// raw channel number.
	FullRangeFraction
	// LowerChannelEdge stores the lower-energy edge of each channel
	// directly, with no polynomial behind it.
	LowerChannelEdge
	// UnspecifiedDefaultPolynomial is a library-supplied default (e.g. a
	// per-detector-model fallback), not one read from the file.
	UnspecifiedDefaultPolynomial
)

func (t Type) String() string {
	switch t {
	case Polynomial:
		return "Polynomial"
	case FullRangeFraction:
		return "FullRangeFraction"
	case LowerChannelEdge:
		return "LowerChannelEdge"
	case UnspecifiedDefaultPolynomial:
		return "UnspecifiedDefaultPolynomial"
	default:
		return "Invalid"
	}
}

// DeviationPair is a non-linearity correction applied on top of the
// polynomial/FRF calibration at a given energy.
type DeviationPair struct {
	Energy float64
	Offset float64
}

// InvalidCoefficientsError reports a non-finite or otherwise unusable
// coefficient set.
type InvalidCoefficientsError struct{ Reason string }

func (e *InvalidCoefficientsError) Error() string {
	return fmt.Sprintf("invalid energy calibration coefficients: %s", e.Reason)
}

// NonMonotonicError reports that derived per-channel energies fail to
// increase across channel boundaries.
type NonMonotonicError struct{ Channel int }

func (e *NonMonotonicError) Error() string {
	return fmt.Sprintf("energy calibration is non-monotonic at channel %d", e.Channel)
}

// WrongChannelCountError reports a channel-count/coefficient mismatch.
type WrongChannelCountError struct{ NumChannels int }

func (e *WrongChannelCountError) Error() string {
	return fmt.Sprintf("energy calibration channel count %d is invalid (must be >= 2)", e.NumChannels)
}

// Calibration is an immutable energy calibration. Zero value is not useful;
// construct with NewPolynomial, NewFullRangeFraction, or
// NewLowerChannelEnergies. Once built, a Calibration never mutates, so a
// single instance may be shared (via a *Calibration pointer) across many
// Measurements without synchronization.
type Calibration struct {
	typ             Type
	numChannels     int
	coefficients    []float64
	deviationPairs  []DeviationPair
	lowerChannelE   []float64 // built by the constructor, len == numChannels+1
	rejectedReason  string
}

// Type reports the calibration's parameterization.
func (c *Calibration) Type() Type { return c.typ }

// NumChannels reports the channel count this calibration was built for.
func (c *Calibration) NumChannels() int { return c.numChannels }

// Coefficients returns the raw polynomial/FRF coefficients (nil for
// LowerChannelEdge calibrations). The returned slice must not be mutated.
func (c *Calibration) Coefficients() []float64 { return c.coefficients }

// DeviationPairs returns the non-linearity correction table, sorted by
// energy. The returned slice must not be mutated.
func (c *Calibration) DeviationPairs() []DeviationPair { return c.deviationPairs }

// RejectedReason explains why an Invalid calibration was rejected, for
// diagnostics; empty for valid calibrations.
func (c *Calibration) RejectedReason() string { return c.rejectedReason }

func invalid(coeffs []float64, reason string) *Calibration {
	return &Calibration{typ: Invalid, coefficients: coeffs, rejectedReason: reason}
}

func finiteAll(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func sortedDeviationPairs(devs []DeviationPair) []DeviationPair {
	out := append([]DeviationPair(nil), devs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Energy < out[j].Energy })
	return out
}

// polynomialEnergy evaluates sum(coeffs[i] * x^i).
func polynomialEnergy(coeffs []float64, x float64) float64 {
	e, p := 0.0, 1.0
	for _, c := range coeffs {
		e += c * p
		p *= x
	}
	return e
}

func deviationAdjust(devs []DeviationPair, energy float64) float64 {
	if len(devs) == 0 {
		return energy
	}
	i := sort.Search(len(devs), func(i int) bool { return devs[i].Energy >= energy })
	switch {
	case i == 0:
		return energy + devs[0].Offset
	case i == len(devs):
		return energy + devs[len(devs)-1].Offset
	default:
		lo, hi := devs[i-1], devs[i]
		if hi.Energy == lo.Energy {
			return energy + hi.Offset
		}
		frac := (energy - lo.Energy) / (hi.Energy - lo.Energy)
		return energy + lo.Offset + frac*(hi.Offset-lo.Offset)
	}
}

func buildLowerChannelEnergies(n int, energyAt func(chan_ float64) float64) ([]float64, error) {
	out := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		out[i] = energyAt(float64(i))
	}
	for i := 1; i <= n; i++ {
		if out[i] < out[i-1] {
			return nil, &NonMonotonicError{Channel: i}
		}
	}
	return out, nil
}

// NewPolynomial builds a Polynomial calibration for n channels from
// coefficients c0, c1, c2, ... (energy = sum(c_i * channel^i)), with an
// optional deviation-pair table.
func NewPolynomial(n int, coeffs []float64, devs []DeviationPair) *Calibration {
	if n < 2 {
		return invalid(coeffs, (&WrongChannelCountError{NumChannels: n}).Error())
	}
	if !finiteAll(coeffs) {
		return invalid(coeffs, (&InvalidCoefficientsError{Reason: "non-finite coefficient"}).Error())
	}
	sortedDevs := sortedDeviationPairs(devs)
	energyAt := func(ch float64) float64 {
		return deviationAdjust(sortedDevs, polynomialEnergy(coeffs, ch))
	}
	lower, err := buildLowerChannelEnergies(n, energyAt)
	if err != nil {
		c := invalid(coeffs, err.Error())
		c.deviationPairs = sortedDevs
		return c
	}
	return &Calibration{
		typ: Polynomial, numChannels: n, coefficients: append([]float64(nil), coeffs...),
		deviationPairs: sortedDevs, lowerChannelE: lower,
	}
}

// NewFullRangeFraction builds an FRF calibration, where the polynomial is
// evaluated at channel/n rather than raw channel number.
func NewFullRangeFraction(n int, coeffs []float64, devs []DeviationPair) *Calibration {
	if n < 2 {
		return invalid(coeffs, (&WrongChannelCountError{NumChannels: n}).Error())
	}
	if !finiteAll(coeffs) {
		return invalid(coeffs, (&InvalidCoefficientsError{Reason: "non-finite coefficient"}).Error())
	}
	sortedDevs := sortedDeviationPairs(devs)
	energyAt := func(ch float64) float64 {
		return deviationAdjust(sortedDevs, polynomialEnergy(coeffs, ch/float64(n)))
	}
	lower, err := buildLowerChannelEnergies(n, energyAt)
	if err != nil {
		c := invalid(coeffs, err.Error())
		c.deviationPairs = sortedDevs
		return c
	}
	return &Calibration{
		typ: FullRangeFraction, numChannels: n, coefficients: append([]float64(nil), coeffs...),
		deviationPairs: sortedDevs, lowerChannelE: lower,
	}
}

// ToPolynomial converts an FRF calibration to an equivalent Polynomial
// calibration for the same channel count, per spec.md's "FRF coefficients
// are convertible to polynomial for the given n" requirement. Coefficient i
// is divided by n^i, which is exact for FRF coefficients of any degree.
func (c *Calibration) ToPolynomial() *Calibration {
	if c.typ != FullRangeFraction {
		return c
	}
	n := float64(c.numChannels)
	poly := make([]float64, len(c.coefficients))
	scale := 1.0
	for i := range c.coefficients {
		poly[i] = c.coefficients[i] * scale
		scale /= n
	}
	return NewPolynomial(c.numChannels, poly, c.deviationPairs)
}

// NewLowerChannelEnergies builds a LowerChannelEdge calibration directly
// from a table of per-channel lower energies. The table must be monotonic
// non-decreasing and contain at least n entries; entries beyond n are kept
// to upper-bound the last channel, per spec.md section 4.2.
func NewLowerChannelEnergies(n int, energies []float64) *Calibration {
	if n < 2 || len(energies) < n {
		return invalid(nil, (&WrongChannelCountError{NumChannels: n}).Error())
	}
	if !finiteAll(energies) {
		return invalid(nil, (&InvalidCoefficientsError{Reason: "non-finite channel energy"}).Error())
	}
	table := append([]float64(nil), energies[:n]...)
	if len(energies) > n {
		table = append(table, energies[n])
	} else {
		// Extrapolate the last edge from the final channel's width.
		width := 0.0
		if n >= 2 {
			width = table[n-1] - table[n-2]
		}
		table = append(table, table[n-1]+width)
	}
	for i := 1; i < len(table); i++ {
		if table[i] < table[i-1] {
			return invalid(nil, (&NonMonotonicError{Channel: i}).Error())
		}
	}
	return &Calibration{typ: LowerChannelEdge, numChannels: n, lowerChannelE: table}
}

// LowerChannelEnergies returns the num_channels+1 monotonic lower-edge
// table. Every constructor builds the table up front; it is not computed
// lazily on first access. Invalid calibrations have no table (nil).
func (c *Calibration) LowerChannelEnergies() []float64 {
	return c.lowerChannelE
}

// LowerEnergy returns the lower bound of the spectrum's energy range.
func (c *Calibration) LowerEnergy() float64 {
	if len(c.lowerChannelE) == 0 {
		return 0
	}
	return c.lowerChannelE[0]
}

// UpperEnergy returns the upper bound of the spectrum's energy range.
func (c *Calibration) UpperEnergy() float64 {
	if len(c.lowerChannelE) == 0 {
		return 0
	}
	return c.lowerChannelE[len(c.lowerChannelE)-1]
}

// EnergyForChannel linearly interpolates within the lower-channel-energy
// table for a (possibly fractional) channel number, extrapolating
// monotonically outside [0, numChannels].
func (c *Calibration) EnergyForChannel(fractionalChannel float64) float64 {
	t := c.lowerChannelE
	if len(t) < 2 {
		return 0
	}
	if fractionalChannel <= 0 {
		return t[0] + fractionalChannel*(t[1]-t[0])
	}
	n := len(t) - 1
	if fractionalChannel >= float64(n) {
		return t[n] + (fractionalChannel-float64(n))*(t[n]-t[n-1])
	}
	lo := int(math.Floor(fractionalChannel))
	frac := fractionalChannel - float64(lo)
	return t[lo] + frac*(t[lo+1]-t[lo])
}

// ChannelForEnergy is the inverse of EnergyForChannel: binary search on the
// lower-channel-energy table followed by linear interpolation.
func (c *Calibration) ChannelForEnergy(energy float64) float64 {
	t := c.lowerChannelE
	if len(t) < 2 {
		return 0
	}
	if energy <= t[0] {
		return (energy - t[0]) / (t[1] - t[0])
	}
	n := len(t) - 1
	if energy >= t[n] {
		return float64(n) + (energy-t[n])/(t[n]-t[n-1])
	}
	i := sort.SearchFloat64s(t, energy)
	if i > 0 && t[i] != energy {
		i--
	}
	if i >= n {
		i = n - 1
	}
	span := t[i+1] - t[i]
	if span == 0 {
		return float64(i)
	}
	return float64(i) + (energy-t[i])/span
}

// CombineChannels builds a new calibration for ceil(n/k) channels by
// summing k adjacent source channels, as Measurement.CombineGammaChannels
// requires for its derived calibration.
func (c *Calibration) CombineChannels(k int) (*Calibration, error) {
	if k <= 0 {
		return nil, &InvalidCoefficientsError{Reason: "combine factor must be positive"}
	}
	if len(c.lowerChannelE) == 0 {
		return nil, &InvalidCoefficientsError{Reason: "source calibration is invalid"}
	}
	newN := (c.numChannels + k - 1) / k
	table := make([]float64, 0, newN+1)
	for i := 0; i <= newN; i++ {
		srcIdx := i * k
		if srcIdx > c.numChannels {
			srcIdx = c.numChannels
		}
		table = append(table, c.lowerChannelE[srcIdx])
	}
	return NewLowerChannelEnergies(newN, table), nil
}

// Equal reports structural equality over (type, numChannels, coefficients,
// deviationPairs) — the key the dedup map in package specfile uses to share
// identical calibrations across Measurements (spec.md section 3).
func (c *Calibration) Equal(o *Calibration) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.typ == o.typ &&
		c.numChannels == o.numChannels &&
		slices.Equal(c.coefficients, o.coefficients) &&
		slices.EqualFunc(c.deviationPairs, o.deviationPairs, func(a, b DeviationPair) bool { return a == b })
}

// Key returns a comparable value suitable for use as a map key in a
// calibration-dedup table.
func (c *Calibration) Key() string {
	return fmt.Sprintf("%d|%d|%v|%v", c.typ, c.numChannels, c.coefficients, c.deviationPairs)
}
