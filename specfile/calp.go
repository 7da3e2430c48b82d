package specfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"specutils/calibration"
)

// SetEnergyCalibrationFromCALpFile reads a ".CALp" text file — a small,
// line-oriented key:value format external tools use to hand SpecUtils an
// energy calibration independent of any spectrum file — and applies the
// resulting calibration to every Measurement in s, interning it through
// the same dedup map CleanupAfterLoad uses. The pack's copy of the
// original implementation only exposes the CALp entry point's C signature
// (bindings/c/SpecUtils_c.h), not the on-disk grammar, so this reads the
// minimal, unambiguous subset of the format: an "Equation Type" line, a
// "Number Of Channels" line, a "Coefficients" line of whitespace-separated
// floats, and an optional "Deviation Pairs" line of comma-joined
// energy,offset pairs.
func (s *SpecFile) SetEnergyCalibrationFromCALpFile(r io.Reader) error {
	cal, err := parseCALp(r)
	if err != nil {
		return err
	}
	for _, m := range s.measurements {
		m.SetEnergyCalibration(cal)
	}
	s.internCalibrationValue(cal)
	s.modified = true
	return nil
}

func (s *SpecFile) internCalibrationValue(cal *calibration.Calibration) {
	key := cal.Key()
	if _, ok := s.calDedup[key]; !ok {
		s.calDedup[key] = cal
	}
}

func parseCALp(r io.Reader) (*calibration.Calibration, error) {
	var eqType string
	var numChannels int
	var coeffs []float64
	var devs []calibration.DeviationPair

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.TrimSpace(value)
		switch key {
		case "equation type":
			eqType = strings.ToLower(value)
		case "number of channels":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("CALp: invalid channel count %q", value)
			}
			numChannels = n
		case "coefficients":
			for _, tok := range strings.Fields(value) {
				f, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, fmt.Errorf("CALp: invalid coefficient %q", tok)
				}
				coeffs = append(coeffs, f)
			}
		case "deviation pairs":
			for _, tok := range strings.Fields(value) {
				e, o, ok := strings.Cut(tok, ",")
				if !ok {
					continue
				}
				ef, err1 := strconv.ParseFloat(e, 64)
				of, err2 := strconv.ParseFloat(o, 64)
				if err1 != nil || err2 != nil {
					return nil, fmt.Errorf("CALp: invalid deviation pair %q", tok)
				}
				devs = append(devs, calibration.DeviationPair{Energy: ef, Offset: of})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if numChannels <= 0 || len(coeffs) == 0 {
		return nil, fmt.Errorf("CALp: missing channel count or coefficients")
	}

	switch eqType {
	case "full range fraction", "frf":
		return calibration.NewFullRangeFraction(numChannels, coeffs, devs), nil
	case "lower channel edge", "lower-channel-edge":
		return calibration.NewLowerChannelEnergies(numChannels, coeffs), nil
	default:
		return calibration.NewPolynomial(numChannels, coeffs, devs), nil
	}
}
