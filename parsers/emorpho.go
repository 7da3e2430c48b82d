package parsers

import (
	"encoding/json"

	"specutils/calibration"
	"specutils/config"
	"specutils/specerr"
	"specutils/specfile"
)

const emorphoMaxFileSize = 5 << 20

func init() {
	register(FormatEMorpho, probeEMorpho, parseEMorpho)
}

type emorphoDoc struct {
	Comment      string `json:"comment"`
	SerialNumber string `json:"serial_number"`
	Rates        struct {
		User struct {
			Bank0 struct {
				RunTime  float64 `json:"run_time"`
				DeadTime float64 `json:"dead_time"`
			} `json:"bank_0"`
		} `json:"user"`
	} `json:"rates"`
	FPGACtrl struct {
		User struct {
			DigitalGain float64 `json:"digital_gain"`
		} `json:"user"`
	} `json:"fpga_ctrl"`
	Histo struct {
		Registers []float64 `json:"registers"`
	} `json:"histo"`
}

func probeEMorpho(input []byte) bool {
	trimmed := trimLeadingSpace(input)
	return len(trimmed) > 0 && trimmed[0] == '{' && containsBytes(input, []byte(`"fpga_ctrl"`))
}

// parseEMorpho implements the Bridgeport eMorpho back-to-back JSON document
// format: documents are split on balanced '}'→'{' boundaries (no pack
// example shows a streaming JSON splitter, so this is built directly from
// spec.md section 4.4's description), each parsed independently into one
// Measurement.
func parseEMorpho(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	if len(input) > emorphoMaxFileSize {
		return nil, &specerr.InvalidFieldError{What: "file exceeds eMorpho size guardrail", Where: "emorpho"}
	}

	docs := splitBalancedJSONObjects(input)
	if len(docs) == 0 {
		return nil, &specerr.UnrecognizedFormatError{Format: "BridgeportEMorpho"}
	}

	sf := specfile.New()
	sf.Guardrails = g
	sf.Filename = originHint
	sf.InstrumentModel = "eMorpho"
	sf.DetectorTypeGuess = specfile.DetectorBridgeportEMorpho

	added := 0
	for _, raw := range docs {
		var doc emorphoDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		if len(doc.Histo.Registers) == 0 || doc.Rates.User.Bank0.RunTime == 0 {
			continue
		}
		if len(doc.Histo.Registers) > g.MaxChannels {
			continue
		}
		gain := doc.FPGACtrl.User.DigitalGain
		if gain == 0 {
			continue
		}
		c1 := gain / 42070.8
		upperEnergy := c1 * float64(len(doc.Histo.Registers))
		if upperEnergy < 100 || upperEnergy > 25000 {
			continue
		}
		cal := calibration.NewPolynomial(len(doc.Histo.Registers), []float64{0, c1}, nil)
		m := specfile.NewMeasurement(cal, doc.Histo.Registers)
		liveTime := doc.Rates.User.Bank0.RunTime - doc.Rates.User.Bank0.DeadTime
		m.SetTimes(liveTime, doc.Rates.User.Bank0.RunTime)
		if doc.Comment != "" {
			m.SetRemarks([]string{doc.Comment})
		}
		if sf.InstrumentID == "" {
			sf.InstrumentID = doc.SerialNumber
		}
		sf.AddMeasurement(m, false)
		added++
	}
	if added == 0 {
		return nil, &specerr.InvalidFieldError{What: "no valid eMorpho documents", Where: "emorpho"}
	}
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	return sf, nil
}

// splitBalancedJSONObjects splits input on brace-depth-zero boundaries so
// multiple whitespace-separated top-level JSON objects concatenated in one
// file are each handed to json.Unmarshal separately.
func splitBalancedJSONObjects(input []byte) [][]byte {
	var docs [][]byte
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, c := range input {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				docs = append(docs, input[start:i+1])
				start = -1
			}
		}
	}
	return docs
}
