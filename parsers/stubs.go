package parsers

import (
	"specutils/config"
	"specutils/specerr"
	"specutils/specfile"
)

// The formats registered here are named by spec.md section 6's format
// enumeration but are not implemented by this build. Each gets a probe that
// never matches and a parse that reports UnsupportedError, so the dispatcher
// and Format.String() stay total without a parser pretending to understand
// bytes it was never grounded on. See DESIGN.md for the per-format reason.
func init() {
	registerUnsupported(FormatPcf)
	registerUnsupported(FormatOrtecListMode)
	registerUnsupported(FormatGR135Text)
	registerUnsupported(FormatSpc)
	registerUnsupported(FormatCnf)
	registerUnsupported(FormatPhd)
	registerUnsupported(FormatLzs)
	registerUnsupported(FormatScanDataXml)
	registerUnsupported(FormatCaenHexagonGXml)
	registerUnsupported(FormatMicroRaider)
	registerUnsupported(FormatAram)
	registerUnsupported(FormatSPMDailyFile)
	registerUnsupported(FormatTracsMps)
	registerUnsupported(FormatMultiAct)
}

func registerUnsupported(format Format) {
	register(format, neverProbe, unsupportedParse(format))
}

func neverProbe(input []byte) bool { return false }

func unsupportedParse(format Format) func([]byte, string, config.Guardrails) (*specfile.SpecFile, error) {
	return func(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
		return nil, &specerr.UnsupportedError{Format: format.String()}
	}
}
