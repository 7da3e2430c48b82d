// Package parsers implements the per-format deserializers spec.md section
// 4.4 describes, plus the FormatDispatcher (section 4.5) that picks among
// them. Every parser follows the same contract: a cheap signature probe
// that never consumes the whole file on a clear mismatch, a strict,
// bounds-checked walk of the buffer, and a handoff to
// specfile.SpecFile.CleanupAfterLoad rather than computing derived
// indices itself.
package parsers

import (
	"specutils/config"
	"specutils/specfile"
)

// Format names one of the spectrum file formats this module recognizes,
// implemented or not (spec.md section 6's format enum).
type Format int

const (
	FormatUnknown Format = iota
	FormatChn
	FormatPcf
	FormatN42_2006
	FormatN42_2012
	FormatSpe
	FormatTka
	FormatGR130
	FormatGR135
	FormatGR135Text
	FormatAmptek
	FormatEMorpho
	FormatRadiaCode
	FormatTxtOrCsv
	FormatOrtecListMode
	FormatSpc
	FormatCnf
	FormatPhd
	FormatLzs
	FormatScanDataXml
	FormatCaenHexagonGXml
	FormatMicroRaider
	FormatAram
	FormatSPMDailyFile
	FormatTracsMps
	FormatMultiAct
)

func (f Format) String() string {
	switch f {
	case FormatChn:
		return "Chn"
	case FormatPcf:
		return "Pcf"
	case FormatN42_2006:
		return "N42_2006"
	case FormatN42_2012:
		return "N42_2012"
	case FormatSpe:
		return "Spe"
	case FormatTka:
		return "Tka"
	case FormatGR130:
		return "ExploraniumGR130"
	case FormatGR135:
		return "ExploraniumGR135"
	case FormatGR135Text:
		return "GR135Text"
	case FormatAmptek:
		return "AmptekMCA"
	case FormatEMorpho:
		return "BridgeportEMorpho"
	case FormatRadiaCode:
		return "RadiaCode"
	case FormatTxtOrCsv:
		return "TxtOrCsv"
	case FormatOrtecListMode:
		return "OrtecListMode"
	case FormatSpc:
		return "Spc"
	case FormatCnf:
		return "Cnf"
	case FormatPhd:
		return "Phd"
	case FormatLzs:
		return "Lzs"
	case FormatScanDataXml:
		return "ScanDataXml"
	case FormatCaenHexagonGXml:
		return "CaenHexagonGXml"
	case FormatMicroRaider:
		return "MicroRaider"
	case FormatAram:
		return "Aram"
	case FormatSPMDailyFile:
		return "SPMDailyFile"
	case FormatTracsMps:
		return "TracsMps"
	case FormatMultiAct:
		return "MultiAct"
	default:
		return "Unknown"
	}
}

var registry = map[Format]*parser{}

func register(format Format, probe func([]byte) bool, parse func([]byte, string, config.Guardrails) (*specfile.SpecFile, error)) {
	registry[format] = &parser{format: format, probe: probe, parse: parse}
}

// parser is the per-format implementation this package's registry holds:
// probe does the cheap signature check (spec.md section 4.4 item 1), parse
// does the strict walk (items 2-5).
type parser struct {
	format Format
	probe  func(input []byte) bool
	parse  func(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error)
}

// extensionPriority maps a lowercased file extension (without the dot) to
// the ordered list of formats to try, per spec.md section 4.5 item 1.
var extensionPriority = map[string][]Format{
	"n42":   {FormatN42_2012, FormatN42_2006},
	"xml":   {FormatN42_2012, FormatN42_2006, FormatScanDataXml, FormatCaenHexagonGXml},
	"chn":   {FormatChn},
	"pcf":   {FormatPcf},
	"spe":   {FormatSpe},
	"tka":   {FormatTka},
	"lis":   {FormatOrtecListMode},
	"spc":   {FormatSpc},
	"cnf":   {FormatCnf},
	"phd":   {FormatPhd},
	"lzs":   {FormatLzs},
	"txt":   {FormatAmptek, FormatTxtOrCsv, FormatGR135Text},
	"csv":   {FormatTxtOrCsv},
	"json":  {FormatRadiaCode, FormatEMorpho},
	"rctrk": {FormatRadiaCode},
	"gr1":   {FormatGR130, FormatGR135},
}

// fallbackOrder is the order every parser is tried in when the extension
// gives no hint or none of its candidates accept, per spec.md section 4.5
// item 3: cheapest/most distinctive signatures first.
var fallbackOrder = []Format{
	FormatChn, FormatN42_2012, FormatN42_2006, FormatRadiaCode, FormatEMorpho,
	FormatPcf, FormatGR130, FormatGR135, FormatSpe, FormatTka, FormatAmptek,
	FormatGR135Text, FormatTxtOrCsv, FormatOrtecListMode,
}
