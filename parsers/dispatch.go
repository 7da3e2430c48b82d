package parsers

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"specutils/config"
	"specutils/specerr"
	"specutils/specfile"
)

// minPlausibleFileSize rejects trivially small inputs before any parser
// touches them, per spec.md section 4.5's early-rejection heuristic.
const minPlausibleFileSize = 8

// blockedExtensions are never worth treating as a spectrum file regardless
// of content, mirroring the teacher's extension blocklist in its file
// dialog filters.
var blockedExtensions = map[string]bool{
	"zip": true, "png": true, "jpg": true, "jpeg": true, "gif": true,
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"exe": true, "dll": true, "so": true, "mp3": true, "mp4": true,
}

// Dispatch implements the FormatDispatcher of spec.md section 4.5: try the
// formats the file extension suggests first, in priority order, then fall
// back to every other registered format in a fixed cheapest-first order.
// originHint is carried into the winning SpecFile's Filename field and used
// only for diagnostics and reporting, never for format selection beyond its
// extension.
func Dispatch(input []byte, originHint string, g config.Guardrails) (*specfile.SpecFile, error) {
	if likelyNotSpecFile(input, originHint) {
		return nil, &specerr.UnrecognizedFormatError{Format: "(rejected before probing: " + originHint + ")"}
	}

	tried := make(map[Format]bool, len(registry))
	ext := extensionOf(originHint)

	if sf := tryCandidates(extensionPriority[ext], input, originHint, g, tried); sf != nil {
		return sf, nil
	}

	if sf := tryCandidates(fallbackOrder, input, originHint, g, tried); sf != nil {
		return sf, nil
	}

	return nil, &specerr.UnrecognizedFormatError{Format: "(no registered format recognized " + originHint + ")"}
}

// tryCandidates probes each format in order, skipping ones already tried,
// and returns the first successful parse. spec.md section 7 treats a
// structural parse error as just that format's failure, not the dispatcher's:
// a probe match that then fails to parse is logged and the search moves on
// to the next candidate, so a signature shared or confused between two
// formats still reaches the one that actually parses the bytes.
func tryCandidates(formats []Format, input []byte, originHint string, g config.Guardrails, tried map[Format]bool) *specfile.SpecFile {
	for _, f := range formats {
		if tried[f] {
			continue
		}
		tried[f] = true
		p, ok := registry[f]
		if !ok || p.probe == nil || !p.probe(input) {
			continue
		}
		sf, err := p.parse(input, originHint, g)
		if err != nil {
			logrus.WithFields(logrus.Fields{"format": f.String(), "file": originHint, "err": err}).
				Warn("format signature matched but parse failed; trying next candidate")
			continue
		}
		logrus.WithFields(logrus.Fields{"format": f.String(), "file": originHint}).Debug("format recognized")
		return sf
	}
	return nil
}

func extensionOf(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// likelyNotSpecFile is the cheap early-rejection check spec.md section 4.5
// describes: a blocked extension or an implausibly small file never reaches
// a parser's probe.
func likelyNotSpecFile(input []byte, originHint string) bool {
	if blockedExtensions[extensionOf(originHint)] {
		return true
	}
	return len(input) < minPlausibleFileSize
}
