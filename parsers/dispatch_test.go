package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/calibration"
	"specutils/config"
	"specutils/serializers"
	"specutils/specfile"
)

func buildChnBytes(t *testing.T) []byte {
	t.Helper()
	counts := make([]float64, 128)
	for i := range counts {
		counts[i] = float64(i + 1)
	}
	cal := calibration.NewPolynomial(len(counts), []float64{0, 3, 0}, nil)
	m := specfile.NewMeasurement(cal, counts)
	m.SetTimes(9, 10)
	sf := specfile.New()
	sf.AddMeasurement(m, false)
	sf.CleanupAfterLoad(specfile.StandardCleanup)
	out, err := serializers.WriteCHN(sf)
	require.NoError(t, err)
	return out
}

func TestDispatchRejectsBlockedExtensionRegardlessOfContent(t *testing.T) {
	data := buildChnBytes(t)
	_, err := Dispatch(data, "evidence.zip", config.Default())
	assert.Error(t, err)
}

func TestDispatchRejectsTooSmallInput(t *testing.T) {
	_, err := Dispatch([]byte("1234"), "tiny.chn", config.Default())
	assert.Error(t, err)
}

func TestDispatchUsesExtensionPriorityBeforeFallback(t *testing.T) {
	data := buildChnBytes(t)
	sf, err := Dispatch(data, "spectrum.chn", config.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, sf.NumMeasurements())
}

func TestDispatchFallsBackWhenExtensionUnrecognized(t *testing.T) {
	data := buildChnBytes(t)
	sf, err := Dispatch(data, "spectrum.bin", config.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, sf.NumMeasurements())
}

func TestDispatchReturnsUnrecognizedFormatErrorWhenNothingMatches(t *testing.T) {
	_, err := Dispatch([]byte(strings.Repeat("not a spectrum file ", 5)), "mystery.bin", config.Default())
	assert.Error(t, err)
}

func TestExtensionOfLowercasesAndStripsDot(t *testing.T) {
	assert.Equal(t, "chn", extensionOf("Spectrum.CHN"))
	assert.Equal(t, "", extensionOf("noextension"))
}

func TestLikelyNotSpecFileFlagsBlockedExtensionsAndSmallFiles(t *testing.T) {
	assert.True(t, likelyNotSpecFile([]byte("12345678"), "photo.png"))
	assert.True(t, likelyNotSpecFile([]byte("123"), "spectrum.chn"))
	assert.False(t, likelyNotSpecFile([]byte("12345678"), "spectrum.chn"))
}

func TestTryCandidatesSkipsAlreadyTriedFormats(t *testing.T) {
	data := buildChnBytes(t)
	tried := map[Format]bool{FormatChn: true}
	sf := tryCandidates([]Format{FormatChn}, data, "test.chn", config.Default(), tried)
	assert.Nil(t, sf)
}

func TestTryCandidatesMovesOnWhenAProbeMatchFailsToParse(t *testing.T) {
	// The Chn magic (int16 -1) plus an all-zero header probes as Chn but
	// can never parse (num_channels == 0); the trailing numeric tokens
	// also satisfy TxtOrCsv's probe. The search must reach and succeed
	// with TxtOrCsv instead of stopping on Chn's parse failure.
	input := append(make([]byte, 32), []byte(" 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16")...)
	input[0], input[1] = 0xFF, 0xFF // int16 magic == -1

	tried := map[Format]bool{}
	sf := tryCandidates([]Format{FormatChn, FormatTxtOrCsv}, input, "test.chn", config.Default(), tried)
	require.NotNil(t, sf)
	assert.Len(t, sf.Measurement(0).GammaCounts, 16)
	assert.True(t, tried[FormatChn])
	assert.True(t, tried[FormatTxtOrCsv])
}

func TestDispatchRecognizesSignatureViaFallbackOrderRegardlessOfExtension(t *testing.T) {
	// Exercise the fallback-order path end to end: a genuine CHN file
	// named with an extension absent from extensionPriority still gets
	// picked up once Dispatch falls back to trying every registered
	// format's signature.
	data := buildChnBytes(t)
	sf, err := Dispatch(data, "spectrum.dat", config.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, sf.NumMeasurements())
}
