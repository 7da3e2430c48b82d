package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specutils/config"
)

func TestProbeTxtOrCsvRequiresAtLeastSixteenTokens(t *testing.T) {
	short := strings.Repeat("1 ", 10)
	long := strings.Repeat("1 ", 16)
	assert.False(t, probeTxtOrCsv([]byte(short)))
	assert.True(t, probeTxtOrCsv([]byte(long)))
}

func TestParseTxtOrCsvReadsWhitespaceSeparatedCounts(t *testing.T) {
	body := "1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16"
	sf, err := parseTxtOrCsv([]byte(body), "test.txt", config.Default())
	require.NoError(t, err)
	require.Equal(t, 1, sf.NumMeasurements())

	m := sf.Measurement(0)
	require.Len(t, m.GammaCounts, 16)
	assert.Equal(t, 1.0, m.GammaCounts[0])
	assert.Equal(t, 16.0, m.GammaCounts[15])
	assert.Equal(t, []float64{0, 3000}, m.EnergyCalibration.Coefficients())
}

func TestParseTxtOrCsvAcceptsCommaSeparatedCounts(t *testing.T) {
	body := "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16"
	sf, err := parseTxtOrCsv([]byte(body), "test.csv", config.Default())
	require.NoError(t, err)
	assert.Len(t, sf.Measurement(0).GammaCounts, 16)
}

func TestParseTxtOrCsvErrorsOnEmptyInput(t *testing.T) {
	_, err := parseTxtOrCsv([]byte("not numeric at all"), "test.txt", config.Default())
	assert.Error(t, err)
}

func TestParseTxtOrCsvRejectsChannelCountOverGuardrail(t *testing.T) {
	g := config.Default()
	g.MaxChannels = 4
	body := "1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16"
	_, err := parseTxtOrCsv([]byte(body), "test.txt", g)
	assert.Error(t, err)
}
