package facts

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/internal/models"
)

func TestSampleBalanceSheetsAreConsistent(t *testing.T) {
	config := DefaultSampleConfig()
	config.Filings = 25
	config.MissingRatio = 0
	config.DuplicateRatio = 0

	list, err := SampleBalanceSheets(config)
	require.NoError(t, err)
	require.Len(t, list, 25*9)

	byFiling := make(map[string]map[string]decimal.Decimal)
	for _, f := range list {
		require.NoError(t, f.Validate())
		if byFiling[f.Adsh] == nil {
			byFiling[f.Adsh] = make(map[string]decimal.Decimal)
		}
		byFiling[f.Adsh][f.Tag] = f.Value.Decimal
	}
	require.Len(t, byFiling, 25)

	for adsh, v := range byFiling {
		assert.True(t, v["Assets"].Equal(v["AssetsCurrent"].Add(v["AssetsNoncurrent"])), adsh)
		assert.True(t, v["Liabilities"].Equal(v["LiabilitiesCurrent"].Add(v["LiabilitiesNoncurrent"])), adsh)
		assert.True(t, v["LiabilitiesAndStockholdersEquity"].Equal(v["Liabilities"].Add(v["StockholdersEquity"])), adsh)
		assert.True(t, v["Assets"].Equal(v["LiabilitiesAndStockholdersEquity"]), adsh)
	}
}

func TestSampleBalanceSheetsAreReproducible(t *testing.T) {
	a, err := SampleBalanceSheets(nil)
	require.NoError(t, err)
	b, err := SampleBalanceSheets(nil)
	require.NoError(t, err)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].String(), b[i].String())
	}

	config := DefaultSampleConfig()
	config.MissingRatio = 1
	config.DuplicateRatio = 0
	empty, err := SampleBalanceSheets(config)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSampleRoundTrip(t *testing.T) {
	list, err := SampleBalanceSheets(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list, '\t'))

	read, stats, err := newReader(t, DefaultConfig()).Read(context.Background(), &buf, "sample.tsv")
	require.NoError(t, err)
	assert.False(t, stats.HasErrors())
	require.Len(t, read, len(list))
	for i := range list {
		assert.Equal(t, list[i].DuplicateKey(), read[i].DuplicateKey())
		assert.Equal(t, models.FormatValue(list[i].Value), models.FormatValue(read[i].Value))
	}
}

func TestSampleConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultSampleConfig().Validate())
	assert.Error(t, (&SampleConfig{Filings: 0, Year: 2023}).Validate())
	assert.Error(t, (&SampleConfig{Filings: 1, Year: 2023, MissingRatio: 2}).Validate())
	assert.Error(t, (&SampleConfig{Filings: 1, Year: 2023, DuplicateRatio: -1}).Validate())
	assert.Error(t, (&SampleConfig{Filings: 1, Year: 12}).Validate())
}
