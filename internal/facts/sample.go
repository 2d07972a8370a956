package facts

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"golang-fact-standardizer/internal/models"
)

// SampleConfig controls synthetic balance sheet generation
type SampleConfig struct {
	Filings int
	Seed    int64

	// MissingRatio is the chance that a tag is left out of a filing.
	MissingRatio float64

	// DuplicateRatio is the chance that a filing also reports a second,
	// less complete statement table under another report number.
	DuplicateRatio float64

	// Year is the fiscal year of the first filing; later filings move back one year each.
	Year int
}

// DefaultSampleConfig returns a small reproducible sample configuration
func DefaultSampleConfig() *SampleConfig {
	return &SampleConfig{
		Filings:        100,
		Seed:           42,
		MissingRatio:   0.2,
		DuplicateRatio: 0.1,
		Year:           2023,
	}
}

// Validate validates the configuration
func (c *SampleConfig) Validate() error {
	if c.Filings < 1 {
		return fmt.Errorf("filings must be at least 1, got %d", c.Filings)
	}
	if c.MissingRatio < 0 || c.MissingRatio > 1 {
		return fmt.Errorf("missing ratio must be between 0 and 1")
	}
	if c.DuplicateRatio < 0 || c.DuplicateRatio > 1 {
		return fmt.Errorf("duplicate ratio must be between 0 and 1")
	}
	if c.Year < 1900 || c.Year > 9999 {
		return fmt.Errorf("invalid year %d", c.Year)
	}
	return nil
}

// SampleBalanceSheets generates consistent balance sheet facts and then drops
// tags at random, leaving gaps for the standardizer to fill. The totals of
// every generated filing satisfy
//
//	Assets = AssetsCurrent + AssetsNoncurrent = LiabilitiesAndStockholdersEquity
//	LiabilitiesAndStockholdersEquity = Liabilities + StockholdersEquity
func SampleBalanceSheets(config *SampleConfig) ([]*models.Fact, error) {
	if config == nil {
		config = DefaultSampleConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(config.Seed))
	var out []*models.Fact

	for i := 0; i < config.Filings; i++ {
		adsh := fmt.Sprintf("%010d-%02d-%06d", 1000000+i, config.Year%100, i)
		date := (config.Year-i%10)*10000 + 1231

		current := int64(rng.Intn(900_000) + 100_000)
		noncurrent := int64(rng.Intn(900_000) + 100_000)
		assets := current + noncurrent
		liabilitiesCurrent := int64(rng.Intn(int(assets/4)) + 1)
		liabilitiesNoncurrent := int64(rng.Intn(int(assets/4)) + 1)
		liabilities := liabilitiesCurrent + liabilitiesNoncurrent
		equity := assets - liabilities
		cash := int64(rng.Intn(int(current)))

		values := []struct {
			tag   string
			value int64
		}{
			{"Assets", assets},
			{"AssetsCurrent", current},
			{"AssetsNoncurrent", noncurrent},
			{"Liabilities", liabilities},
			{"LiabilitiesCurrent", liabilitiesCurrent},
			{"LiabilitiesNoncurrent", liabilitiesNoncurrent},
			{"StockholdersEquity", equity},
			{"LiabilitiesAndStockholdersEquity", assets},
			{"CashAndCashEquivalentsAtCarryingValue", cash},
		}

		for line, v := range values {
			if rng.Float64() < config.MissingRatio {
				continue
			}
			out = append(out, sampleFact(adsh, 2, v.tag, date, v.value, line+1))
		}

		if rng.Float64() < config.DuplicateRatio {
			// a parenthetical table with a single total
			out = append(out, sampleFact(adsh, 3, "Assets", date, assets, 1))
		}
	}
	return out, nil
}

func sampleFact(adsh string, report int, tag string, date int, value int64, line int) *models.Fact {
	f := models.NewFact(adsh, "", report, tag, date, decimal.NewFromInt(value))
	f.Version = "us-gaap/2023"
	f.Line = line
	f.Stmt = "BS"
	return f
}
