// Package sampledata generates a reproducible transaction table with known
// fraud scenarios planted on fixed accounts.
package sampledata

import (
	"fmt"
	"math"
	"math/rand/v2"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/fraud-analyzer/internal/domain"
)

// Fraud indicator labels written to the fraud_indicator column.
const (
	IndicatorNormal            = "normal"
	IndicatorUnusualAmount     = "unusual_amount"
	IndicatorRapidDraining     = "rapid_draining"
	IndicatorStructuring       = "structuring"
	IndicatorGeographicAnomaly = "geographic_anomaly"
	IndicatorDuplicate         = domain.FraudIndicatorDuplicate
)

// DefaultAccounts are the generated account IDs.
var DefaultAccounts = []string{"ACC_001", "ACC_002", "ACC_003", "ACC_004", "ACC_005"}

// Config controls generation. Identical configs produce identical tables.
type Config struct {
	Seed             uint64
	Today            civil.Date
	Accounts         []string
	NormalPerAccount int
}

// DefaultConfig returns the standard five-account table anchored at today.
func DefaultConfig(today civil.Date) Config {
	return Config{
		Seed:             42,
		Today:            today,
		Accounts:         DefaultAccounts,
		NormalPerAccount: 50,
	}
}

type amountRange struct{ lo, hi float64 }

var normalMerchants = []string{
	"Whole Foods Market", "Amazon", "Shell Gas Station", "Starbucks",
	"Netflix", "Spotify", "Gym Membership", "Electric Company",
	"Water Company", "Internet Provider", "Insurance Co", "Pharmacy",
	"Grocery Store", "Restaurant", "Movie Theater", "Hotel Chain",
}

var merchantAmounts = map[string]amountRange{
	"Whole Foods Market": {50, 150},
	"Amazon":             {20, 200},
	"Shell Gas Station":  {40, 80},
	"Starbucks":          {5, 15},
	"Netflix":            {15, 15},
	"Spotify":            {10, 10},
	"Gym Membership":     {50, 100},
	"Electric Company":   {100, 200},
	"Water Company":      {50, 100},
	"Internet Provider":  {50, 100},
	"Insurance Co":       {100, 300},
	"Pharmacy":           {20, 100},
	"Grocery Store":      {50, 150},
	"Restaurant":         {30, 100},
	"Movie Theater":      {20, 50},
	"Hotel Chain":        {100, 300},
}

var homeCities = []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix"}

// Which accounts receive which scenarios.
var (
	amountAndDrainingAccounts = map[string]bool{"ACC_001": true, "ACC_003": true, "ACC_005": true}
	structuringAndGeoAccounts = map[string]bool{"ACC_002": true, "ACC_004": true}
	duplicateScenarioAccounts = map[string]bool{"ACC_003": true}
)

// Generate builds the table: normal activity for every account followed by
// that account's fraud scenarios.
func Generate(cfg Config) []domain.Transaction {
	if cfg.NormalPerAccount <= 0 {
		cfg.NormalPerAccount = 50
	}
	if len(cfg.Accounts) == 0 {
		cfg.Accounts = DefaultAccounts
	}
	g := &generator{r: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)), today: cfg.Today}

	var txs []domain.Transaction
	for _, acc := range cfg.Accounts {
		txs = append(txs, g.normal(acc, cfg.NormalPerAccount)...)

		if amountAndDrainingAccounts[acc] {
			txs = append(txs, g.unusualAmounts(acc, 5)...)
			txs = append(txs, g.draining(acc)...)
		}
		if structuringAndGeoAccounts[acc] {
			txs = append(txs, g.structuring(acc, 10)...)
			txs = append(txs, g.geographic(acc, 3)...)
		}
		if duplicateScenarioAccounts[acc] {
			txs = append(txs, g.duplicates(acc, 3)...)
		}
	}
	return txs
}

type generator struct {
	r     *rand.Rand
	today civil.Date
}

// intn returns a uniform int in [lo, hi].
func (g *generator) intn(lo, hi int) int {
	return lo + g.r.IntN(hi-lo+1)
}

func (g *generator) uniform(lo, hi float64) float64 {
	return round2(lo + g.r.Float64()*(hi-lo))
}

func (g *generator) pick(xs []string) string {
	return xs[g.r.IntN(len(xs))]
}

func (g *generator) clock(hLo, hHi int) civil.Time {
	return civil.Time{Hour: g.intn(hLo, hHi), Minute: g.intn(0, 59)}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func base(id, account string, date civil.Date, t civil.Time, merchant string, amount float64, location, indicator string) domain.Transaction {
	return domain.Transaction{
		TransactionID:   id,
		AccountID:       account,
		Date:            date,
		Time:            t,
		Merchant:        merchant,
		Amount:          amount,
		Currency:        "USD",
		Location:        location,
		TransactionType: "debit",
		Status:          "completed",
		FraudIndicator:  indicator,
	}
}

func (g *generator) normal(account string, n int) []domain.Transaction {
	start := g.today.AddDays(-90)
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		merchant := g.pick(normalMerchants)
		rng := merchantAmounts[merchant]
		mean := (rng.lo + rng.hi) / 2
		std := (rng.hi - rng.lo) / 4
		amount := round2(mean + g.r.NormFloat64()*std)
		amount = max(rng.lo, min(rng.hi, amount))

		out = append(out, base(
			fmt.Sprintf("TXN_%s_%05d", account, i),
			account,
			start.AddDays(g.intn(0, 90)),
			g.clock(8, 23),
			merchant,
			amount,
			g.pick(homeCities),
			IndicatorNormal,
		))
	}
	return out
}

func (g *generator) unusualAmounts(account string, n int) []domain.Transaction {
	start := g.today.AddDays(-30)
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, base(
			fmt.Sprintf("FRAUD_UA_%s_%05d", account, i),
			account,
			start.AddDays(g.intn(0, 30)),
			g.clock(0, 23),
			g.pick([]string{"Luxury Retailer", "Electronics Store", "Jewelry Store"}),
			g.uniform(5000, 15000),
			g.pick([]string{"Miami", "Las Vegas", "Dubai"}),
			IndicatorUnusualAmount,
		))
	}
	return out
}

// draining puts eight large transfers on a single day.
func (g *generator) draining(account string) []domain.Transaction {
	day := g.today.AddDays(-1)
	out := make([]domain.Transaction, 0, 8)
	for i := 0; i < 8; i++ {
		out = append(out, base(
			fmt.Sprintf("FRAUD_RD_%s_%05d", account, i),
			account,
			day,
			civil.Time{Hour: (i * 3) % 24, Minute: g.intn(0, 59)},
			g.pick([]string{"Wire Transfer", "International Transfer", "ATM Withdrawal"}),
			g.uniform(2000, 5000),
			g.pick([]string{domain.LocationUnknown, domain.LocationInternational}),
			IndicatorRapidDraining,
		))
	}
	return out
}

// structuring keeps each amount just below the 10,000 reporting threshold.
func (g *generator) structuring(account string, n int) []domain.Transaction {
	start := g.today.AddDays(-14)
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, base(
			fmt.Sprintf("FRAUD_ST_%s_%05d", account, i),
			account,
			start.AddDays(i),
			g.clock(9, 17),
			g.pick([]string{"Bank Deposit", "Wire Transfer", "Money Transfer Service"}),
			g.uniform(9500, 9999),
			"Multiple Locations",
			IndicatorStructuring,
		))
	}
	return out
}

var foreignCities = []string{"Tokyo", "London", "Sydney", "Dubai", "Hong Kong"}

// geographic places foreign charges a few hours apart on the same day.
func (g *generator) geographic(account string, n int) []domain.Transaction {
	start := g.today.AddDays(-7)
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := base(
			fmt.Sprintf("FRAUD_GEO_%s_%05d", account, i),
			account,
			start,
			g.clock(0, 23),
			"International Merchant - "+g.pick(foreignCities),
			g.uniform(500, 3000),
			g.pick(foreignCities),
			IndicatorGeographicAnomaly,
		)
		tx.Currency = g.pick([]string{"JPY", "GBP", "AUD", "AED", "HKD"})
		out = append(out, tx)
	}
	return out
}

// duplicates emits each charge twice, thirty seconds apart.
func (g *generator) duplicates(account string, n int) []domain.Transaction {
	start := g.today.AddDays(-5)
	out := make([]domain.Transaction, 0, n*2)
	for i := 0; i < n; i++ {
		amount := g.uniform(100, 500)
		merchant := g.pick([]string{"Online Retailer", "Subscription Service", "Utility Company"})
		for j := 0; j < 2; j++ {
			t := g.clock(10, 15)
			t.Second = j * 30
			out = append(out, base(
				fmt.Sprintf("FRAUD_DUP_%s_%05d_%d", account, i, j),
				account,
				start.AddDays(i),
				t,
				merchant,
				amount,
				g.pick([]string{"New York", "Los Angeles"}),
				IndicatorDuplicate,
			))
		}
	}
	return out
}
