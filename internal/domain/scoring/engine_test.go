package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_NoHistoryApplication(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	result := engine.Score(Inputs{
		BaseScore:       0, // no history, falls back to the base default
		DocumentCount:   6,
		RequestedAmount: 40000,
		CollateralValue: 60000,
		HasGuarantor:    true,
	})

	// 300 base + 30 documents + 10 low-risk amount + 20 strong collateral + 10 guarantor.
	assert.Equal(t, 370, result.FinalScore)
	assert.Equal(t, BandPoor, result.Band)
	assert.InDelta(t, 50000.0, result.RecommendedCeiling, 0.001)
	assert.Equal(t, map[string]int{
		"documents":   30,
		"amount_risk": 10,
		"collateral":  20,
		"guarantor":   10,
	}, result.AdjustmentBreakdown)
}

func TestScore_DocumentTiers(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	cases := []struct {
		name     string
		count    int
		expected int
	}{
		{"no documents", 0, 0},
		{"one document", 1, 5},
		{"two documents", 2, 5},
		{"three documents", 3, 15},
		{"five documents", 5, 15},
		{"six documents", 6, 30},
		{"many documents", 20, 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Score(Inputs{BaseScore: 500, DocumentCount: tc.count})
			assert.Equal(t, 500+tc.expected, result.FinalScore)
		})
	}
}

func TestScore_AmountRiskBands(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	cases := []struct {
		name     string
		amount   float64
		expected int
	}{
		{"zero amount is neutral", 0, 0},
		{"low risk", 30000, 10},
		{"low risk boundary", 50000, 10},
		{"between bands is neutral", 75000, 0},
		{"high risk boundary is neutral", 100000, 0},
		{"high risk", 100001, -10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Score(Inputs{BaseScore: 500, RequestedAmount: tc.amount})
			assert.Equal(t, 500+tc.expected, result.FinalScore)
		})
	}
}

func TestScore_CollateralCoverage(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	cases := []struct {
		name       string
		collateral float64
		requested  float64
		expected   int
	}{
		{"no collateral", 0, 60000, 0},
		{"under covered", 50000, 60000, 0},
		{"covered", 70000, 60000, 10},
		{"strong cover boundary", 90000, 60000, 20},
		{"strong cover", 150000, 60000, 20},
		{"negative collateral treated as none", -5000, 60000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Score(Inputs{
				BaseScore:       500,
				RequestedAmount: tc.requested,
				CollateralValue: tc.collateral,
			})
			// Cancel out the amount-risk adjustment to isolate collateral.
			base := engine.Score(Inputs{BaseScore: 500, RequestedAmount: tc.requested})
			assert.Equal(t, base.FinalScore+tc.expected, result.FinalScore)
		})
	}
}

func TestScore_ClampToRange(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	high := engine.Score(Inputs{
		BaseScore:       845,
		DocumentCount:   10,
		RequestedAmount: 10000,
		CollateralValue: 100000,
		HasGuarantor:    true,
	})
	assert.Equal(t, 850, high.FinalScore)
	assert.Equal(t, BandExcellent, high.Band)

	low := engine.Score(Inputs{
		BaseScore:       305,
		RequestedAmount: 500000,
	})
	assert.Equal(t, 300, low.FinalScore)
}

func TestScore_BandBoundaries(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	cases := []struct {
		score   int
		band    Band
		ceiling float64
	}{
		{850, BandExcellent, 500000},
		{800, BandExcellent, 500000},
		{799, BandVeryGood, 350000},
		{740, BandVeryGood, 350000},
		{739, BandGood, 200000},
		{670, BandGood, 200000},
		{669, BandFair, 100000},
		{580, BandFair, 100000},
		{579, BandPoor, 50000},
		{300, BandPoor, 50000},
	}

	for _, tc := range cases {
		result := engine.Score(Inputs{BaseScore: tc.score})
		assert.Equal(t, tc.band, result.Band, "score %d", tc.score)
		assert.InDelta(t, tc.ceiling, result.RecommendedCeiling, 0.001, "score %d", tc.score)
	}
}

func TestScore_GuarantorOnly(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	with := engine.Score(Inputs{BaseScore: 600, HasGuarantor: true})
	without := engine.Score(Inputs{BaseScore: 600})

	assert.Equal(t, without.FinalScore+10, with.FinalScore)
}
