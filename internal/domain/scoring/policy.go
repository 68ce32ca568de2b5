package scoring

type Band string

const (
	BandExcellent Band = "EXCELLENT"
	BandVeryGood  Band = "VERY_GOOD"
	BandGood      Band = "GOOD"
	BandFair      Band = "FAIR"
	BandPoor      Band = "POOR"
	BandNoHistory Band = "NO_HISTORY"
)

// DocumentTier awards points once the applicant has supplied at least
// MinDocuments supporting documents. Tiers are evaluated highest first.
type DocumentTier struct {
	MinDocuments int
	Points       int
}

// ScoreStep maps a minimum score to a band or a recommended lending ceiling.
type ScoreStep struct {
	MinScore int
	Band     Band
	Ceiling  float64
}

// Policy carries every threshold the scoring engine uses. The values are
// business configuration, tunable per tenant, not fixed law.
type Policy struct {
	BaseScoreNoHistory int
	MinScore           int
	MaxScore           int

	DocumentTiers []DocumentTier

	// Requested-amount risk banding. Amounts in (0, LowRiskAmountMax] earn
	// LowRiskPoints, amounts above HighRiskAmountMin lose HighRiskPenalty,
	// and the band between the two deliberately has no adjustment.
	LowRiskAmountMax  float64
	LowRiskPoints     int
	HighRiskAmountMin float64
	HighRiskPenalty   int

	// Collateral coverage. Strong cover is collateral at or above the
	// requested amount times StrongCollateralMul.
	StrongCollateralMul     float64
	StrongCollateralPoints  int
	CoveredCollateralPoints int

	GuarantorPoints int

	// Steps are evaluated highest MinScore first; the first match wins.
	Steps []ScoreStep
}

// DefaultPolicy returns the stock thresholds. Ceilings are denominated in the
// tenant's base currency.
func DefaultPolicy() Policy {
	return Policy{
		BaseScoreNoHistory: 300,
		MinScore:           300,
		MaxScore:           850,
		DocumentTiers: []DocumentTier{
			{MinDocuments: 6, Points: 30},
			{MinDocuments: 3, Points: 15},
			{MinDocuments: 1, Points: 5},
		},
		LowRiskAmountMax:  50_000,
		LowRiskPoints:     10,
		HighRiskAmountMin: 100_000,
		HighRiskPenalty:   10,

		StrongCollateralMul:     1.5,
		StrongCollateralPoints:  20,
		CoveredCollateralPoints: 10,

		GuarantorPoints: 10,

		Steps: []ScoreStep{
			{MinScore: 800, Band: BandExcellent, Ceiling: 500_000},
			{MinScore: 740, Band: BandVeryGood, Ceiling: 350_000},
			{MinScore: 670, Band: BandGood, Ceiling: 200_000},
			{MinScore: 580, Band: BandFair, Ceiling: 100_000},
			{MinScore: 300, Band: BandPoor, Ceiling: 50_000},
		},
	}
}

func (p Policy) band(score int) Band {
	for _, s := range p.Steps {
		if score >= s.MinScore {
			return s.Band
		}
	}
	return BandNoHistory
}

func (p Policy) ceiling(score int) float64 {
	for _, s := range p.Steps {
		if score >= s.MinScore {
			return s.Ceiling
		}
	}
	return 0
}
