package scoring

// Inputs are the already-validated scalars a loan application is scored on.
// BaseScore is the client's stored score, or the no-history default when the
// client has no record.
type Inputs struct {
	BaseScore       int
	DocumentCount   int
	RequestedAmount float64
	CollateralValue float64
	HasGuarantor    bool
}

// Result is a scored application. AdjustmentBreakdown records every signed
// point delta by name so a reviewer can audit how the final score was reached.
type Result struct {
	FinalScore          int
	Band                Band
	RecommendedCeiling  float64
	AdjustmentBreakdown map[string]int
}

// Engine applies a Policy's additive point system. It is pure and safe for
// concurrent use.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Score derives a credit score from application inputs. The result is always
// clamped to [MinScore, MaxScore]; there is no error path. This is heuristic
// business scaffolding, not a statistically validated model.
func (e *Engine) Score(inputs Inputs) Result {
	p := e.policy

	base := inputs.BaseScore
	if base <= 0 {
		base = p.BaseScoreNoHistory
	}

	collateral := inputs.CollateralValue
	if collateral < 0 {
		collateral = 0
	}

	adjustments := map[string]int{}

	for _, tier := range p.DocumentTiers {
		if inputs.DocumentCount >= tier.MinDocuments {
			adjustments["documents"] = tier.Points
			break
		}
	}

	switch {
	case inputs.RequestedAmount > 0 && inputs.RequestedAmount <= p.LowRiskAmountMax:
		adjustments["amount_risk"] = p.LowRiskPoints
	case inputs.RequestedAmount > p.HighRiskAmountMin:
		adjustments["amount_risk"] = -p.HighRiskPenalty
	}

	switch {
	case collateral > 0 && collateral >= inputs.RequestedAmount*p.StrongCollateralMul:
		adjustments["collateral"] = p.StrongCollateralPoints
	case collateral > 0 && collateral > inputs.RequestedAmount:
		adjustments["collateral"] = p.CoveredCollateralPoints
	}

	if inputs.HasGuarantor {
		adjustments["guarantor"] = p.GuarantorPoints
	}

	score := base
	for _, delta := range adjustments {
		score += delta
	}
	if score < p.MinScore {
		score = p.MinScore
	}
	if score > p.MaxScore {
		score = p.MaxScore
	}

	return Result{
		FinalScore:          score,
		Band:                p.band(score),
		RecommendedCeiling:  p.ceiling(score),
		AdjustmentBreakdown: adjustments,
	}
}
