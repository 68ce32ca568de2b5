package dto

import (
	"fmt"

	"lending-engine/internal/domain/scoring"
)

type ScoreApplicationRequest struct {
	ClientID        int64   `json:"clientId"`
	DocumentCount   int     `json:"documentCount"`
	RequestedAmount float64 `json:"requestedAmount"`
	CollateralValue float64 `json:"collateralValue"`
	HasGuarantor    bool    `json:"hasGuarantor"`
}

func (r *ScoreApplicationRequest) Validate() error {
	if r.ClientID <= 0 {
		return fmt.Errorf("clientId must be positive")
	}
	if r.DocumentCount < 0 {
		return fmt.Errorf("documentCount cannot be negative")
	}
	if r.RequestedAmount < 0 {
		return fmt.Errorf("requestedAmount cannot be negative")
	}
	return nil
}

func (r *ScoreApplicationRequest) ToApplication() scoring.Application {
	return scoring.Application{
		ClientID:        r.ClientID,
		DocumentCount:   r.DocumentCount,
		RequestedAmount: r.RequestedAmount,
		CollateralValue: r.CollateralValue,
		HasGuarantor:    r.HasGuarantor,
	}
}

type ScoreResponse struct {
	FinalScore          int            `json:"finalScore"`
	Band                string         `json:"band"`
	RecommendedCeiling  string         `json:"recommendedCeiling"`
	AdjustmentBreakdown map[string]int `json:"adjustmentBreakdown,omitempty"`
}

func NewScoreResponse(r *scoring.Result) ScoreResponse {
	return ScoreResponse{
		FinalScore:          r.FinalScore,
		Band:                string(r.Band),
		RecommendedCeiling:  formatMoney(r.RecommendedCeiling),
		AdjustmentBreakdown: r.AdjustmentBreakdown,
	}
}
