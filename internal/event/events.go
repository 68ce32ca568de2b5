package event

import "time"

const (
	RoutingKeyClientCreated = "client.created"
	RoutingKeyClientUpdated = "client.updated"
	RoutingKeyLoanCreated   = "loan.created"
	RoutingKeyLoanSettled   = "loan.settled"
	RoutingKeyScoreComputed = "score.computed"
)

type ClientEvent struct {
	ClientID  int64     `json:"clientId"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LoanEvent struct {
	LoanID           int64     `json:"loanId"`
	ClientID         int64     `json:"clientId"`
	Principal        float64   `json:"principal,omitempty"`
	SettlementAmount float64   `json:"settlementAmount,omitempty"`
	RebateAmount     float64   `json:"rebateAmount,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type ScoreEvent struct {
	ClientID           int64     `json:"clientId"`
	FinalScore         int       `json:"finalScore"`
	Band               string    `json:"band"`
	RecommendedCeiling float64   `json:"recommendedCeiling"`
	Timestamp          time.Time `json:"timestamp"`
}
