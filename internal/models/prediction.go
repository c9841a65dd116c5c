package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The backend serializes money as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Model labels returned by the prediction service.
const (
	LabelWillChurn    = "will_churn"
	LabelWillContinue = "will_continue"
)

// Subscription plans accepted by the backend.
const (
	PlanBasic    = "Basic"
	PlanStandard = "Standard"
	PlanPremium  = "Premium"
)

// PaymentMethods lists the payment methods accepted by the backend.
var PaymentMethods = []string{"Credit Card", "Debit Card", "PayPal", "Gift Card", "Crypto"}

var planFees = map[string]decimal.Decimal{
	PlanBasic:    decimal.RequireFromString("8.99"),
	PlanStandard: decimal.RequireFromString("13.99"),
	PlanPremium:  decimal.RequireFromString("17.99"),
}

// PlanFee returns the monthly fee for a subscription plan. The second value
// is false for unknown plans.
func PlanFee(plan string) (decimal.Decimal, bool) {
	fee, ok := planFees[plan]
	return fee, ok
}

// CustomerFeatures is the feature vector submitted for a prediction.
// avg_watch_time_per_day is derived client-side, not returned by the server.
type CustomerFeatures struct {
	SubscriptionType   string          `json:"subscription_type"`
	PaymentMethod      string          `json:"payment_method"`
	WatchHours         float64         `json:"watch_hours"`
	LastLoginDays      int             `json:"last_login_days"`
	MonthlyFee         decimal.Decimal `json:"monthly_fee"`
	NumberOfProfiles   int             `json:"number_of_profiles"`
	AvgWatchTimePerDay float64         `json:"avg_watch_time_per_day"`
}

// PredictionRequest is the body of POST /api/predict.
type PredictionRequest struct {
	CustomerID string           `json:"customer_id"`
	Features   CustomerFeatures `json:"features"`
}

// PredictionResult carries the model outcome for one customer.
type PredictionResult struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// PredictionData is the payload of a successful prediction response.
type PredictionData struct {
	CustomerID string           `json:"customer_id"`
	Prediction PredictionResult `json:"prediction"`
}

// PredictResponse is the standard success envelope of the backend.
// Timestamps are local date-time strings without zone, kept verbatim.
type PredictResponse struct {
	Timestamp string         `json:"timestamp"`
	Status    int            `json:"status"`
	Message   string         `json:"message"`
	Data      PredictionData `json:"data"`
	Path      string         `json:"path"`
}

// APIError is the standard error envelope of the backend.
type APIError struct {
	Timestamp string                 `json:"timestamp"`
	Status    int                    `json:"status"`
	Error     string                 `json:"error"`
	Details   map[string]interface{} `json:"details"`
	Path      string                 `json:"path"`
}

// HealthStatus reduces the backend health body to the pair the client
// cares about. Anything other than "UP" counts as down.
type HealthStatus struct {
	Backend string `json:"backend"`
	ML      string `json:"ml"`
	Status  string `json:"status"`
}

// BackendUp reports whether the backend declared itself up.
func (h HealthStatus) BackendUp() bool {
	return h.Backend == "UP"
}

// MLUp reports whether the model service is reachable through the backend.
func (h HealthStatus) MLUp() bool {
	return h.ML == "UP"
}

// KPIs holds the aggregate counters consumed read-only at startup.
type KPIs struct {
	TotalEvaluated int64   `json:"totalEvaluated"`
	HighRisk       int64   `json:"highRisk"`
	MediumRisk     int64   `json:"mediumRisk"`
	LowRisk        int64   `json:"lowRisk"`
	ChurnRate      float64 `json:"churnRate"`
}

// RiskFactors carries behavioral signals for a customer. An empty factor
// list degrades to "no factors identified" in presentation.
type RiskFactors struct {
	RiskLevel             string   `json:"riskLevel"`
	RiskFactors           []string `json:"riskFactors"`
	SuggestedAction       string   `json:"suggestedAction"`
	SimilarCustomersCount int64    `json:"similarCustomersCount"`
}
