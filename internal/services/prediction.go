package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/churnapi"
	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/risk"
	"github.com/hackathon/churninsight-go/internal/utils"
)

// maxAvgWatchHours caps the derived daily average: a day has 24 hours.
const maxAvgWatchHours = 24.0

// feeTolerance is the allowed drift between the submitted monthly fee and
// the plan's list price.
var feeTolerance = decimal.RequireFromString("0.01")

// PredictionOutcome is a successful submission: the raw backend response
// plus the locally classified risk.
type PredictionOutcome struct {
	Response *models.PredictResponse
	Risk     risk.Classification
}

// PredictionOrchestrator validates and submits prediction requests. On
// success it classifies the returned probability and resets the history
// pager to page 1 so the new record surfaces first (the backend orders by
// recency; the client never sorts).
type PredictionOrchestrator struct {
	api    churnapi.API
	pager  *HistoryPager
	logger *logrus.Logger
}

// NewPredictionOrchestrator wires the orchestrator. pager may be nil when
// no history refresh is wanted (tests, one-shot CLI calls).
func NewPredictionOrchestrator(api churnapi.API, pager *HistoryPager, logger *logrus.Logger) *PredictionOrchestrator {
	return &PredictionOrchestrator{
		api:    api,
		pager:  pager,
		logger: logger,
	}
}

// DeriveAvgWatchTime computes the client-side derived feature
// watchHours / (lastLoginDays + 1), capped at 24 hours per day.
func DeriveAvgWatchTime(watchHours float64, lastLoginDays int) float64 {
	avg := watchHours / (float64(lastLoginDays) + 1)
	return math.Min(maxAvgWatchHours, avg)
}

// Submit validates the request locally, submits it, and classifies the
// result. Validation failures short-circuit with a ValidationError before
// any network call. Remote failures come back as TransportError or
// RemoteError; risk is never classified for them.
func (o *PredictionOrchestrator) Submit(ctx context.Context, req models.PredictionRequest) (*PredictionOutcome, error) {
	normalizeRequest(&req)

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := o.api.Predict(ctx, &req)
	if err != nil {
		return nil, err
	}

	outcome := &PredictionOutcome{
		Response: resp,
		Risk:     risk.Classify(resp.Data.Prediction.Probability),
	}

	o.logger.WithFields(logrus.Fields{
		"customer_id": resp.Data.CustomerID,
		"label":       resp.Data.Prediction.Label,
		"risk":        outcome.Risk.Label,
	}).Info("Prediction received")

	if o.pager != nil {
		if _, err := o.pager.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			o.logger.WithError(err).Warn("History refresh after prediction failed")
		}
	}

	return outcome, nil
}

func normalizeRequest(req *models.PredictionRequest) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Features.AvgWatchTimePerDay = DeriveAvgWatchTime(req.Features.WatchHours, req.Features.LastLoginDays)
}

// ValidateRequest performs the local structural validation that gates a
// submission. The rules mirror what the backend enforces, so a request
// passing here is well-formed on the wire.
func ValidateRequest(req models.PredictionRequest) error {
	if req.CustomerID == "" {
		return utils.NewValidationError("customer_id", "el customer_id es obligatorio")
	}

	f := req.Features
	if _, ok := models.PlanFee(f.SubscriptionType); !ok {
		return utils.NewValidationErrorf("subscription_type", "tipo de suscripción desconocido: %q", f.SubscriptionType)
	}
	if !isKnownPaymentMethod(f.PaymentMethod) {
		return utils.NewValidationErrorf("payment_method", "método de pago desconocido: %q", f.PaymentMethod)
	}
	if !isFiniteNonNegative(f.WatchHours) {
		return utils.NewValidationError("watch_hours", "las horas vistas deben ser un número finito no negativo")
	}
	if f.LastLoginDays < 0 {
		return utils.NewValidationError("last_login_days", "los días desde el último login no pueden ser negativos")
	}
	if f.NumberOfProfiles < 1 || f.NumberOfProfiles > 5 {
		return utils.NewValidationError("number_of_profiles", "el valor debe estar entre 1 y 5")
	}
	if f.MonthlyFee.IsNegative() {
		return utils.NewValidationError("monthly_fee", "la tarifa mensual no puede ser negativa")
	}
	if !isFiniteNonNegative(f.AvgWatchTimePerDay) || f.AvgWatchTimePerDay > maxAvgWatchHours {
		return utils.NewValidationError("avg_watch_time_per_day", "el tiempo promedio por día debe estar entre 0 y 24")
	}
	if planFee, _ := models.PlanFee(f.SubscriptionType); f.MonthlyFee.Sub(planFee).Abs().GreaterThanOrEqual(feeTolerance) {
		return utils.NewValidationError("monthly_fee", "la tarifa mensual no coincide con el plan seleccionado")
	}

	return nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func isKnownPaymentMethod(method string) bool {
	for _, m := range models.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// SampleRequest builds a plan-consistent demo payload. Scenarios weight
// towards clearly high or clearly low churn profiles, with a mixed band in
// between, matching the distribution the original demo tooling used.
func SampleRequest() models.PredictionRequest {
	plans := []string{models.PlanBasic, models.PlanStandard, models.PlanPremium}
	plan := plans[rand.Intn(len(plans))]
	fee, _ := models.PlanFee(plan)

	f := models.CustomerFeatures{
		SubscriptionType: plan,
		PaymentMethod:    models.PaymentMethods[rand.Intn(len(models.PaymentMethods))],
		MonthlyFee:       fee,
	}

	switch r := rand.Float64(); {
	case r < 0.4: // low usage, long absence
		f.WatchHours = randFloat(0, 6)
		f.LastLoginDays = randInt(20, 60)
		f.NumberOfProfiles = randInt(1, 2)
	case r < 0.8: // heavy usage, recent login
		f.WatchHours = randFloat(18, 45)
		f.LastLoginDays = randInt(1, 5)
		f.NumberOfProfiles = randInt(2, 5)
	default: // mixed
		f.WatchHours = randFloat(6, 25)
		f.LastLoginDays = randInt(3, 20)
		f.NumberOfProfiles = randInt(1, 4)
	}
	f.AvgWatchTimePerDay = DeriveAvgWatchTime(f.WatchHours, f.LastLoginDays)

	return models.PredictionRequest{
		CustomerID: fmt.Sprintf("cli-%d", randInt(10000, 99999)),
		Features:   f,
	}
}

func randInt(min, max int) int {
	return rand.Intn(max-min+1) + min
}

func randFloat(min, max float64) float64 {
	v := min + rand.Float64()*(max-min)
	return math.Round(v*10) / 10
}
