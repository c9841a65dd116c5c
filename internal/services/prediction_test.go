package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/risk"
	"github.com/hackathon/churninsight-go/internal/utils"
)

func validRequest() models.PredictionRequest {
	return models.PredictionRequest{
		CustomerID: "CUST-007",
		Features: models.CustomerFeatures{
			SubscriptionType: models.PlanStandard,
			PaymentMethod:    "PayPal",
			WatchHours:       20,
			LastLoginDays:    4,
			MonthlyFee:       decimal.RequireFromString("13.99"),
			NumberOfProfiles: 3,
		},
	}
}

func TestDeriveAvgWatchTime(t *testing.T) {
	tests := []struct {
		watchHours    float64
		lastLoginDays int
		expected      float64
	}{
		{20, 4, 4},
		{48, 1, 24},
		{100, 0, 24},
		{0, 10, 0},
		{12, 3, 3},
	}

	for _, tt := range tests {
		got := DeriveAvgWatchTime(tt.watchHours, tt.lastLoginDays)
		assert.InDelta(t, tt.expected, got, 1e-9, "watchHours=%v days=%d", tt.watchHours, tt.lastLoginDays)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PredictionRequest)
		field  string
	}{
		{"empty customer id", func(r *models.PredictionRequest) { r.CustomerID = "" }, "customer_id"},
		{"unknown plan", func(r *models.PredictionRequest) { r.Features.SubscriptionType = "Family" }, "subscription_type"},
		{"unknown payment method", func(r *models.PredictionRequest) { r.Features.PaymentMethod = "Barter" }, "payment_method"},
		{"negative watch hours", func(r *models.PredictionRequest) { r.Features.WatchHours = -1 }, "watch_hours"},
		{"negative login days", func(r *models.PredictionRequest) { r.Features.LastLoginDays = -2 }, "last_login_days"},
		{"zero profiles", func(r *models.PredictionRequest) { r.Features.NumberOfProfiles = 0 }, "number_of_profiles"},
		{"too many profiles", func(r *models.PredictionRequest) { r.Features.NumberOfProfiles = 6 }, "number_of_profiles"},
		{"fee does not match plan", func(r *models.PredictionRequest) {
			r.Features.MonthlyFee = decimal.RequireFromString("9.50")
		}, "monthly_fee"},
		{"negative fee", func(r *models.PredictionRequest) {
			r.Features.MonthlyFee = decimal.RequireFromString("-1")
		}, "monthly_fee"},
		{"avg above a day", func(r *models.PredictionRequest) { r.Features.AvgWatchTimePerDay = 25 }, "avg_watch_time_per_day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.Features.AvgWatchTimePerDay = DeriveAvgWatchTime(req.Features.WatchHours, req.Features.LastLoginDays)
			tt.mutate(&req)

			err := ValidateRequest(req)
			require.Error(t, err)

			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateRequest_AcceptsWellFormed(t *testing.T) {
	req := validRequest()
	req.Features.AvgWatchTimePerDay = DeriveAvgWatchTime(req.Features.WatchHours, req.Features.LastLoginDays)
	assert.NoError(t, ValidateRequest(req))
}

func TestValidateRequest_FeeWithinTolerance(t *testing.T) {
	req := validRequest()
	req.Features.AvgWatchTimePerDay = DeriveAvgWatchTime(req.Features.WatchHours, req.Features.LastLoginDays)
	req.Features.MonthlyFee = decimal.RequireFromString("13.995")
	assert.NoError(t, ValidateRequest(req))
}

func TestSubmit_ValidationShortCircuits(t *testing.T) {
	api := newFakeAPI()
	orch := NewPredictionOrchestrator(api, nil, newTestLogger())

	req := validRequest()
	req.CustomerID = "   "

	_, err := orch.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, utils.IsValidation(err))
	assert.Zero(t, api.callCount("predict"), "validation failure must not reach the network")
}

func TestSubmit_ClassifiesAndRefreshesHistory(t *testing.T) {
	api := newFakeAPI()
	api.predictFn = func(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error) {
		assert.InDelta(t, 4.0, req.Features.AvgWatchTimePerDay, 1e-9, "derived feature travels on the wire")
		return &models.PredictResponse{
			Status:  200,
			Message: "Prediction generated",
			Data: models.PredictionData{
				CustomerID: req.CustomerID,
				Prediction: models.PredictionResult{Label: models.LabelWillChurn, Probability: 0.85},
			},
		}, nil
	}
	api.historyFn = func(ctx context.Context, page, size int) (*models.HistoryPage, error) {
		return &models.HistoryPage{Content: makeRecords("CUST", size)}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)
	_, err := pager.Search(context.Background(), HistoryFilters{})
	require.NoError(t, err)
	_, err = pager.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, pager.CurrentView().Pager.CurrentPage)

	orch := NewPredictionOrchestrator(api, pager, newTestLogger())
	outcome, err := orch.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, risk.TierHigh, outcome.Risk.Tier)
	assert.Equal(t, 85, outcome.Risk.Percentage)
	assert.Equal(t, "CUST-007", outcome.Response.Data.CustomerID)

	// A successful submission resets history to the first page.
	assert.Equal(t, 1, pager.CurrentView().Pager.CurrentPage)
}

func TestSubmit_RemoteFailurePropagates(t *testing.T) {
	api := newFakeAPI()
	api.predictFn = func(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error) {
		return nil, utils.NewTransportError(assert.AnError)
	}

	orch := NewPredictionOrchestrator(api, nil, newTestLogger())
	_, err := orch.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, utils.IsTransport(err))
}

func TestSampleRequest_AlwaysValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		req := SampleRequest()
		require.NoError(t, ValidateRequest(req), "sample %d: %+v", i, req)
	}
}
