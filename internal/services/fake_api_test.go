package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/models"
)

// fakeAPI is a scriptable backend double. Each operation has a pluggable
// function and a call counter; unset functions answer empty results.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	predictFn    func(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error)
	healthFn     func(ctx context.Context) (*models.HealthStatus, error)
	historyFn    func(ctx context.Context, page, size int) (*models.HistoryPage, error)
	byCustomerFn func(ctx context.Context, customerID string, page, size int) (*models.HistoryPage, error)
	byRangeFn    func(ctx context.Context, startDate, endDate string, page, size int) (*models.HistoryPage, error)
	riskFn       func(ctx context.Context, customerID string) (*models.RiskFactors, error)
	kpisFn       func(ctx context.Context) (*models.KPIs, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error) {
	f.count("predict")
	if f.predictFn != nil {
		return f.predictFn(ctx, req)
	}
	return &models.PredictResponse{}, nil
}

func (f *fakeAPI) Health(ctx context.Context) (*models.HealthStatus, error) {
	f.count("health")
	if f.healthFn != nil {
		return f.healthFn(ctx)
	}
	return &models.HealthStatus{Backend: "UP", ML: "UP", Status: "UP"}, nil
}

func (f *fakeAPI) History(ctx context.Context, page, size int) (*models.HistoryPage, error) {
	f.count("history")
	if f.historyFn != nil {
		return f.historyFn(ctx, page, size)
	}
	return &models.HistoryPage{}, nil
}

func (f *fakeAPI) HistoryByCustomer(ctx context.Context, customerID string, page, size int) (*models.HistoryPage, error) {
	f.count("by_customer")
	if f.byCustomerFn != nil {
		return f.byCustomerFn(ctx, customerID, page, size)
	}
	return &models.HistoryPage{}, nil
}

func (f *fakeAPI) HistoryByDateRange(ctx context.Context, startDate, endDate string, page, size int) (*models.HistoryPage, error) {
	f.count("by_range")
	if f.byRangeFn != nil {
		return f.byRangeFn(ctx, startDate, endDate, page, size)
	}
	return &models.HistoryPage{}, nil
}

func (f *fakeAPI) RiskFactors(ctx context.Context, customerID string) (*models.RiskFactors, error) {
	f.count("risk_factors")
	if f.riskFn != nil {
		return f.riskFn(ctx, customerID)
	}
	return &models.RiskFactors{}, nil
}

func (f *fakeAPI) KPIs(ctx context.Context) (*models.KPIs, error) {
	f.count("kpis")
	if f.kpisFn != nil {
		return f.kpisFn(ctx)
	}
	return &models.KPIs{}, nil
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// makeRecords builds n records with sequential customer ids.
func makeRecords(prefix string, n int) []models.HistoryRecord {
	records := make([]models.HistoryRecord, n)
	for i := range records {
		records[i] = models.HistoryRecord{
			ID:         int64(i + 1),
			CustomerID: fmt.Sprintf("%s-%03d", prefix, i+1),
			CreatedAt:  "2025-11-03T14:22:05",
		}
	}
	return records
}
