package churnapi

import (
	"context"

	"github.com/hackathon/churninsight-go/internal/models"
)

// API is the operation surface of the remote ChurnInsight backend.
// Services depend on this interface so tests can substitute the transport.
type API interface {
	Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error)
	Health(ctx context.Context) (*models.HealthStatus, error)
	History(ctx context.Context, page, size int) (*models.HistoryPage, error)
	HistoryByCustomer(ctx context.Context, customerID string, page, size int) (*models.HistoryPage, error)
	HistoryByDateRange(ctx context.Context, startDate, endDate string, page, size int) (*models.HistoryPage, error)
	RiskFactors(ctx context.Context, customerID string) (*models.RiskFactors, error)
	KPIs(ctx context.Context) (*models.KPIs, error)
}

var _ API = (*Client)(nil)
