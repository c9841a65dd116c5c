package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/churnapi"
	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/record"
	"github.com/hackathon/churninsight-go/internal/risk"
	"github.com/hackathon/churninsight-go/internal/utils"
)

// noFactorsNote is shown when no behavioral signals could be fetched.
const noFactorsNote = "No se identificaron factores relevantes"

// RecordDetail is the fully resolved detail view for one history record.
// When Decoded is false the token was malformed and every field degrades
// to unknown; the view still renders.
type RecordDetail struct {
	Record      models.HistoryRecord
	Decoded     bool
	Forecast    string
	Tier        risk.Tier
	Factors     *models.RiskFactors
	FactorsNote string
}

// DetailService reconstructs full records from tokens and enriches them
// with behavioral signals.
type DetailService struct {
	api    churnapi.API
	logger *logrus.Logger
}

// NewDetailService wires the detail view service.
func NewDetailService(api churnapi.API, logger *logrus.Logger) *DetailService {
	return &DetailService{
		api:    api,
		logger: logger,
	}
}

// FromToken decodes a record token and loads its risk factors. A malformed
// token yields a degraded but usable detail plus the DecodeError for
// logging; a risk-factor failure degrades to a "no factors" note instead
// of failing the view.
func (s *DetailService) FromToken(ctx context.Context, token string) (RecordDetail, error) {
	detail := RecordDetail{
		Forecast:    utils.Unknown,
		FactorsNote: noFactorsNote,
	}

	rec, err := record.Decode(token)
	if err != nil {
		s.logger.WithError(err).Warn("Record token could not be decoded")
		return detail, err
	}

	detail.Record = rec
	detail.Decoded = true
	detail.Forecast = utils.LabelToForecast(rec.Label)
	detail.Tier = risk.TierFromStoredLabel(rec.PredictionLabel)

	factors, err := s.api.RiskFactors(ctx, rec.CustomerID)
	if err != nil {
		s.logger.WithError(err).WithField("customer_id", rec.CustomerID).
			Debug("Risk factors unavailable, degrading to none")
		return detail, nil
	}
	if len(factors.RiskFactors) > 0 {
		detail.Factors = factors
		detail.FactorsNote = ""
	} else if factors.SuggestedAction != "" {
		detail.Factors = factors
	}

	return detail, nil
}
