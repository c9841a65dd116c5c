package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hackathon/churninsight-go/internal/models"
)

// ErrNothingToExport is returned when no history fetch has produced rows.
var ErrNothingToExport = errors.New("no hay datos para exportar; realiza primero una búsqueda")

// csvHeader fixes the column order of the exported artifact to the
// HistoryRecord field order.
var csvHeader = []string{
	"customerId",
	"createdAt",
	"subscriptionType",
	"paymentMethod",
	"monthlyFee",
	"watchHours",
	"lastLoginDays",
	"numberOfProfiles",
	"avgWatchTimePerDay",
	"label",
	"predictionLabel",
	"probability",
}

// ExportCSV renders the given records (the last successful history fetch,
// not the full dataset) as CSV. Every value is quote-wrapped with internal
// quotes doubled.
func ExportCSV(records []models.HistoryRecord) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToExport
	}

	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')

	for i, r := range records {
		row := []string{
			r.CustomerID,
			r.CreatedAt,
			r.SubscriptionType,
			r.PaymentMethod,
			r.MonthlyFee.String(),
			formatFloat(r.WatchHours),
			strconv.Itoa(r.LastLoginDays),
			strconv.Itoa(r.NumberOfProfiles),
			formatFloat(r.AvgWatchTimePerDay),
			r.Label,
			r.PredictionLabel,
			formatFloat(r.Probability),
		}
		for j, v := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCSV(v))
		}
		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

// ExportFileName builds the dated artifact name.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("historial_churn_%s.csv", now.Format("2006-01-02"))
}

// WriteCSVFile writes the export into dir and returns the file path.
func WriteCSVFile(dir string, records []models.HistoryRecord, now time.Time) (string, error) {
	csv, err := ExportCSV(records)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		return "", fmt.Errorf("failed to write CSV export: %w", err)
	}
	return path, nil
}

func quoteCSV(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
