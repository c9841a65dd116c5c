package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// createdAtLayout matches the backend's zone-less local date-time strings.
const createdAtLayout = "2006-01-02T15:04:05"

// HistoryRecord is a persisted prediction record, read-only from the
// client's perspective. CreatedAt is kept verbatim as the backend sent it
// so that serialization round trips are lossless.
type HistoryRecord struct {
	ID                 int64           `json:"id"`
	CustomerID         string          `json:"customerId"`
	SubscriptionType   string          `json:"subscriptionType"`
	PaymentMethod      string          `json:"paymentMethod"`
	MonthlyFee         decimal.Decimal `json:"monthlyFee"`
	WatchHours         float64         `json:"watchHours"`
	LastLoginDays      int             `json:"lastLoginDays"`
	NumberOfProfiles   int             `json:"numberOfProfiles"`
	AvgWatchTimePerDay float64         `json:"avgWatchTimePerDay"`
	Probability        float64         `json:"probability"`
	Label              string          `json:"label"`
	PredictionLabel    string          `json:"predictionLabel"`
	CreatedAt          string          `json:"createdAt"`
}

// CreatedAtTime parses the record timestamp. A zero time is returned when
// the value is missing or malformed.
func (r HistoryRecord) CreatedAtTime() time.Time {
	if t, err := time.Parse(createdAtLayout, r.CreatedAt); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		return t
	}
	return time.Time{}
}

// HistoryPage is one page of history records. The backend answers either a
// bare JSON array or a Spring-style `{"content": [...]}` wrapper; both
// shapes decode into the same slice.
type HistoryPage struct {
	Content []HistoryRecord
}

// UnmarshalJSON accepts both response shapes.
func (p *HistoryPage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &p.Content)
	}
	var wrapper struct {
		Content []HistoryRecord `json:"content"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	p.Content = wrapper.Content
	return nil
}
