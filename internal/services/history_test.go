package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathon/churninsight-go/internal/models"
)

func TestPlanQuery_Priority(t *testing.T) {
	tests := []struct {
		name    string
		filters HistoryFilters
		mode    QueryMode
	}{
		{"no filters", HistoryFilters{}, ModeRecent},
		{"customer only", HistoryFilters{CustomerID: "CUST-001"}, ModeByCustomer},
		{"full range", HistoryFilters{StartDate: "2025-01-01", EndDate: "2025-01-31"}, ModeByDateRange},
		{"range beats customer", HistoryFilters{CustomerID: "CUST-001", StartDate: "2025-01-01", EndDate: "2025-01-31"}, ModeByDateRange},
		{"start only falls through", HistoryFilters{CustomerID: "CUST-001", StartDate: "2025-01-01"}, ModeByCustomer},
		{"end only, no customer", HistoryFilters{EndDate: "2025-01-31"}, ModeRecent},
		{"whitespace-only customer", HistoryFilters{CustomerID: "   "}, ModeRecent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := PlanQuery(tt.filters, 0, 10)
			assert.Equal(t, tt.mode, q.Mode)
		})
	}
}

func TestPlanQuery_DateNormalization(t *testing.T) {
	q := PlanQuery(HistoryFilters{StartDate: "2025-01-01", EndDate: "2025-01-31"}, 2, 10)

	assert.Equal(t, "2025-01-01 00:00:00", q.StartDate)
	assert.Equal(t, "2025-01-31 23:59:59", q.EndDate)
	assert.Equal(t, 2, q.PageIndex)
	assert.Equal(t, 10, q.PageSize)
}

func TestPlanQuery_CustomerBecomesPostFilterInRangeMode(t *testing.T) {
	q := PlanQuery(HistoryFilters{
		CustomerID: "  CUST-ABC  ",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-31",
	}, 0, 10)

	assert.Equal(t, ModeByDateRange, q.Mode)
	assert.Empty(t, q.CustomerID, "customer id must not be sent to the backend in range mode")
	assert.Equal(t, "cust-abc", q.PostFilter)
}

func TestPageQuery_ApplyPostFilter(t *testing.T) {
	records := []models.HistoryRecord{
		{CustomerID: "CUST-001"},
		{CustomerID: "other-42"},
		{CustomerID: "my-cust-99"},
	}

	q := PageQuery{PostFilter: "cust"}
	filtered := q.applyPostFilter(records)
	require.Len(t, filtered, 2)
	assert.Equal(t, "CUST-001", filtered[0].CustomerID)
	assert.Equal(t, "my-cust-99", filtered[1].CustomerID)

	q = PageQuery{}
	assert.Len(t, q.applyPostFilter(records), 3)
}

func TestPageQuery_FingerprintDistinguishesQueries(t *testing.T) {
	a := PlanQuery(HistoryFilters{CustomerID: "CUST-001"}, 0, 10)
	b := PlanQuery(HistoryFilters{CustomerID: "CUST-001"}, 1, 10)
	c := PlanQuery(HistoryFilters{CustomerID: "CUST-002"}, 0, 10)

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, a.Fingerprint(), PlanQuery(HistoryFilters{CustomerID: "CUST-001"}, 0, 10).Fingerprint())
}

func TestHistoryPager_HasNextFromCardinality(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		hasNext  bool
		advisory bool
	}{
		{"full page", 10, true, false},
		{"short page", 7, false, false},
		{"empty page", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.historyFn = func(ctx context.Context, page, size int) (*models.HistoryPage, error) {
				return &models.HistoryPage{Content: makeRecords("CUST", tt.count)}, nil
			}

			pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)
			view, err := pager.Search(context.Background(), HistoryFilters{})
			require.NoError(t, err)

			assert.Len(t, view.Records, tt.count)
			assert.Equal(t, 1, view.Pager.CurrentPage)
			assert.Equal(t, tt.hasNext, view.Pager.HasNext)
			assert.False(t, view.Pager.HasPrev)
			if tt.advisory {
				assert.NotEmpty(t, view.Advisory)
			} else {
				assert.Empty(t, view.Advisory)
			}
		})
	}
}

func TestHistoryPager_RangeWithCustomerMakesOneCall(t *testing.T) {
	api := newFakeAPI()
	api.byRangeFn = func(ctx context.Context, start, end string, page, size int) (*models.HistoryPage, error) {
		assert.Equal(t, "2025-01-01 00:00:00", start)
		assert.Equal(t, "2025-01-31 23:59:59", end)
		return &models.HistoryPage{Content: []models.HistoryRecord{
			{CustomerID: "CUST-001"},
			{CustomerID: "other-42"},
		}}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)
	view, err := pager.Search(context.Background(), HistoryFilters{
		CustomerID: "cust",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-31",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, api.callCount("by_range"))
	assert.Zero(t, api.callCount("by_customer"))
	assert.Zero(t, api.callCount("history"))

	require.Len(t, view.Records, 1)
	assert.Equal(t, "CUST-001", view.Records[0].CustomerID)
}

func TestHistoryPager_GoToPageBounds(t *testing.T) {
	api := newFakeAPI()
	api.historyFn = func(ctx context.Context, page, size int) (*models.HistoryPage, error) {
		return &models.HistoryPage{Content: makeRecords("CUST", size)}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 2)
	_, err := pager.Search(context.Background(), HistoryFilters{})
	require.NoError(t, err)
	before := api.callCount("history")

	// Back from page 1 is a no-op with no network call.
	view, err := pager.GoToPage(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Pager.CurrentPage)
	assert.Equal(t, before, api.callCount("history"))

	// Forward loads page 2.
	view, err = pager.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Pager.CurrentPage)
	assert.True(t, view.Pager.HasPrev)
	assert.Equal(t, before+1, api.callCount("history"))

	// Forward at the page ceiling is a no-op.
	view, err = pager.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Pager.CurrentPage)
	assert.Equal(t, before+1, api.callCount("history"))
}

func TestHistoryPager_NoNextAfterShortPage(t *testing.T) {
	api := newFakeAPI()
	api.historyFn = func(ctx context.Context, page, size int) (*models.HistoryPage, error) {
		return &models.HistoryPage{Content: makeRecords("CUST", 3)}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)
	_, err := pager.Search(context.Background(), HistoryFilters{})
	require.NoError(t, err)
	before := api.callCount("history")

	view, err := pager.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Pager.CurrentPage)
	assert.Equal(t, before, api.callCount("history"), "exhausted hasNext must not hit the network")
}

func TestHistoryPager_InvalidDelta(t *testing.T) {
	pager := NewHistoryPager(newFakeAPI(), nil, newTestLogger(), 10, 50)
	_, err := pager.GoToPage(context.Background(), 2)
	assert.Error(t, err)
}

func TestHistoryPager_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	api := newFakeAPI()
	api.byCustomerFn = func(ctx context.Context, customerID string, page, size int) (*models.HistoryPage, error) {
		if customerID == "SLOW" {
			close(started)
			<-release
			return &models.HistoryPage{Content: makeRecords("SLOW", 10)}, nil
		}
		return &models.HistoryPage{Content: makeRecords("FAST", 4)}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)

	errCh := make(chan error, 1)
	go func() {
		_, err := pager.Search(context.Background(), HistoryFilters{CustomerID: "SLOW"})
		errCh <- err
	}()

	<-started

	// The second query overtakes the first while it is still in flight.
	view, err := pager.Search(context.Background(), HistoryFilters{CustomerID: "FAST"})
	require.NoError(t, err)
	require.Len(t, view.Records, 4)

	close(release)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	// The stale response must not have displaced the newer page.
	final := pager.CurrentView()
	require.Len(t, final.Records, 4)
	assert.Equal(t, "FAST-001", final.Records[0].CustomerID)
	assert.False(t, final.Pager.HasNext)
}

func TestHistoryPager_FailureKeepsLastGoodPage(t *testing.T) {
	api := newFakeAPI()
	fail := false
	api.historyFn = func(ctx context.Context, page, size int) (*models.HistoryPage, error) {
		if fail {
			return nil, assert.AnError
		}
		return &models.HistoryPage{Content: makeRecords("CUST", 10)}, nil
	}

	pager := NewHistoryPager(api, nil, newTestLogger(), 10, 50)
	_, err := pager.Search(context.Background(), HistoryFilters{})
	require.NoError(t, err)

	fail = true
	view, err := pager.GoToPage(context.Background(), 1)
	assert.Error(t, err)
	assert.Len(t, view.Records, 10, "last good records survive a failed load")

	// The failure is retryable: a later load succeeds normally.
	fail = false
	view, err = pager.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, view.Pager.CurrentPage)
}
