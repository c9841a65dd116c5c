package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/cache"
	"github.com/hackathon/churninsight-go/internal/churnapi"
	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/utils"
)

// ErrSuperseded is returned to a caller whose query was overtaken by a
// newer one before its response arrived. The pager state is untouched;
// callers drop the result.
var ErrSuperseded = errors.New("consulta reemplazada por una más reciente")

// QueryMode selects which remote history endpoint a query hits.
type QueryMode int

const (
	// ModeRecent pages the unscoped history, newest first.
	ModeRecent QueryMode = iota
	// ModeByCustomer pages history scoped server-side to one customer.
	ModeByCustomer
	// ModeByDateRange pages history inside a date range.
	ModeByDateRange
)

// String names the mode for logs and cache keys.
func (m QueryMode) String() string {
	switch m {
	case ModeByCustomer:
		return "by_customer"
	case ModeByDateRange:
		return "by_date_range"
	default:
		return "recent"
	}
}

// HistoryFilters is the user-supplied filter state. Dates are calendar
// days in "YYYY-MM-DD" form.
type HistoryFilters struct {
	CustomerID string
	StartDate  string
	EndDate    string
}

// PageQuery is one planned remote call. Exactly one mode is active;
// PostFilter is set only in date-range mode when a customer id is also
// present, and is applied client-side after the response arrives.
type PageQuery struct {
	Mode       QueryMode
	CustomerID string
	StartDate  string
	EndDate    string
	PostFilter string
	PageIndex  int
	PageSize   int
}

// PlanQuery selects the query mode by strict priority: a complete date
// range wins, then a customer id, then the unscoped recent listing. In
// date-range mode the customer id is never sent to the backend; it becomes
// a case-insensitive substring post-filter instead. One remote call is
// issued per query regardless of mode.
func PlanQuery(filters HistoryFilters, pageIndex, pageSize int) PageQuery {
	customerID := strings.TrimSpace(filters.CustomerID)
	start := strings.TrimSpace(filters.StartDate)
	end := strings.TrimSpace(filters.EndDate)

	q := PageQuery{
		PageIndex: pageIndex,
		PageSize:  pageSize,
	}

	switch {
	case start != "" && end != "":
		q.Mode = ModeByDateRange
		q.StartDate = start + " 00:00:00"
		q.EndDate = end + " 23:59:59"
		if customerID != "" {
			q.PostFilter = strings.ToLower(customerID)
		}
	case customerID != "":
		q.Mode = ModeByCustomer
		q.CustomerID = customerID
	default:
		q.Mode = ModeRecent
	}

	return q
}

// Fingerprint identifies a query for the page cache.
func (q PageQuery) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		q.Mode, q.CustomerID, q.StartDate, q.EndDate, q.PostFilter, q.PageIndex, q.PageSize)
}

// applyPostFilter keeps the records whose customer id contains the filter,
// case-insensitive. A query without a post-filter passes through untouched.
func (q PageQuery) applyPostFilter(records []models.HistoryRecord) []models.HistoryRecord {
	if q.PostFilter == "" {
		return records
	}
	filtered := make([]models.HistoryRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.CustomerID), q.PostFilter) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// PagerState is the navigation state exposed to presentation. HasNext is a
// heuristic inferred from result cardinality, not ground truth: the backend
// returns no total count, so a full last page reads as "more available".
type PagerState struct {
	CurrentPage       int
	TotalPagesCeiling int
	HasNext           bool
	HasPrev           bool
}

// HistoryView is the pager's current snapshot: the last successfully
// fetched page plus navigation state. Advisory carries the non-fatal
// empty-page notice when the current page has no records.
type HistoryView struct {
	Records  []models.HistoryRecord
	Pager    PagerState
	Advisory string
}

// pagerPhase tracks the pager lifecycle: Idle -> Loading -> Loaded, or
// Loading -> Failed -> Idle (retryable, no automatic retry).
type pagerPhase int

const (
	phaseIdle pagerPhase = iota
	phaseLoading
	phaseLoaded
	phaseFailed
)

// HistoryPager is the stateful history controller. All state mutation
// happens under mu and only on behalf of the most recent request: every
// fetch takes a sequence number and a response whose sequence is no longer
// current is discarded, so concurrent queries cannot interleave writes.
type HistoryPager struct {
	api      churnapi.API
	cache    *cache.RedisHistoryCache
	logger   *logrus.Logger
	pageSize int
	maxPages int

	mu          sync.Mutex
	seq         uint64
	phase       pagerPhase
	filters     HistoryFilters
	currentPage int
	records     []models.HistoryRecord
	hasNext     bool
}

// NewHistoryPager creates the history controller. pageCache may be nil.
func NewHistoryPager(api churnapi.API, pageCache *cache.RedisHistoryCache, logger *logrus.Logger, pageSize, maxPages int) *HistoryPager {
	return &HistoryPager{
		api:         api,
		cache:       pageCache,
		logger:      logger,
		pageSize:    pageSize,
		maxPages:    maxPages,
		currentPage: 1,
	}
}

// Search applies new filters, resets to page 1 and issues the query.
func (p *HistoryPager) Search(ctx context.Context, filters HistoryFilters) (HistoryView, error) {
	p.mu.Lock()
	p.filters = filters
	p.currentPage = 1
	p.mu.Unlock()

	return p.load(ctx)
}

// Reload re-issues the current filters from page 1. Used after a new
// prediction so the freshest record surfaces first.
func (p *HistoryPager) Reload(ctx context.Context) (HistoryView, error) {
	p.mu.Lock()
	p.currentPage = 1
	p.mu.Unlock()

	return p.load(ctx)
}

// GoToPage moves one page backwards or forwards. It is a no-op at the
// bounds: page 1 going back, the page ceiling or an exhausted hasNext going
// forward. No network call is made for a no-op.
func (p *HistoryPager) GoToPage(ctx context.Context, delta int) (HistoryView, error) {
	if delta != -1 && delta != 1 {
		return p.CurrentView(), fmt.Errorf("delta de página inválido: %d", delta)
	}

	p.mu.Lock()
	if delta == -1 && p.currentPage == 1 {
		view := p.viewLocked()
		p.mu.Unlock()
		return view, nil
	}
	if delta == 1 && (p.currentPage == p.maxPages || !p.hasNext) {
		view := p.viewLocked()
		p.mu.Unlock()
		return view, nil
	}
	p.currentPage += delta
	p.mu.Unlock()

	return p.load(ctx)
}

// CurrentView returns the pager snapshot without touching the network.
func (p *HistoryPager) CurrentView() HistoryView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// load plans and executes one query for the current state. The remote call
// runs outside the lock; the result is applied only if no newer query was
// issued in the meantime.
func (p *HistoryPager) load(ctx context.Context) (HistoryView, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.phase = phaseLoading
	query := PlanQuery(p.filters, p.currentPage-1, p.pageSize)
	p.mu.Unlock()

	records, err := p.fetch(ctx, query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		// A newer query owns the pager now; this response is stale.
		p.logger.WithFields(logrus.Fields{
			"mode": query.Mode.String(),
			"page": query.PageIndex + 1,
		}).Debug("Discarding stale history response")
		return p.viewLocked(), ErrSuperseded
	}

	if err != nil {
		// Failed is retryable: the next Search/GoToPage/Reload re-enters Loading.
		p.phase = phaseFailed
		p.logger.WithError(err).WithField("mode", query.Mode.String()).Warn("History query failed")
		return p.viewLocked(), err
	}

	p.records = records
	p.hasNext = len(records) >= query.PageSize && len(records) > 0
	p.phase = phaseLoaded

	return p.viewLocked(), nil
}

// fetch issues the planned remote call (through the page cache when one is
// configured) and applies the client-side post-filter.
func (p *HistoryPager) fetch(ctx context.Context, query PageQuery) ([]models.HistoryRecord, error) {
	fingerprint := query.Fingerprint()
	if cached, ok := p.cache.Get(ctx, fingerprint); ok {
		return cached, nil
	}

	var (
		page *models.HistoryPage
		err  error
	)
	switch query.Mode {
	case ModeByDateRange:
		page, err = p.api.HistoryByDateRange(ctx, query.StartDate, query.EndDate, query.PageIndex, query.PageSize)
	case ModeByCustomer:
		page, err = p.api.HistoryByCustomer(ctx, query.CustomerID, query.PageIndex, query.PageSize)
	default:
		page, err = p.api.History(ctx, query.PageIndex, query.PageSize)
	}
	if err != nil {
		return nil, err
	}

	records := query.applyPostFilter(page.Content)
	p.cache.Set(ctx, fingerprint, records)
	return records, nil
}

func (p *HistoryPager) viewLocked() HistoryView {
	view := HistoryView{
		Records: p.records,
		Pager: PagerState{
			CurrentPage:       p.currentPage,
			TotalPagesCeiling: p.maxPages,
			HasNext:           p.hasNext,
			HasPrev:           p.currentPage > 1,
		},
	}
	if p.phase == phaseLoaded && len(p.records) == 0 {
		view.Advisory = utils.ErrEmptyPage.Error()
	}
	return view
}
