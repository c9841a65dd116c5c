package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hackathon/churninsight-go/internal/cache"
	"github.com/hackathon/churninsight-go/internal/churnapi"
	"github.com/hackathon/churninsight-go/internal/config"
	"github.com/hackathon/churninsight-go/internal/logging"
	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/record"
	"github.com/hackathon/churninsight-go/internal/services"
	"github.com/hackathon/churninsight-go/internal/utils"
)

const usage = `ChurnInsight console client

Usage:
  console predict [-f request.json | -auto]
  console history [-customer id] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-page N]
  console export  [-customer id] [-start YYYY-MM-DD] [-end YYYY-MM-DD] [-out dir]
  console detail  -token <token>
  console kpis
  console health
  console watch
`

type app struct {
	cfg          *config.Config
	client       *churnapi.Client
	pager        *services.HistoryPager
	orchestrator *services.PredictionOrchestrator
	detail       *services.DetailService
	monitor      *services.HealthMonitor
}

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	client := churnapi.NewClient(&cfg.API, logger)

	var pageCache *cache.RedisHistoryCache
	if cfg.Redis.Enabled() {
		ttl, _ := cfg.History.CacheTTLDuration()
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pageCache = cache.NewRedisHistoryCache(rdb, ttl)
	}

	pager := services.NewHistoryPager(client, pageCache, logger, cfg.History.PageSize, cfg.History.MaxPages)
	interval, _ := cfg.Health.CheckIntervalDuration()

	a := &app{
		cfg:          cfg,
		client:       client,
		pager:        pager,
		orchestrator: services.NewPredictionOrchestrator(client, pager, logger),
		detail:       services.NewDetailService(client, logger),
		monitor:      services.NewHealthMonitor(client, logger, interval),
	}

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	ctx := context.Background()
	var runErr error
	switch os.Args[1] {
	case "predict":
		runErr = a.runPredict(ctx, os.Args[2:])
	case "history":
		runErr = a.runHistory(ctx, os.Args[2:])
	case "export":
		runErr = a.runExport(ctx, os.Args[2:])
	case "detail":
		runErr = a.runDetail(ctx, os.Args[2:])
	case "kpis":
		runErr = a.runKPIs(ctx)
	case "health":
		runErr = a.runHealth(ctx)
	case "watch":
		runErr = a.runWatch(ctx)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		if remote, ok := utils.IsRemote(runErr); ok && len(remote.Details) > 0 {
			details, _ := json.MarshalIndent(remote.Details, "", "  ")
			fmt.Fprintf(os.Stderr, "Detalles: %s\n", details)
		}
		os.Exit(1)
	}
}

func (a *app) runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	file := fs.String("f", "", "JSON file with the prediction request")
	auto := fs.Bool("auto", false, "generate a sample request")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req models.PredictionRequest
	switch {
	case *auto:
		req = services.SampleRequest()
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("invalid request file: %w", err)
		}
	default:
		return fmt.Errorf("predict requires -f <file> or -auto")
	}

	outcome, err := a.orchestrator.Submit(ctx, req)
	if err != nil {
		return err
	}

	data := outcome.Response.Data
	fmt.Printf("Cliente:      %s\n", data.CustomerID)
	fmt.Printf("Previsión:    %s\n", utils.LabelToForecast(data.Prediction.Label))
	fmt.Printf("Probabilidad: %s\n", utils.FormatProbability(data.Prediction.Probability))
	fmt.Printf("Riesgo:       %s (%d%%)\n", outcome.Risk.Label, outcome.Risk.Percentage)
	if outcome.Risk.Hint != "" {
		fmt.Printf("              %s\n", outcome.Risk.Hint)
	}
	fmt.Printf("Status: %d | Path: %s\n", outcome.Response.Status, outcome.Response.Path)

	printView(a.pager.CurrentView(), a.cfg.History.PageSize)
	return nil
}

func (a *app) runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	filters, page := historyFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := a.pager.Search(ctx, *filters)
	if err != nil {
		return err
	}
	for p := 1; p < *page; p++ {
		next, err := a.pager.GoToPage(ctx, 1)
		if err != nil {
			return err
		}
		if next.Pager.CurrentPage == view.Pager.CurrentPage {
			break // no further pages
		}
		view = next
	}

	printView(view, a.cfg.History.PageSize)
	return nil
}

func (a *app) runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	filters, _ := historyFlags(fs)
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	view, err := a.pager.Search(ctx, *filters)
	if err != nil {
		return err
	}

	path, err := services.WriteCSVFile(*out, view.Records, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Exportado: %s (%d registros)\n", path, len(view.Records))
	return nil
}

func (a *app) runDetail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("detail", flag.ExitOnError)
	token := fs.String("token", "", "record token from a history row")
	if err := fs.Parse(args); err != nil {
		return err
	}

	detail, err := a.detail.FromToken(ctx, *token)
	if err != nil {
		// Malformed token: the view degrades instead of failing.
		fmt.Printf("Registro ilegible, mostrando campos disponibles.\n")
	}
	printDetail(detail)
	return nil
}

func (a *app) runKPIs(ctx context.Context) error {
	kpis, err := a.client.KPIs(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Evaluados:    %d\n", kpis.TotalEvaluated)
	fmt.Printf("Riesgo alto:  %d\n", kpis.HighRisk)
	fmt.Printf("Riesgo medio: %d\n", kpis.MediumRisk)
	fmt.Printf("Riesgo bajo:  %d\n", kpis.LowRisk)
	fmt.Printf("Churn rate:   %.2f\n", kpis.ChurnRate)
	return nil
}

func (a *app) runHealth(ctx context.Context) error {
	snapshot := a.monitor.Poll(ctx)
	stats := services.ResourceSnapshot(ctx)

	fmt.Printf("Backend: %s | ML: %s\n", snapshot.Backend, snapshot.ML)
	fmt.Printf("CPU: %.1f%% | Memoria: %.1f%% (%d MB)\n",
		stats.CPUPercent, stats.MemoryPercent, stats.MemoryUsedMB)
	return nil
}

// runWatch keeps the health monitor running until interrupted, printing
// state transitions. KPIs are fetched once at startup.
func (a *app) runWatch(ctx context.Context) error {
	if err := a.runKPIs(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "KPIs no disponibles: %v\n", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.monitor.Start(ctx)
	defer a.monitor.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last services.HealthSnapshot
	for {
		select {
		case <-ticker.C:
			current := a.monitor.Status()
			if current.Backend != last.Backend || current.ML != last.ML {
				fmt.Printf("[%s] Backend: %s | ML: %s\n",
					current.CheckedAt.Format("15:04:05"), current.Backend, current.ML)
				last = current
			}
		case <-quit:
			fmt.Println("Saliendo...")
			return nil
		}
	}
}

func historyFlags(fs *flag.FlagSet) (*services.HistoryFilters, *int) {
	filters := &services.HistoryFilters{}
	fs.StringVar(&filters.CustomerID, "customer", "", "customer id filter")
	fs.StringVar(&filters.StartDate, "start", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&filters.EndDate, "end", "", "end date (YYYY-MM-DD)")
	page := fs.Int("page", 1, "page to display (1-based)")
	return filters, page
}

func printView(view services.HistoryView, pageSize int) {
	fmt.Printf("\nPágina %d de %d como máximo", view.Pager.CurrentPage, view.Pager.TotalPagesCeiling)
	if !view.Pager.HasNext {
		fmt.Print(" (última)")
	}
	fmt.Println()

	if view.Advisory != "" {
		fmt.Printf("Aviso: %s\n", view.Advisory)
		return
	}

	for i, r := range view.Records {
		token, err := record.Encode(r)
		if err != nil {
			token = utils.Unknown
		}
		fmt.Printf("%2d. %-14s %-19s %-13s %-16s %6.1f%%  token=%s\n",
			(view.Pager.CurrentPage-1)*pageSize+i+1,
			r.CustomerID,
			r.CreatedAt,
			r.PredictionLabel,
			utils.LabelToForecast(r.Label),
			r.Probability*100,
			token,
		)
	}
}

func printDetail(d services.RecordDetail) {
	if !d.Decoded {
		fmt.Printf("Cliente: %s | Previsión: %s\n", utils.Unknown, utils.Unknown)
		return
	}

	r := d.Record
	fmt.Printf("Cliente:        %s\n", r.CustomerID)
	fmt.Printf("Fecha:          %s\n", r.CreatedAt)
	fmt.Printf("Plan:           %s ($%s)\n", utils.ToTitle(r.SubscriptionType), r.MonthlyFee.String())
	fmt.Printf("Pago:           %s\n", utils.ToTitle(r.PaymentMethod))
	fmt.Printf("Previsión:      %s\n", d.Forecast)
	fmt.Printf("Riesgo:         %s\n", r.PredictionLabel)
	fmt.Printf("Probabilidad:   %s\n", utils.FormatProbability(r.Probability))
	fmt.Printf("Horas vistas:   %.1f | Días sin acceso: %d | Perfiles: %d | Prom. diario: %.2f\n",
		r.WatchHours, r.LastLoginDays, r.NumberOfProfiles, r.AvgWatchTimePerDay)

	fmt.Println("Señales de comportamiento:")
	if d.Factors == nil || len(d.Factors.RiskFactors) == 0 {
		fmt.Printf("  %s\n", d.FactorsNote)
	} else {
		for _, f := range d.Factors.RiskFactors {
			fmt.Printf("  - %s\n", f)
		}
	}
	if d.Factors != nil && d.Factors.SuggestedAction != "" {
		fmt.Printf("Acción sugerida: %s\n", d.Factors.SuggestedAction)
	}
}
