package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"road-risk-api/config"
	"road-risk-api/logging"
	"road-risk-api/risk"
	"road-risk-api/services"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// GridChannel carries the per-district summary of every completed cycle.
const GridChannel = "madlysafe:grid"

// Cell is the risk of one scenario in the precomputed grid.
type Cell struct {
	TS           time.Time     `json:"ts"`
	Scenario     risk.Scenario `json:"scenario"`
	Risk         float64       `json:"risk"`
	ModelVersion string        `json:"model_version"`
}

// DistrictSummary is the safest and riskiest window seen for a district in
// one cycle.
type DistrictSummary struct {
	District   string          `json:"district"`
	Cells      int             `json:"cells"`
	MeanRisk   float64         `json:"mean_risk"`
	MaxRisk    float64         `json:"max_risk"`
	SafestRisk float64         `json:"safest_risk"`
	SafestAt   risk.TimeWindow `json:"safest_window"`
	RiskiestAt risk.TimeWindow `json:"riskiest_window"`
}

var (
	cellsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskgrid_cells_scored_total",
		Help: "Total number of grid cells scored.",
	})
	cellsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskgrid_cells_stored_total",
		Help: "Total number of grid cells stored in DB.",
	})
	cellsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskgrid_failures_total",
		Help: "Total number of scoring or storage failures.",
	})
	summariesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskgrid_summaries_published_total",
		Help: "Total number of district summaries published to Redis.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "madlysafe_riskgrid_cycle_duration_seconds",
		Help:    "Duration of a full grid cycle.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	})
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "riskgrid"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB pool
	dbPool, err := pgxpool.New(ctx, cfg.Database.GetURL())
	if err != nil {
		log.Fatal().Err(err).Msg("db pool init failed")
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := ensureSchema(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("create risk_grid table failed")
	}
	log.Info().Msg("db connected")

	cache, err := services.NewCacheService(cfg.Redis, 5)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, summaries will not be published")
	}
	defer cache.Close()

	go serveHTTP(cfg.Server.MetricsAddr)

	engine := risk.NewEngine(risk.NewGateway(cfg.Model.ArtifactPath, services.InstrumentedLoader(risk.LoadArtifact)))
	scenarios := buildGrid(risk.DefaultVocabulary(), profile(cfg.Grid))

	log.Info().
		Dur("interval", cfg.Grid.Interval).
		Int("concurrency", cfg.Grid.Concurrency).
		Int("cells", len(scenarios)).
		Msg("riskgrid running")

	// Run first cycle immediately
	runCycle(ctx, engine, dbPool, cache, scenarios, cfg.Grid.Concurrency)

	ticker := time.NewTicker(cfg.Grid.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runCycle(ctx, engine, dbPool, cache, scenarios, cfg.Grid.Concurrency)
		case <-ctx.Done():
			log.Info().Msg("riskgrid shutting down")
			return
		}
	}
}

func profile(g config.GridConfig) risk.Scenario {
	return risk.Scenario{
		PersonType:  g.PersonType,
		VehicleType: g.VehicleType,
		AgeRange:    g.AgeRange,
		Sex:         g.Sex,
	}
}

// buildGrid expands the profile over every district, weekday, weather and
// time window the form offers.
func buildGrid(vocab risk.Vocabulary, base risk.Scenario) []risk.Scenario {
	districts := vocab.Values(risk.ColDistrict)
	weekdays := vocab.Values(risk.ColWeekday)
	weathers := vocab.Values(risk.ColWeather)

	out := make([]risk.Scenario, 0, len(districts)*len(weekdays)*len(weathers)*len(risk.TimeWindows))
	for _, d := range districts {
		for _, day := range weekdays {
			for _, w := range weathers {
				for _, tw := range risk.TimeWindows {
					s := base
					s.District, s.Weekday, s.Weather, s.TimeWindow = d, day, w, tw
					out = append(out, risk.Normalize(s))
				}
			}
		}
	}
	return out
}

// scoreGrid scores every scenario with at most limit concurrent evaluations.
// A missing artifact aborts the cycle; other failures only drop their cell.
func scoreGrid(ctx context.Context, engine *risk.Engine, scenarios []risk.Scenario, limit int) ([]Cell, error) {
	version, err := engine.ModelVersion()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	results := make([]*Cell, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, s := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := engine.Score(s)
			if errors.Is(err, risk.ErrArtifactNotFound) {
				return err
			}
			if err != nil {
				cellsFailed.Inc()
				log.Warn().Err(err).Str("district", s.District).Str("window", string(s.TimeWindow)).Msg("score failed")
				return nil
			}
			cellsScored.Inc()
			results[i] = &Cell{TS: now, Scenario: s, Risk: r, ModelVersion: version}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cells := make([]Cell, 0, len(results))
	for _, c := range results {
		if c != nil {
			cells = append(cells, *c)
		}
	}
	return cells, nil
}

func runCycle(ctx context.Context, engine *risk.Engine, dbPool *pgxpool.Pool, cache *services.CacheService, scenarios []risk.Scenario, limit int) {
	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()

	cells, err := scoreGrid(ctx, engine, scenarios, limit)
	if err != nil {
		cellsFailed.Inc()
		log.Error().Err(err).Msg("grid cycle aborted")
		return
	}
	if len(cells) == 0 {
		log.Warn().Msg("no cells scored, skipping")
		return
	}

	stored, err := storeCells(ctx, dbPool, cells)
	if err != nil {
		cellsFailed.Inc()
		log.Error().Err(err).Msg("store grid failed")
	}

	published := 0
	for _, s := range summarize(cells) {
		if err := cache.Publish(ctx, GridChannel, s); err != nil {
			log.Warn().Err(err).Str("district", s.District).Msg("redis publish failed")
			continue
		}
		if cache.Available() {
			summariesPublished.Inc()
			published++
		}
	}

	log.Info().
		Int("cells", len(cells)).
		Int("stored", stored).
		Int("published", published).
		Dur("took", time.Since(start)).
		Msg("grid cycle completed")
}

// summarize groups cells by district, riskiest district first. Ties keep the
// order in which districts first appear.
func summarize(cells []Cell) []DistrictSummary {
	byDistrict := make(map[string]*DistrictSummary)
	var order []string
	for _, c := range cells {
		d := c.Scenario.District
		s, ok := byDistrict[d]
		if !ok {
			s = &DistrictSummary{District: d, SafestRisk: c.Risk, SafestAt: c.Scenario.TimeWindow, MaxRisk: c.Risk, RiskiestAt: c.Scenario.TimeWindow}
			byDistrict[d] = s
			order = append(order, d)
		}
		s.Cells++
		s.MeanRisk += c.Risk
		if c.Risk < s.SafestRisk {
			s.SafestRisk, s.SafestAt = c.Risk, c.Scenario.TimeWindow
		}
		if c.Risk > s.MaxRisk {
			s.MaxRisk, s.RiskiestAt = c.Risk, c.Scenario.TimeWindow
		}
	}

	out := make([]DistrictSummary, 0, len(order))
	for _, d := range order {
		s := byDistrict[d]
		s.MeanRisk /= float64(s.Cells)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanRisk > out[j].MeanRisk })
	return out
}

func ensureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS risk_grid (
			ts            TIMESTAMPTZ NOT NULL,
			person_type   TEXT NOT NULL,
			vehicle_type  TEXT NOT NULL,
			age_range     TEXT NOT NULL,
			sex           TEXT NOT NULL,
			district      TEXT NOT NULL,
			weekday       TEXT NOT NULL,
			time_window   TEXT NOT NULL,
			weather       TEXT NOT NULL,
			risk          DOUBLE PRECISION NOT NULL,
			model_version TEXT NOT NULL,
			PRIMARY KEY (person_type, vehicle_type, age_range, sex, district, weekday, time_window, weather)
		)
	`)
	return err
}

func storeCells(ctx context.Context, dbPool *pgxpool.Pool, cells []Cell) (int, error) {
	batch := &pgx.Batch{}
	for _, c := range cells {
		s := c.Scenario
		batch.Queue(`
			INSERT INTO risk_grid (ts, person_type, vehicle_type, age_range, sex, district, weekday, time_window, weather, risk, model_version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (person_type, vehicle_type, age_range, sex, district, weekday, time_window, weather) DO UPDATE SET
				ts = EXCLUDED.ts,
				risk = EXCLUDED.risk,
				model_version = EXCLUDED.model_version
		`, c.TS, s.PersonType, s.VehicleType, s.AgeRange, s.Sex, s.District, s.Weekday, string(s.TimeWindow), s.Weather, c.Risk, c.ModelVersion)
	}

	br := dbPool.SendBatch(ctx, batch)
	defer br.Close()

	stored := 0
	for range cells {
		if _, err := br.Exec(); err != nil {
			return stored, fmt.Errorf("upsert risk_grid: %w", err)
		}
		cellsStored.Inc()
		stored++
	}
	return stored, nil
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("metrics server failed")
	}
}
