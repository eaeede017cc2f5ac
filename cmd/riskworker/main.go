package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"road-risk-api/config"
	"road-risk-api/logging"
	"road-risk-api/risk"
	"road-risk-api/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	statusOK         = "ok"
	statusIncomplete = "incomplete"
	statusError      = "error"
)

// ScenarioRequest is one scoring request received over MQTT. When the
// scenario has no time window, Hour (0-23) picks it.
type ScenarioRequest struct {
	RequestID string           `json:"request_id"`
	TS        string           `json:"ts"`
	Hour      *int             `json:"hour,omitempty"`
	Scenario  risk.RawScenario `json:"scenario"`
}

// Reply is published to the reply prefix followed by the request id.
type Reply struct {
	RequestID    string             `json:"request_id"`
	Status       string             `json:"status"`
	Risk         *float64           `json:"risk,omitempty"`
	Alternatives []risk.Alternative `json:"alternatives,omitempty"`
	ModelVersion string             `json:"model_version,omitempty"`
	Error        string             `json:"error,omitempty"`
	Estimate     *risk.Estimate     `json:"-"`
}

var (
	msgsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskworker_messages_received_total",
		Help: "Total number of MQTT scenario requests received.",
	})
	msgsAnswered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "madlysafe_riskworker_replies_total",
		Help: "Replies published by status.",
	}, []string{"status"})
	msgsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "madlysafe_riskworker_messages_failed_total",
		Help: "Total number of messages rejected or failed to store.",
	})
)

// requestStore records every answered request.
type requestStore interface {
	Record(ctx context.Context, ts time.Time, reply Reply, payload []byte) error
}

type pgRequestStore struct {
	dbPool *pgxpool.Pool
}

func (s pgRequestStore) Record(ctx context.Context, ts time.Time, reply Reply, payload []byte) error {
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(payload))
	}
	_, err := s.dbPool.Exec(ctx, `
		INSERT INTO estimate_requests (ts, request_id, status, risk, model_version, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO NOTHING
	`, ts, reply.RequestID, reply.Status, reply.Risk, reply.ModelVersion, payload)
	return err
}

type worker struct {
	engine      *risk.Engine
	store       requestStore
	cache       *services.CacheService
	replyPrefix string
	publish     func(topic string, payload []byte) error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "riskworker"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetURL())
	if err != nil {
		log.Fatal().Err(err).Msg("db pool init failed")
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := ensureSchema(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("create estimate_requests table failed")
	}

	cache, err := services.NewCacheService(cfg.Redis, 3)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, skipping estimate broadcast")
	}
	defer cache.Close()

	go serveHTTP(cfg.Server.MetricsAddr)

	w := &worker{
		engine:      risk.NewEngine(risk.NewGateway(cfg.Model.ArtifactPath, services.InstrumentedLoader(risk.LoadArtifact))),
		store:       pgRequestStore{dbPool: dbPool},
		cache:       cache,
		replyPrefix: cfg.MQTT.ReplyPrefix,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.URL)
	opts.SetClientID("riskworker-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		w.processMessage(ctx, message.Topic(), message.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.RequestTopic, 1, nil)
		token.Wait()
		if token.Error() != nil {
			log.Error().Err(token.Error()).Msg("mqtt subscribe error")
			return
		}
		log.Info().Str("topic", cfg.MQTT.RequestTopic).Msg("riskworker subscribed")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	}

	client := mqtt.NewClient(opts)
	w.publish = func(topic string, payload []byte) error {
		token := client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("publish to %s timed out", topic)
		}
		return token.Error()
	}

	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connection failed")
	}

	log.Info().Str("mqtt", cfg.MQTT.URL).Str("metrics", cfg.Server.MetricsAddr).Msg("riskworker running")

	<-ctx.Done()
	log.Info().Msg("riskworker shutting down")
	client.Disconnect(250)
}

// parseRequest decodes a payload. A missing request id falls back to the last
// topic segment. The id is resolved before validation, so a rejected request
// still carries it when one is known.
func parseRequest(topic string, payload []byte) (ScenarioRequest, error) {
	var req ScenarioRequest
	decodeErr := json.Unmarshal(payload, &req)
	if req.RequestID == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
			req.RequestID = topic[i+1:]
		}
	}
	if decodeErr != nil {
		return req, fmt.Errorf("invalid payload: %w", decodeErr)
	}
	if req.RequestID == "" {
		return req, errors.New("missing request_id")
	}
	if req.Scenario.TimeWindow == nil && req.Hour != nil {
		w, ok := risk.WindowForHour(*req.Hour)
		if !ok {
			return req, fmt.Errorf("hour %d outside 0-23", *req.Hour)
		}
		tw := string(w)
		req.Scenario.TimeWindow = &tw
	}
	return req, nil
}

// evaluate runs the engine and maps its outcome to a reply. Technical detail
// stays in the logs.
func evaluate(engine *risk.Engine, req ScenarioRequest) Reply {
	reply := Reply{RequestID: req.RequestID}
	est, err := engine.Estimate(req.Scenario)
	switch {
	case errors.Is(err, risk.ErrArtifactNotFound):
		reply.Status, reply.Error = statusError, "model unavailable"
	case err != nil:
		reply.Status, reply.Error = statusError, "inference failed"
	case est == nil:
		reply.Status = statusIncomplete
	default:
		r := est.Risk
		reply.Status = statusOK
		reply.Risk = &r
		reply.Alternatives = est.Alternatives
		reply.ModelVersion = est.ModelVersion
		reply.Estimate = est
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("estimate failed")
	}
	return reply
}

func (w *worker) processMessage(ctx context.Context, topic string, payloadRaw []byte) {
	msgsReceived.Inc()

	req, err := parseRequest(topic, payloadRaw)
	if err != nil {
		msgsFailed.Inc()
		log.Warn().Err(err).Str("topic", topic).Str("request_id", req.RequestID).Msg("rejected scenario request")
		if req.RequestID == "" {
			return
		}
		w.answer(ctx, time.Now().UTC(), Reply{RequestID: req.RequestID, Status: statusError, Error: "invalid request"}, payloadRaw)
		return
	}

	ts := time.Now().UTC()
	if req.TS != "" {
		if parsed, err := time.Parse(time.RFC3339, req.TS); err == nil {
			ts = parsed.UTC()
		}
	}

	w.answer(ctx, ts, evaluate(w.engine, req), payloadRaw)
}

// answer records the reply, publishes it on the request's reply topic and
// broadcasts successful estimates.
func (w *worker) answer(ctx context.Context, ts time.Time, reply Reply, payloadRaw []byte) {
	if err := w.store.Record(ctx, ts, reply, payloadRaw); err != nil {
		msgsFailed.Inc()
		log.Error().Err(err).Str("request_id", reply.RequestID).Msg("db insert failed")
	}

	data, err := json.Marshal(reply)
	if err != nil {
		msgsFailed.Inc()
		log.Error().Err(err).Msg("reply marshal failed")
		return
	}
	if err := w.publish(w.replyPrefix+reply.RequestID, data); err != nil {
		msgsFailed.Inc()
		log.Error().Err(err).Str("request_id", reply.RequestID).Msg("mqtt reply failed")
		return
	}
	msgsAnswered.WithLabelValues(reply.Status).Inc()

	if reply.Estimate != nil {
		if err := w.cache.Publish(ctx, services.EstimatesChannel, reply.Estimate); err != nil {
			log.Warn().Err(err).Msg("redis publish failed")
		}
	}
}

func ensureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS estimate_requests (
			ts            TIMESTAMPTZ NOT NULL,
			request_id    TEXT PRIMARY KEY,
			status        TEXT NOT NULL,
			risk          DOUBLE PRECISION,
			model_version TEXT,
			payload       JSONB NOT NULL
		)
	`)
	return err
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
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
