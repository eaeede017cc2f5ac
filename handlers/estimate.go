package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"

	"road-risk-api/middleware"
	"road-risk-api/risk"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	msgIncomplete = "Completa los campos de la izquierda para ver la estimación de riesgo."
	msgFailure    = "Se ha producido un error al calcular el riesgo."
	msgHint       = "Revisa los valores seleccionados o contacta con la persona responsable de la aplicación."
	msgNoModel    = "El modelo de riesgo no está disponible en este momento."
)

// Estimator is the part of services.EstimateService the handler needs.
type Estimator interface {
	Estimate(ctx context.Context, raw risk.RawScenario, userID uint) (*risk.Estimate, error)
}

type EstimateHandler struct {
	estimator Estimator
	debug     bool
}

func NewEstimateHandler(estimator Estimator, debug bool) *EstimateHandler {
	return &EstimateHandler{estimator: estimator, debug: debug}
}

type AlternativeView struct {
	Label   string          `json:"label"`
	Window  risk.TimeWindow `json:"window"`
	Risk    float64         `json:"risk"`
	RiskPct float64         `json:"risk_pct"`
}

type EstimateResponse struct {
	Complete     bool              `json:"complete"`
	Risk         *float64          `json:"risk"`
	RiskPct      *float64          `json:"risk_pct"`
	Alternatives []AlternativeView `json:"alternatives"`
	ModelVersion string            `json:"model_version,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// Estimate scores the posted scenario. Missing fields are not an error: the
// client gets complete=false and a prompt to fill them in.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var raw risk.RawScenario
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	est, err := h.estimator.Estimate(c.Request.Context(), raw, middleware.UserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if est == nil {
		c.JSON(http.StatusOK, EstimateResponse{Complete: false, Message: msgIncomplete})
		return
	}

	c.JSON(http.StatusOK, NewEstimateResponse(est))
}

func (h *EstimateHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": msgFailure, "hint": msgHint}
	if errors.Is(err, risk.ErrArtifactNotFound) {
		status = http.StatusServiceUnavailable
		body["error"] = msgNoModel
	}
	if h.debug {
		body["detail"] = err.Error()
	}
	_ = c.Error(err)
	log.Error().Err(err).Int("status", status).Msg("estimate failed")
	c.JSON(status, body)
}

func NewEstimateResponse(est *risk.Estimate) EstimateResponse {
	r, pct := est.Risk, Percent(est.Risk)
	alts := make([]AlternativeView, 0, len(est.Alternatives))
	for _, a := range est.Alternatives {
		alts = append(alts, AlternativeView{
			Label:   a.Label,
			Window:  a.Window,
			Risk:    a.Risk,
			RiskPct: Percent(a.Risk),
		})
	}
	return EstimateResponse{
		Complete:     true,
		Risk:         &r,
		RiskPct:      &pct,
		Alternatives: alts,
		ModelVersion: est.ModelVersion,
	}
}

// Percent renders a probability as a percentage rounded to two decimals.
func Percent(p float64) float64 {
	return math.Round(p*10000) / 100
}
