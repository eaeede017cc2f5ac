package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"road-risk-api/models"
	"road-risk-api/risk"
	"road-risk-api/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const gridCacheTTL = 30 * time.Second

// GridHandler serves the day profile precomputed by the grid worker.
type GridHandler struct {
	db      *gorm.DB
	cache   *services.CacheService
	profile risk.Scenario
}

func NewGridHandler(db *gorm.DB, cache *services.CacheService, profile risk.Scenario) *GridHandler {
	return &GridHandler{db: db, cache: cache, profile: profile}
}

type GridWindow struct {
	TimeWindow   risk.TimeWindow `json:"time_window"`
	Label        string          `json:"label"`
	Risk         float64         `json:"risk"`
	RiskPct      float64         `json:"risk_pct"`
	ModelVersion string          `json:"model_version"`
	TS           time.Time       `json:"ts"`
}

// gridQuery resolves the requested scenario. District, weekday and weather are
// required; the person fields default to the worker's profile.
func (h *GridHandler) gridQuery(c *gin.Context) (risk.Scenario, error) {
	s := h.profile
	s.District = c.Query("district")
	s.Weekday = c.Query("weekday")
	s.Weather = c.Query("weather")
	if s.District == "" || s.Weekday == "" || s.Weather == "" {
		return s, fmt.Errorf("district, weekday and weather are required")
	}
	if v := c.Query("person_type"); v != "" {
		s.PersonType = v
	}
	if v := c.Query("vehicle_type"); v != "" {
		s.VehicleType = v
	}
	if v := c.Query("age_range"); v != "" {
		s.AgeRange = v
	}
	if v := c.Query("sex"); v != "" {
		s.Sex = v
	}
	return risk.Normalize(s), nil
}

// GetDay returns the stored risk of every window for one scenario, in
// time-of-day order.
func (h *GridHandler) GetDay(c *gin.Context) {
	s, err := h.gridQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	cacheKey := fmt.Sprintf("grid:%s:%s:%s:%s:%s:%s:%s", s.PersonType, s.VehicleType, s.AgeRange, s.Sex, s.District, s.Weekday, s.Weather)

	var cached []GridWindow
	if hit, err := h.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		c.JSON(http.StatusOK, gin.H{"scenario": s, "windows": cached})
		return
	}

	var rows []models.RiskGridCell
	err = h.db.WithContext(ctx).
		Where("person_type = ? AND vehicle_type = ? AND age_range = ? AND sex = ?", s.PersonType, s.VehicleType, s.AgeRange, s.Sex).
		Where("district = ? AND weekday = ? AND weather = ?", s.District, s.Weekday, s.Weather).
		Find(&rows).Error
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no precomputed grid for this scenario"})
		return
	}

	windows := GridWindows(rows)
	if err := h.cache.SetJSON(ctx, cacheKey, windows, gridCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("grid cache write failed")
	}
	c.JSON(http.StatusOK, gin.H{"scenario": s, "windows": windows})
}

// GridWindows converts stored cells to views sorted by time of day. Cells with
// a window outside the enumeration sort last.
func GridWindows(rows []models.RiskGridCell) []GridWindow {
	order := make(map[risk.TimeWindow]int, len(risk.TimeWindows))
	for i, w := range risk.TimeWindows {
		order[w] = i
	}
	rank := func(w risk.TimeWindow) int {
		if i, ok := order[w]; ok {
			return i
		}
		return len(order)
	}

	out := make([]GridWindow, 0, len(rows))
	for _, r := range rows {
		w := risk.TimeWindow(r.TimeWindow)
		out = append(out, GridWindow{
			TimeWindow:   w,
			Label:        w.Label(),
			Risk:         r.Risk,
			RiskPct:      Percent(r.Risk),
			ModelVersion: r.ModelVersion,
			TS:           r.TS,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i].TimeWindow) < rank(out[j].TimeWindow) })
	return out
}
