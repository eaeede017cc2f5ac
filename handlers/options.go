package handlers

import (
	"net/http"

	"road-risk-api/risk"

	"github.com/gin-gonic/gin"
)

type windowView struct {
	Value risk.TimeWindow `json:"value"`
	Label string          `json:"label"`
}

// Options serves the form vocabulary and the time windows in display order.
func Options(vocab risk.Vocabulary) gin.HandlerFunc {
	windows := make([]windowView, 0, len(risk.TimeWindows))
	for _, w := range risk.TimeWindows {
		windows = append(windows, windowView{Value: w, Label: w.Label()})
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"schema_version": vocab.SchemaVersion,
			"options":        vocab.Options,
			"time_windows":   windows,
		})
	}
}
