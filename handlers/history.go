package handlers

import (
	"context"
	"net/http"
	"strconv"

	"road-risk-api/middleware"
	"road-risk-api/models"

	"github.com/gin-gonic/gin"
)

// HistoryStore lists a user's stored estimates, newest first.
type HistoryStore interface {
	History(ctx context.Context, userID uint, cursor uint, limit int) ([]models.EstimateRecord, error)
}

type HistoryHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) List(c *gin.Context) {
	p := ParsePagination(c)

	rows, err := h.store.History(c.Request.Context(), middleware.UserID(c), p.Before, p.Limit+1)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = strconv.FormatUint(uint64(rows[len(rows)-1].ID), 10)
	}

	c.JSON(http.StatusOK, CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore})
}
