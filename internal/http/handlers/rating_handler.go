// README: Rating handlers: rate a completed trip, list a trip's ratings.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zonetaxi/internal/modules/rating"
)

type RatingHandler struct {
	ratings *rating.Service
}

func NewRatingHandler(ratings *rating.Service) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type rateReq struct {
	Direction string `json:"direction"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
}

func (h *RatingHandler) Rate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.ratings.Rate(c.Request.Context(), rating.RateCommand{
		RequestID: id,
		RaterID:   caller(c),
		Direction: rating.Direction(req.Direction),
		Score:     req.Score,
		Comment:   req.Comment,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, ratingOf(*r))
}

func (h *RatingHandler) List(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs, err := h.ratings.ListByRequest(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]ratingView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ratingOf(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"ratings": out})
}
