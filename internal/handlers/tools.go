package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/windowman/goldenthread/internal/geo"
	"github.com/windowman/goldenthread/internal/pricing"
)

// RegisterToolRoutes registers the calculator utilities behind the quiz and
// audit tools.
//
// GET  /api/wm/zip/:zip          - ZIP to city/state
// POST /api/wm/price-analysis    - fair-price quote diagnostic
func RegisterToolRoutes(r gin.IRoutes, zip *geo.Client) {
	r.GET("/api/wm/zip/:zip", func(c *gin.Context) {
		loc, err := zip.Lookup(c.Request.Context(), c.Param("zip"))
		if errors.Is(err, geo.ErrZipNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": geo.ErrZipNotFound.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, loc)
	})

	r.POST("/api/wm/price-analysis", func(c *gin.Context) {
		var req struct {
			WindowCount    int     `json:"window_count"`
			SqftMultiplier float64 `json:"sqft_multiplier,omitempty"`
			QuoteAmount    float64 `json:"quote_amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if req.WindowCount <= 0 || req.QuoteAmount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_count and quote_amount must be positive"})
			return
		}

		c.JSON(http.StatusOK, pricing.CalculatePriceAnalysis(
			req.WindowCount, req.SqftMultiplier, req.QuoteAmount))
	})
}
