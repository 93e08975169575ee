package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/windowman/goldenthread/internal/leads"
	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/store"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// RegisterAdminRoutes registers the admin serving-path endpoints. The group
// is expected to already enforce bearer auth and the admin allow-list.
//
// GET /functions/v1/admin-webhook-receipts - paginated receipt listing
// GET /functions/v1/crm-leads              - filterable lead listing
// GET /functions/v1/resolve-lead           - dual-column lead id resolution
func RegisterAdminRoutes(r gin.IRoutes, st *store.PostgresStore) {
	r.GET("/functions/v1/admin-webhook-receipts", func(c *gin.Context) {
		limit, offset := pageParams(c)

		results, total, err := st.ListWebhookReceipts(c.Request.Context(), models.ReceiptFilter{
			Provider: c.Query("provider"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if results == nil {
			results = []models.WebhookReceipt{}
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"meta":    gin.H{"limit": limit, "offset": offset, "total": total},
			"results": results,
		})
	})

	r.GET("/functions/v1/crm-leads", func(c *gin.Context) {
		limit, offset := pageParams(c)

		results, total, err := st.ListLeads(c.Request.Context(), models.LeadFilter{
			Status:     c.Query("status"),
			SourceTool: c.Query("source_tool"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if results == nil {
			results = []models.Lead{}
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"meta":    gin.H{"limit": limit, "offset": offset, "total": total},
			"results": results,
		})
	})

	r.GET("/functions/v1/resolve-lead", func(c *gin.Context) {
		res, err := leads.Resolve(c.Request.Context(), st, c.Query("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !res.Found {
			c.JSON(http.StatusNotFound, res)
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

// pageParams parses limit/offset with clamping.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
