package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/library/apperr"
)

type Handler struct{ r *Reporter }

func RegisterRoutes(g gin.IRoutes, r *Reporter) {
	h := &Handler{r: r}
	g.GET("/patrons/:patron_id/status", h.StatusFor)
}

// StatusFor godoc
// @Summary  Patron status report
// @Tags     patrons
// @Produce  json
// @Param    patron_id path string true "6 digit patron id"
// @Success  200 {object} Report
// @Failure  400 {object} apperr.ErrorDTO
// @Router   /patrons/{patron_id}/status [get]
func (h *Handler) StatusFor(c *gin.Context) {
	rep, err := h.r.StatusFor(c.Request.Context(), c.Param("patron_id"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rep)
}
