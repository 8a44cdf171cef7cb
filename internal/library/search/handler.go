package search

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
)

type Handler struct{ ix *Index }

func RegisterRoutes(r gin.IRoutes, ix *Index) {
	h := &Handler{ix: ix}
	r.GET("/books/search", h.Search)
}

type Result struct {
	Items []catalog.BookResponse `json:"items"`
	Count int                    `json:"count"`
}

// Search godoc
// @Summary  Search the catalog
// @Tags     books
// @Produce  json
// @Param    q     query string true  "search term"
// @Param    field query string false "title|author|isbn (default title)"
// @Success  200 {object} Result
// @Router   /books/search [get]
func (h *Handler) Search(c *gin.Context) {
	books, err := h.ix.Search(c.Request.Context(), c.Query("q"), c.DefaultQuery("field", string(FieldTitle)))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	items := make([]catalog.BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, catalog.ToResponse(b))
	}
	c.JSON(http.StatusOK, Result{Items: items, Count: len(items)})
}
