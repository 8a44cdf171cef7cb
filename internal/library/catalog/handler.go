package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/library/apperr"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the catalog endpoints. guard runs in front of the write endpoint only.
func RegisterRoutes(r gin.IRoutes, svc *Service, guard ...gin.HandlerFunc) {
	h := &Handler{svc: svc}

	r.POST("/books", append(guard, h.AddBook)...)
	r.GET("/books", h.ListBooks)
	r.GET("/books/:id", h.GetBook)
}

// AddBook godoc
// @Summary  Add a book to the catalog
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    body body AddBookRequest true "book"
// @Success  201 {object} AddBookResponse
// @Failure  400 {object} AddBookResponse
// @Failure  409 {object} AddBookResponse
// @Security BearerAuth
// @Router   /books [post]
func (h *Handler) AddBook(c *gin.Context) {
	var req AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.ErrorBody(apperr.CodeInvalidArgument, "invalid json"))
		return
	}
	b, err := h.svc.CreateBook(c.Request.Context(), req)
	if err != nil {
		out, sysErr := apperr.Resolve(err)
		if sysErr != nil {
			c.JSON(apperr.ToHTTPStatus(sysErr), apperr.ErrorFromErr(sysErr))
			return
		}
		c.JSON(out.HTTPStatus(http.StatusCreated), AddBookResponse{Success: false, Message: out.Message})
		return
	}
	res := ToResponse(*b)
	c.Header("Location", "/books/"+strconv.FormatUint(b.ID, 10))
	c.JSON(http.StatusCreated, AddBookResponse{Success: true, Message: AddedMessage(b.Title), Book: &res})
}

// GetBook godoc
// @Summary  Get a book by id
// @Tags     books
// @Produce  json
// @Param    id path int true "book id"
// @Success  200 {object} BookResponse
// @Failure  404 {object} apperr.ErrorDTO
// @Router   /books/{id} [get]
func (h *Handler) GetBook(c *gin.Context) {
	id, ok := ParseBookID(c)
	if !ok {
		return
	}
	res, err := h.svc.GetBook(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListBooks godoc
// @Summary  List the catalog
// @Tags     books
// @Produce  json
// @Param    title  query string false "title contains"
// @Param    author query string false "author contains"
// @Param    isbn   query string false "exact isbn"
// @Param    limit  query int    false "page size"
// @Param    offset query int    false "offset"
// @Param    order  query string false "asc|desc"
// @Success  200 {object} ListBooksResult
// @Router   /books [get]
func (h *Handler) ListBooks(c *gin.Context) {
	q := BookQuery{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		ISBN:   c.Query("isbn"),
		Page: Page{
			Limit:  ParseIntDefault(c.Query("limit"), defaultLimit),
			Offset: ParseIntDefault(c.Query("offset"), 0),
			Order:  c.DefaultQuery("order", "asc"),
		},
	}
	res, err := h.svc.ListBooks(c.Request.Context(), q)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

// ParseBookID reads the :id path parameter and answers 400 itself when it is not a number.
func ParseBookID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.ErrorBody(apperr.CodeInvalidArgument, "book id must be a number"))
		return 0, false
	}
	return id, true
}

func ParseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
