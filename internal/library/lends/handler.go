package lends

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/library/apperr"
	"library-backend/internal/library/catalog"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 貸出・返却（書籍単位）
	r.POST("/books/:id/borrow", h.Borrow)
	r.POST("/books/:id/return", h.Return)
	r.GET("/books/:id/fee", h.CalculateFee)

	// 貸出リソース
	r.GET("/lends", h.ListLends)
	r.GET("/lends/:lend_ulid", h.GetLendByUlid)
}

// ---------- handlers ----------

// Borrow godoc
// @Summary  Borrow a book
// @Tags     lends
// @Accept   json
// @Produce  json
// @Param    id   path int           true "book id"
// @Param    body body PatronRequest true "patron"
// @Success  201 {object} OutcomeResponse
// @Failure  400 {object} OutcomeResponse
// @Failure  404 {object} OutcomeResponse
// @Failure  409 {object} OutcomeResponse
// @Router   /books/{id}/borrow [post]
func (h *Handler) Borrow(c *gin.Context) {
	bookID, req, ok := bindPatronRequest(c)
	if !ok {
		return
	}
	res, err := h.svc.BorrowBook(c.Request.Context(), req.PatronID, bookID)
	if err != nil {
		writeOutcomeError(c, err)
		return
	}
	c.Header("Location", "/lends/"+res.Loan.LoanULID)
	c.JSON(http.StatusCreated, OutcomeResponse{Success: true, Message: res.Message, Loan: &res.Loan})
}

// Return godoc
// @Summary  Return a borrowed book
// @Tags     lends
// @Accept   json
// @Produce  json
// @Param    id   path int           true "book id"
// @Param    body body PatronRequest true "patron"
// @Success  200 {object} OutcomeResponse
// @Failure  404 {object} OutcomeResponse
// @Failure  409 {object} OutcomeResponse
// @Router   /books/{id}/return [post]
func (h *Handler) Return(c *gin.Context) {
	bookID, req, ok := bindPatronRequest(c)
	if !ok {
		return
	}
	res, err := h.svc.ReturnBook(c.Request.Context(), req.PatronID, bookID)
	if err != nil {
		writeOutcomeError(c, err)
		return
	}
	c.JSON(http.StatusOK, OutcomeResponse{Success: true, Message: res.Message, Loan: &res.Loan, Fee: &res.Fee})
}

// CalculateFee godoc
// @Summary  Late fee of the latest loan of a patron/book pair
// @Tags     lends
// @Produce  json
// @Param    id        path  int    true "book id"
// @Param    patron_id query string true "patron id"
// @Success  200 {object} FeeReport
// @Failure  400 {object} apperr.ErrorDTO
// @Router   /books/{id}/fee [get]
func (h *Handler) CalculateFee(c *gin.Context) {
	bookID, ok := catalog.ParseBookID(c)
	if !ok {
		return
	}
	res, err := h.svc.CalculateFee(c.Request.Context(), c.Query("patron_id"), bookID)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetLendByUlid godoc
// @Summary  Get a loan
// @Tags     lends
// @Produce  json
// @Param    lend_ulid path string true "loan ulid"
// @Success  200 {object} LoanResponse
// @Failure  404 {object} apperr.ErrorDTO
// @Router   /lends/{lend_ulid} [get]
func (h *Handler) GetLendByUlid(c *gin.Context) {
	res, err := h.svc.GetLoan(c.Request.Context(), c.Param("lend_ulid"))
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListLends godoc
// @Summary  List loans
// @Tags     lends
// @Produce  json
// @Param    patron_id query string false "patron id"
// @Param    book_id   query int    false "book id"
// @Param    status    query string false "open|closed"
// @Param    from      query string false "RFC3339"
// @Param    to        query string false "RFC3339"
// @Param    limit     query int    false "page size"
// @Param    offset    query int    false "offset"
// @Param    order     query string false "asc|desc"
// @Success  200 {object} ListLoansResult
// @Router   /lends [get]
func (h *Handler) ListLends(c *gin.Context) {
	f := LoanFilter{}
	if v := c.Query("patron_id"); v != "" {
		f.PatronID = &v
	}
	if v := c.Query("book_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			f.BookID = &id
		}
	}
	if v := LoanStatus(c.Query("status")); v == StatusOpen || v == StatusClosed {
		f.Status = &v
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	p := catalog.Page{
		Limit:  catalog.ParseIntDefault(c.Query("limit"), 50),
		Offset: catalog.ParseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	res, err := h.svc.ListLoans(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(apperr.ToHTTPStatus(err), apperr.ErrorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func bindPatronRequest(c *gin.Context) (uint64, PatronRequest, bool) {
	bookID, ok := catalog.ParseBookID(c)
	if !ok {
		return 0, PatronRequest{}, false
	}
	var req PatronRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperr.ErrorBody(apperr.CodeInvalidArgument, "invalid json"))
		return 0, PatronRequest{}, false
	}
	return bookID, req, true
}

func writeOutcomeError(c *gin.Context, err error) {
	out, sysErr := apperr.Resolve(err)
	if sysErr != nil {
		c.JSON(apperr.ToHTTPStatus(sysErr), apperr.ErrorFromErr(sysErr))
		return
	}
	c.JSON(out.HTTPStatus(http.StatusOK), OutcomeResponse{Success: false, Message: out.Message})
}
