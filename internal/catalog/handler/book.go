package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/middleware"
	"autolibrarian/internal/catalog/service"
	apperrors "autolibrarian/pkg/errors"
	httputil "autolibrarian/pkg/http"
	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/model"
)

type BookHandler struct {
	service service.BookService
	log     *logger.Logger
}

func NewBookHandler(svc service.BookService, log *logger.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		log:     log,
	}
}

func (h *BookHandler) RegisterRoutes(router *httprouter.Router, guard *middleware.Guard) {
	router.GET("/books", guard.Handle(middleware.CapabilityNone, h.List))
	router.POST("/books", guard.Handle(middleware.CapabilityNone, h.Create))
	router.GET("/books/:id", guard.Handle(middleware.CapabilityNone, h.GetByID))
	router.DELETE("/books/:id", guard.Handle(middleware.CapabilityNone, h.Delete))
	router.GET("/book-categories", guard.Handle(middleware.CapabilityNone, h.ListCategories))

	// Anonymous single-copy ledger adjustments kept alongside the
	// session-scoped borrow records.
	router.PATCH("/borrow-book/:id", guard.Handle(middleware.CapabilityNone, h.BorrowCopy))
	router.PATCH("/return-book/:id", guard.Handle(middleware.CapabilityNone, h.ReturnCopy))
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, err, "List")
		return
	}

	books, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err, "List")
		return
	}

	if books == nil {
		books = []*model.Book{}
	}
	if err := httputil.WritePaginated(w, books, total, limit, offset); err != nil {
		h.log.Error("failed to write response", "handler", "List", "error", err)
	}
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var book model.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		h.writeError(w, apperrors.InvalidInput("invalid request body"), "Create")
		return
	}

	if err := h.service.Create(r.Context(), &book); err != nil {
		h.writeError(w, err, "Create")
		return
	}

	if err := httputil.WriteCreated(w, book); err != nil {
		h.log.Error("failed to write response", "handler", "Create", "error", err)
	}
}

func (h *BookHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	book, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err, "GetByID")
		return
	}

	if err := httputil.WriteSuccess(w, book); err != nil {
		h.log.Error("failed to write response", "handler", "GetByID", "error", err)
	}
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, err, "Delete")
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookHandler) ListCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	categories, err := h.service.GetCategories(r.Context())
	if err != nil {
		h.writeError(w, err, "ListCategories")
		return
	}

	if categories == nil {
		categories = []*model.Category{}
	}
	if err := httputil.WriteSuccess(w, categories); err != nil {
		h.log.Error("failed to write response", "handler", "ListCategories", "error", err)
	}
}

func (h *BookHandler) BorrowCopy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.adjustCopy(w, r, ps.ByName("id"), -1, "BorrowCopy")
}

func (h *BookHandler) ReturnCopy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.adjustCopy(w, r, ps.ByName("id"), +1, "ReturnCopy")
}

func (h *BookHandler) adjustCopy(w http.ResponseWriter, r *http.Request, id string, delta int, op string) {
	copies, err := h.service.AdjustCopies(r.Context(), id, delta)
	if err != nil {
		h.writeError(w, err, op)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{"id": id, "copies": copies}); err != nil {
		h.log.Error("failed to write response", "handler", op, "error", err)
	}
}

func (h *BookHandler) writeError(w http.ResponseWriter, err error, op string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}
