package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/middleware"
	"autolibrarian/internal/borrows/service"
	apperrors "autolibrarian/pkg/errors"
	httputil "autolibrarian/pkg/http"
	"autolibrarian/pkg/logger"
	"autolibrarian/pkg/model"
)

type BorrowHandler struct {
	service service.BorrowService
	log     *logger.Logger
}

func NewBorrowHandler(svc service.BorrowService, log *logger.Logger) *BorrowHandler {
	return &BorrowHandler{
		service: svc,
		log:     log,
	}
}

func (h *BorrowHandler) RegisterRoutes(router *httprouter.Router, guard *middleware.Guard) {
	router.POST("/borrow-books", guard.Handle(middleware.CapabilitySession, h.Borrow))
	router.GET("/borrowed-books/:email", guard.Handle(middleware.CapabilitySession, h.ListByOwner))
	router.DELETE("/borrowed-books/:id", guard.Handle(middleware.CapabilitySession, h.Return))
}

func (h *BorrowHandler) Borrow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, apperrors.Unauthorized("missing session"), "Borrow")
		return
	}

	var record model.BorrowRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.writeError(w, apperrors.InvalidInput("invalid request body"), "Borrow")
		return
	}

	if err := h.service.Borrow(r.Context(), &record, claims.Email); err != nil {
		h.writeError(w, err, "Borrow")
		return
	}

	if err := httputil.WriteCreated(w, record); err != nil {
		h.log.Error("failed to write response", "handler", "Borrow", "error", err)
	}
}

func (h *BorrowHandler) ListByOwner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// The path identity is compared raw: ownership is byte-for-byte equality
	// with the claim, so a case variant of the caller's own email is denied.
	email := ps.ByName("email")

	if err := middleware.RequireOwner(r.Context(), email); err != nil {
		h.writeError(w, err, "ListByOwner")
		return
	}

	records, err := h.service.ListByOwner(r.Context(), email)
	if err != nil {
		h.writeError(w, err, "ListByOwner")
		return
	}

	if records == nil {
		records = []*model.BorrowRecord{}
	}
	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write response", "handler", "ListByOwner", "error", err)
	}
}

func (h *BorrowHandler) Return(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, apperrors.Unauthorized("missing session"), "Return")
		return
	}

	if err := h.service.Return(r.Context(), ps.ByName("id"), claims.Email); err != nil {
		h.writeError(w, err, "Return")
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BorrowHandler) writeError(w http.ResponseWriter, err error, op string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}
