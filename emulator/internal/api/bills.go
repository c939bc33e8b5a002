package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/billed/emulator/internal/models"
	"github.com/pigeonworks-llc/billed/emulator/internal/store"
	"github.com/pigeonworks-llc/billed/pkg/bills"
)

// BillsHandler handles bill-related API requests.
type BillsHandler struct {
	store *store.Store
}

// NewBillsHandler creates a new BillsHandler.
func NewBillsHandler(s *store.Store) *BillsHandler {
	return &BillsHandler{store: s}
}

// List handles GET /api/v1/bills
//
//	@Summary	List bills
//	@Tags		bills
//	@Produce	json
//	@Param		email	query		string	false	"Only bills of this employee"
//	@Param		status	query		string	false	"pending, accepted or refused"
//	@Success	200		{array}		bills.BillRecord
//	@Failure	401		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/bills [get]
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := models.BillsQuery{
		Email:  r.URL.Query().Get("email"),
		Status: bills.Status(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListBills(q)
	if err != nil {
		slog.Error("failed to list bills", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list bills")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/v1/bills
//
//	@Summary	Create a bill
//	@Tags		bills
//	@Accept		json
//	@Produce	json
//	@Param		bill	body		bills.BillRecord	true	"Bill"
//	@Success	201		{object}	bills.BillRecord
//	@Failure	400		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/bills [post]
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var b bills.BillRecord
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	created, err := h.store.CreateBill(b)
	if err != nil {
		slog.Error("failed to create bill", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to create bill")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/v1/bills/{id}
//
//	@Summary	Get a bill
//	@Tags		bills
//	@Produce	json
//	@Param		id	path		string	true	"Bill ID"
//	@Success	200	{object}	bills.BillRecord
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/bills/{id} [get]
func (h *BillsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := h.store.GetBill(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Bill not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get bill")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// Put handles PUT /api/v1/bills/{id}. The bill is created when absent.
//
//	@Summary	Create or replace a bill
//	@Tags		bills
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Bill ID"
//	@Param		bill	body		bills.BillRecord	true	"Bill"
//	@Success	200		{object}	bills.BillRecord
//	@Success	201		{object}	bills.BillRecord
//	@Failure	400		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/bills/{id} [put]
func (h *BillsHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var b bills.BillRecord
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	saved, created, err := h.store.PutBill(id, b)
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid bill id")
			return
		}
		slog.Error("failed to save bill", "id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to save bill")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

// Delete handles DELETE /api/v1/bills/{id}
//
//	@Summary	Delete a bill
//	@Tags		bills
//	@Param		id	path	string	true	"Bill ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/bills/{id} [delete]
func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteBill(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Bill not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to delete bill")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
