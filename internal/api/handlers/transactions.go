package handlers

import (
	"net/http"

	"github.com/dvloznov/opsconsole/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// TransactionsHandler handles committed transaction endpoints.
type TransactionsHandler struct {
	gateway TransactionGateway
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(gateway TransactionGateway, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		gateway: gateway,
		log:     log,
	}
}

// ListTransactions handles GET /api/accounts/{accountID}/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	transactions, err := h.gateway.History(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Str("bank_account_id", accountID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
