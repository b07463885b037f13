package handler

import (
	"encoding/json"
	"go-trustbank/common"
	"go-trustbank/model"
	"go-trustbank/service"
	"net/http"
	"strconv"
)

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service        *service.TransactionService
	accountService *service.AccountService
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s *service.TransactionService, accountService *service.AccountService) *TransactionHandler {
	return &TransactionHandler{
		service:        s,
		accountService: accountService,
	}
}

// CreateTransaction godoc
// @Summary      Move money (deposit, withdrawal or transfer)
// @Description  Applies the movement atomically and records one ledger row. A transfer may be addressed by destination account number instead of id.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transaction body model.CreateTransactionRequest true "Details of the money movement"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  common.AppError "Bad request (e.g. insufficient funds, invalid amount or shape)"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Forbidden: User does not own the source account"
// @Failure      404  {object}  common.AppError "Source or destination account not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing the movement"
// @Router       /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateTransactionRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	toAccountID := req.ToAccountID
	// A transfer addressed by account number resolves to the internal id
	// before it reaches the ledger engine.
	if toAccountID == nil && req.ToAccountNumber != nil &&
		model.TransactionType(req.TransactionType) == model.TransactionTransfer {
		resolvedID, err := h.accountService.ResolveAccountNumber(*req.ToAccountNumber)
		if err != nil {
			if err == service.ErrAccountNotFound {
				return common.NewAppError(http.StatusNotFound, "Target account not found", err)
			}
			return common.NewAppError(http.StatusInternalServerError, "Could not resolve account number", err)
		}
		toAccountID = &resolvedID
	}

	transaction, err := h.service.ProcessTransaction(r.Context(), userID, service.ProcessTransactionRequest{
		FromAccountID: req.FromAccountID,
		ToAccountID:   toAccountID,
		Amount:        req.Amount,
		Type:          model.TransactionType(req.TransactionType),
		Description:   req.Description,
	})
	if err != nil {
		// Map business rule failures to appropriate HTTP status codes.
		switch err {
		case service.ErrSenderAccountNotFound, service.ErrReceiverAccountNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrPermissionDenied:
			return common.NewAppError(http.StatusForbidden, err.Error(), err)
		case service.ErrInvalidAmount, service.ErrAmountPrecision, service.ErrInvalidTransactionType,
			service.ErrMissingSourceAccount, service.ErrMissingReceiverAccount,
			service.ErrUnexpectedSourceAccount, service.ErrUnexpectedReceiver,
			service.ErrSameAccountTransfer, service.ErrInsufficientFunds, service.ErrCurrencyMismatch:
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not process transaction", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":        true,
		"transaction_id": transaction.ID,
	})
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Description  Retrieves the transaction history for a specific account owned by the authenticated user, newest first, with counterparty account numbers attached.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "The ID of the account to retrieve transactions for"
// @Success      200  {array}   model.Transaction
// @Failure      400  {object}  common.AppError "Invalid account ID in URL path"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Forbidden: User does not own the specified account"
// @Failure      404  {object}  common.AppError "Account with the specified ID not found"
// @Router       /api/accounts/{accountId}/transactions [get]
func (h *TransactionHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountIDStr := r.PathValue("accountId")
	accountID, err := strconv.Atoi(accountIDStr)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	transactions, err := h.service.ListTransactionsForAccount(r.Context(), userID, accountID)
	if err != nil {
		switch err {
		case service.ErrAccountNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrPermissionDenied:
			return common.NewAppError(http.StatusForbidden, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transactions", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
	return nil
}

// ListTransactionsForOwner godoc
// @Summary      List the caller's full transaction history
// @Description  Merges the histories of every account the caller owns into one list, newest first.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Transaction
// @Failure      401  {object}  common.AppError
// @Router       /api/transactions [get]
func (h *TransactionHandler) ListTransactionsForOwner(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	transactions, err := h.service.ListTransactionsForOwner(r.Context(), userID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transactions", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
	return nil
}
