package handler

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"points-ledger/internal/adapter/http/dto"
	"points-ledger/internal/core/domain"
	"points-ledger/internal/core/ports"
	"points-ledger/pkg/apperror"
	"points-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// LedgerHandler handles the points endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// AddPoints handles POST /api/v1/points/add.
func (h *LedgerHandler) AddPoints(c *gin.Context) {
	var req dto.AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	txn, err := domain.NewTransaction(*req.Payer, *req.Points, *req.Timestamp)
	if err != nil {
		response.Error(c, err)
		return
	}

	recorded, err := h.ledgerSvc.AddPoints(c.Request.Context(), txn)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(recorded))
}

// Balances handles GET /api/v1/points/balances.
func (h *LedgerHandler) Balances(c *gin.Context) {
	balances, err := h.ledgerSvc.Balances(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, balances)
}

// SpendPoints handles POST /api/v1/points/spend.
func (h *LedgerHandler) SpendPoints(c *gin.Context) {
	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	spends, err := h.ledgerSvc.SpendPoints(c.Request.Context(), *req.Points)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.SpendResponseItem, 0, len(spends))
	for payer, points := range spends {
		items = append(items, dto.SpendResponseItem{Payer: payer, Points: points})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Payer < items[j].Payer })

	response.OK(c, items)
}

// bindError maps JSON binding failures onto the ledger error taxonomy:
// absent fields and wrongly typed fields are distinct client errors.
func bindError(err error) *apperror.AppError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperror.ErrInvalidType(typeErr.Field, expectedKind(typeErr.Field))
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) && len(valErrs) > 0 {
		fe := valErrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return apperror.ErrMissingField(field)
		}
		return apperror.ErrInvalidType(field, expectedKind(field))
	}

	return apperror.Validation(err.Error())
}

func expectedKind(field string) string {
	if field == "points" {
		return "an integer"
	}
	return "a string"
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:        txn.ID.String(),
		Payer:     txn.Payer,
		Points:    txn.Points,
		Timestamp: domain.FormatTimestamp(txn.Timestamp),
	}
}
