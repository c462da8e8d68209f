package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/coinledger/internal/adapters/http/common"
	"github.com/Haleralex/coinledger/internal/adapters/http/middleware"
	"github.com/Haleralex/coinledger/internal/application/dtos"
	"github.com/Haleralex/coinledger/internal/domain/entities"
)

// MovementUseCase processes one balance movement.
type MovementUseCase interface {
	Execute(ctx context.Context, movementType entities.MovementType, cmd dtos.MovementCommand) (*dtos.TransactionDTO, error)
}

// GetTransactionUseCase fetches one transaction by public id.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
}

// MovementRequest is the JSON body of the three movement endpoints.
type MovementRequest struct {
	IdempotencyKey string         `json:"idempotency_key" binding:"required,min=1,max=255"`
	UserID         int64          `json:"user_id" binding:"required,gt=0"`
	AssetType      string         `json:"asset_type" binding:"required,asset_code"`
	Amount         string         `json:"amount" binding:"required,money_amount"`
	Metadata       map[string]any `json:"metadata"`
}

// TransactionHandler serves the movement and lookup endpoints.
type TransactionHandler struct {
	movements MovementUseCase
	lookup    GetTransactionUseCase
	logger    *slog.Logger
}

func NewTransactionHandler(
	movements MovementUseCase,
	lookup GetTransactionUseCase,
	logger *slog.Logger,
) *TransactionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionHandler{
		movements: movements,
		lookup:    lookup,
		logger:    logger,
	}
}

// RegisterRoutes mounts the transaction endpoints on the given group.
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tx := rg.Group("/transactions")
	{
		tx.POST("/topup", h.Topup)
		tx.POST("/bonus", h.Bonus)
		tx.POST("/spend", h.Spend)
		tx.GET("/:transaction_id", h.GetTransaction)
	}
}

// Topup credits a user from the treasury.
//
//	POST /api/v1/transactions/topup
func (h *TransactionHandler) Topup(c *gin.Context) {
	h.handleMovement(c, entities.MovementTopup)
}

// Bonus credits a user from the marketing pool.
//
//	POST /api/v1/transactions/bonus
func (h *TransactionHandler) Bonus(c *gin.Context) {
	h.handleMovement(c, entities.MovementBonus)
}

// Spend debits a user into revenue.
//
//	POST /api/v1/transactions/spend
func (h *TransactionHandler) Spend(c *gin.Context) {
	h.handleMovement(c, entities.MovementSpend)
}

func (h *TransactionHandler) handleMovement(c *gin.Context, movementType entities.MovementType) {
	var req MovementRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.MovementCommand{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		AssetType:      req.AssetType,
		Amount:         req.Amount,
		Metadata:       req.Metadata,
	}

	result, err := h.movements.Execute(c.Request.Context(), movementType, cmd)
	if err != nil {
		middleware.RecordMovement(string(movementType), "rejected", req.AssetType)
		h.logger.WarnContext(c.Request.Context(), "movement rejected",
			slog.String("type", string(movementType)),
			slog.Int64("user_id", req.UserID),
			slog.String("asset_type", req.AssetType),
			slog.String("error", err.Error()),
		)
		common.HandleDomainError(c, err)
		return
	}

	middleware.RecordMovement(string(movementType), "completed", req.AssetType)
	// 200 rather than 201: with idempotency keys the same request may be
	// answered from a previously committed row, so Created would be wrong
	// as often as right.
	common.Success(c, http.StatusOK, result)
}

// GetTransaction returns one transaction by its public id.
//
//	GET /api/v1/transactions/:transaction_id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	var uri struct {
		TransactionID string `uri:"transaction_id" binding:"required,uuid"`
	}
	if !BindURI(c, &uri) {
		return
	}

	result, err := h.lookup.Execute(c.Request.Context(), dtos.GetTransactionQuery{
		TransactionID: uri.TransactionID,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}
