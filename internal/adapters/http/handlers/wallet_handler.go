package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/coinledger/internal/adapters/http/common"
	"github.com/Haleralex/coinledger/internal/application/dtos"
)

// BalanceUseCase reads one user's balance for an asset.
type BalanceUseCase interface {
	Execute(ctx context.Context, query dtos.GetBalanceQuery) (*dtos.BalanceDTO, error)
}

// WalletHandler serves the read-only wallet endpoints.
type WalletHandler struct {
	balances BalanceUseCase
	logger   *slog.Logger
}

func NewWalletHandler(balances BalanceUseCase, logger *slog.Logger) *WalletHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletHandler{balances: balances, logger: logger}
}

// RegisterRoutes mounts the wallet endpoints on the given group.
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wallets/:user_id/balance", h.GetBalance)
}

// GetBalance returns the balance of one user for one asset. A user without a
// wallet row for the asset is 404: wallets exist only once a movement
// created them.
//
//	GET /api/v1/wallets/:user_id/balance?asset_type_id=1
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var uri struct {
		UserID int64 `uri:"user_id" binding:"required,gt=0"`
	}
	if !BindURI(c, &uri) {
		return
	}

	var query struct {
		AssetTypeID int32 `form:"asset_type_id" binding:"required,gt=0"`
	}
	if !BindQuery(c, &query) {
		return
	}

	result, err := h.balances.Execute(c.Request.Context(), dtos.GetBalanceQuery{
		UserID:      uri.UserID,
		AssetTypeID: query.AssetTypeID,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}
