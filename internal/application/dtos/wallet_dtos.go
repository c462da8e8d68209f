package dtos

// GetBalanceQuery fetches one user's balance for an asset, keyed by the
// asset type id.
type GetBalanceQuery struct {
	UserID      int64
	AssetTypeID int32
}

// BalanceDTO is the read-only balance view.
type BalanceDTO struct {
	UserID        int64  `json:"user_id"`
	AssetTypeID   int32  `json:"asset_type_id"`
	AssetTypeCode string `json:"asset_type"`
	Balance       string `json:"balance"`
}
