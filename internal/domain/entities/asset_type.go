// Package entities holds the domain entities of the virtual-currency ledger.
package entities

import "time"

// AssetType is an enumerated currency kind (COIN, GEM, GOLD). Seeded
// administratively; the engine only ever reads it.
type AssetType struct {
	id          int32
	code        string
	displayName string
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

// ReconstructAssetType hydrates an AssetType from stored data.
func ReconstructAssetType(id int32, code, displayName string, isActive bool, createdAt, updatedAt time.Time) *AssetType {
	return &AssetType{
		id:          id,
		code:        code,
		displayName: displayName,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (a *AssetType) ID() int32 {
	return a.id
}

func (a *AssetType) Code() string {
	return a.code
}

func (a *AssetType) DisplayName() string {
	return a.displayName
}

func (a *AssetType) IsActive() bool {
	return a.isActive
}

func (a *AssetType) CreatedAt() time.Time {
	return a.createdAt
}

func (a *AssetType) UpdatedAt() time.Time {
	return a.updatedAt
}
