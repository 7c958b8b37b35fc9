package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/voltastudio/volta-backend/internal/domain"
)

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Name:        "product",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, productID uuid.UUID) *types.ProductVersion {
	tb.Helper()
	v := &types.ProductVersion{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      "v1",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return v
}

func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, version *types.ProductVersion, ownerUserID uuid.UUID, group, status string) *types.Asset {
	tb.Helper()
	a := &types.Asset{
		ID:             uuid.New(),
		VersionID:      version.ID,
		ProductID:      version.ProductID,
		OwnerUserID:    ownerUserID,
		Type:           types.AssetTypeImage,
		AssetGroup:     group,
		Status:         status,
		Metadata:       datatypes.JSON([]byte("{}")),
		VersionHistory: datatypes.JSON([]byte("[]")),
		Alternates:     datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	return a
}
