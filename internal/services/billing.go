package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// BillingService charges owners for completed generations. It writes the
// transaction ledger and mirrors the outcome onto the asset's billing
// sub-record, never touching generation state or version history.
type BillingService interface {
	ChargeForAsset(dbc dbctx.Context, asset *types.Asset, costToCompany float64) error
}

type billingService struct {
	db           *gorm.DB
	log          *logger.Logger
	transactions repos.AssetTransactionRepo
	assets       AssetService

	// markup multiplies provider cost into the amount billed to the owner.
	markup float64
}

func NewBillingService(db *gorm.DB, baseLog *logger.Logger, transactions repos.AssetTransactionRepo, assets AssetService) BillingService {
	markup := envutil.Float("BILLING_MARKUP", 1.0)
	if markup <= 0 {
		markup = 1.0
	}
	return &billingService{
		db:           db,
		log:          baseLog.With("service", "BillingService"),
		transactions: transactions,
		assets:       assets,
		markup:       markup,
	}
}

func (s *billingService) ChargeForAsset(dbc dbctx.Context, asset *types.Asset, costToCompany float64) error {
	if costToCompany <= 0 {
		return nil
	}
	if asset.BillingStatus == types.BillingStatusCharged {
		s.log.Info("asset already charged, skipping", "asset_id", asset.ID)
		return nil
	}

	billed := costToCompany * s.markup
	_, err := s.transactions.Create(dbc, []*types.AssetTransaction{{
		ID:            uuid.New(),
		AssetID:       asset.ID,
		OwnerUserID:   asset.OwnerUserID,
		Kind:          "generation",
		Amount:        billed,
		CostToCompany: costToCompany,
	}})
	if err != nil {
		if rerr := s.assets.RecordBillingState(dbc, asset.ID, types.BillingStatusFailed, 0, 0, err.Error()); rerr != nil {
			s.log.Error("record billing error state", "asset_id", asset.ID, "error", rerr)
		}
		return err
	}
	return s.assets.RecordBillingState(dbc, asset.ID, types.BillingStatusCharged, billed, costToCompany, "")
}
