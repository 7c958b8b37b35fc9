package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltastudio/volta-backend/internal/data/repos"
	types "github.com/voltastudio/volta-backend/internal/domain"
	"github.com/voltastudio/volta-backend/internal/platform/apperr"
	"github.com/voltastudio/volta-backend/internal/platform/dbctx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

type ProductService interface {
	Create(dbc dbctx.Context, ownerUserID uuid.UUID, orgID *uuid.UUID, name string) (*types.Product, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	CreateVersion(dbc dbctx.Context, productID uuid.UUID, name string) (*types.ProductVersion, error)
	GetLatestVersion(dbc dbctx.Context, productID uuid.UUID) (*types.ProductVersion, error)
}

type productService struct {
	db       *gorm.DB
	log      *logger.Logger
	products repos.ProductRepo
	versions repos.VersionRepo
}

func NewProductService(db *gorm.DB, baseLog *logger.Logger, products repos.ProductRepo, versions repos.VersionRepo) ProductService {
	return &productService{
		db:       db,
		log:      baseLog.With("service", "ProductService"),
		products: products,
		versions: versions,
	}
}

func (s *productService) Create(dbc dbctx.Context, ownerUserID uuid.UUID, orgID *uuid.UUID, name string) (*types.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing product name: %w", apperr.ErrInvalidArgument)
	}
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner user id: %w", apperr.ErrInvalidArgument)
	}

	product := &types.Product{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		OrgID:       orgID,
		Name:        name,
	}
	if _, err := s.products.Create(dbc, []*types.Product{product}); err != nil {
		return nil, err
	}

	// Every product starts with an initial version so placeholders always
	// have somewhere to land.
	if _, err := s.CreateVersion(dbc, product.ID, "v1"); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	return s.products.GetByID(dbc, id)
}

func (s *productService) CreateVersion(dbc dbctx.Context, productID uuid.UUID, name string) (*types.ProductVersion, error) {
	if _, err := s.products.GetByID(dbc, productID); err != nil {
		return nil, err
	}
	version := &types.ProductVersion{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      strings.TrimSpace(name),
	}
	if _, err := s.versions.Create(dbc, []*types.ProductVersion{version}); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *productService) GetLatestVersion(dbc dbctx.Context, productID uuid.UUID) (*types.ProductVersion, error) {
	return s.versions.GetLatestByProductID(dbc, productID)
}
