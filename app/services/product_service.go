package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories"
	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/pkg/apperr"
	"github.com/Rasmogul/greatsoko/pkg/cache"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/storage"
)

const (
	PageSize = 10
	TopCount = 3

	topProductsKey = "products:top"
)

// BlobStore keeps product images.
type BlobStore interface {
	Upload(ctx context.Context, filename string, r io.Reader, contentType string) (storage.Blob, error)
	Delete(ctx context.Context, id string) error
}

// Upload is an image sent with a product form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ProductInput struct {
	Name        string  `form:"name"        json:"name"        validate:"required,max=100"`
	SKU         string  `form:"sku"         json:"sku"         validate:"nullable,alpha_dash,max=64"`
	Category    string  `form:"category"    json:"category"    validate:"required,in=Electronics,Cameras,Laptops,Accessories,Headphones,Food,Books,Clothes/Shoes,Beauty/Health,Sports,Outdoor,Home"`
	Quantity    int     `form:"quantity"    json:"quantity"    validate:"gte=0"`
	Price       float64 `form:"price"       json:"price"       validate:"gte=0,cents"`
	Description string  `form:"description" json:"description" validate:"required,max=2000"`
	Seller      string  `form:"seller"      json:"seller"      validate:"nullable,max=100"`
}

// ProductPatch is a partial update; nil fields are left alone.
type ProductPatch struct {
	Name        *string  `form:"name"        validate:"nullable,max=100"`
	SKU         *string  `form:"sku"         validate:"nullable,alpha_dash,max=64"`
	Category    *string  `form:"category"    validate:"nullable,in=Electronics,Cameras,Laptops,Accessories,Headphones,Food,Books,Clothes/Shoes,Beauty/Health,Sports,Outdoor,Home"`
	Quantity    *int     `form:"quantity"    validate:"nullable,gte=0"`
	Price       *float64 `form:"price"       validate:"nullable,gte=0,cents"`
	Description *string  `form:"description" validate:"nullable,max=2000"`
	Seller      *string  `form:"seller"      validate:"nullable,max=100"`
}

type ReviewInput struct {
	Rating  int    `json:"rating"  validate:"required,between=1,5"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

type ProductService struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	blobs    BlobStore
}

func NewProductService(products repositories.ProductRepository, users repositories.UserRepository, blobs BlobStore) *ProductService {
	return &ProductService{products: products, users: users, blobs: blobs}
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, repositories.MsgProductNotFound)
	if err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, oid)
}

// List returns page (1-based) of the products whose name contains keyword.
func (s *ProductService) List(ctx context.Context, keyword string, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.products.List(ctx, strings.TrimSpace(keyword), page, PageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}
	return &ProductPage{
		Products: items,
		Page:     page,
		Pages:    int(math.Ceil(float64(total) / PageSize)),
	}, nil
}

// Top returns the best rated products, served from the cache when warm.
func (s *ProductService) Top(ctx context.Context) ([]models.Product, error) {
	return cache.Remember(ctx, topProductsKey, config.CacheTTL(), func() ([]models.Product, error) {
		return s.products.Top(ctx, TopCount)
	})
}

func (s *ProductService) Create(ctx context.Context, actor Actor, in ProductInput, img *Upload) (*models.Product, error) {
	p := &models.Product{
		User:        actor.ID,
		Name:        in.Name,
		SKU:         in.SKU,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
		Seller:      in.Seller,
		Reviews:     []models.Review{},
	}
	if p.SKU == "" {
		p.SKU = generateSKU()
	}

	if img != nil {
		blob, err := s.blobs.Upload(ctx, img.Filename, img.Body, img.ContentType)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidRequest, err, "Image upload failed")
		}
		p.Image = blob
	}

	if err := s.products.Create(ctx, p); err != nil {
		s.dropBlob(ctx, p.Image.ID)
		return nil, err
	}
	s.forgetTop(ctx)
	return p, nil
}

// Update applies patch. A new image replaces the old blob once the product
// is saved.
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch, img *Upload) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setIf(&p.Name, patch.Name)
	setIf(&p.SKU, patch.SKU)
	setIf(&p.Category, patch.Category)
	setIf(&p.Quantity, patch.Quantity)
	setIf(&p.Price, patch.Price)
	setIf(&p.Description, patch.Description)
	setIf(&p.Seller, patch.Seller)

	old := p.Image
	if img != nil {
		blob, err := s.blobs.Upload(ctx, img.Filename, img.Body, img.ContentType)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidRequest, err, "Image upload failed")
		}
		p.Image = blob
	}

	if err := s.products.Update(ctx, p); err != nil {
		if img != nil {
			s.dropBlob(ctx, p.Image.ID)
		}
		return nil, err
	}
	if img != nil {
		s.dropBlob(ctx, old.ID)
	}
	s.forgetTop(ctx)
	return p, nil
}

// Delete removes the product, then its image.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.dropBlob(ctx, p.Image.ID)
	s.forgetTop(ctx)
	return nil
}

// AddReview records actor's rating. A user reviews a product once.
func (s *ProductService) AddReview(ctx context.Context, actor Actor, id string, in ReviewInput) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ReviewedBy(actor.ID) {
		return nil, apperr.AlreadyReviewed(repositories.MsgAlreadyReviewed)
	}

	reviewer, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("add review: reviewer: %w", err)
	}

	updated, err := s.products.AddReview(ctx, p.ID, models.Review{
		User:    actor.ID,
		Name:    reviewer.Name,
		Rating:  in.Rating,
		Comment: in.Comment,
	})
	if err != nil {
		return nil, err
	}
	s.forgetTop(ctx)
	return updated, nil
}

func (s *ProductService) dropBlob(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.blobs.Delete(ctx, id); err != nil {
		logger.WithCtx(ctx).Warn("products: image cleanup failed", "blob", id, "error", err)
	}
}

func (s *ProductService) forgetTop(ctx context.Context) {
	if err := cache.Forget(ctx, topProductsKey); err != nil {
		logger.WithCtx(ctx).Warn("products: cache invalidation failed", "error", err)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func generateSKU() string {
	return "SKU-" + strings.ToUpper(primitive.NewObjectID().Hex()[14:])
}
