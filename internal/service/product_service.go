package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/keygen"
)

// ProductService 商品服务
type ProductService struct {
	repo  product.Repository
	fuzzy bool
}

// NewProductService 创建商品服务
func NewProductService(repo product.Repository, fuzzy bool) *ProductService {
	return &ProductService{repo: repo, fuzzy: fuzzy}
}

// List 商品列表，支持分类与关键字过滤
func (s *ProductService) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return list, nil
}

// Get 商品详情，reference 兼容对象键与目录编号
func (s *ProductService) Get(ctx context.Context, reference string) (*product.Product, error) {
	ref := ParseItemRef(reference, "")
	return ResolveItem(ctx, s.repo, ref, s.fuzzy)
}

// Related 同分类关联商品，排除自身
func (s *ProductService) Related(ctx context.Context, reference string, limit int) ([]*product.Product, error) {
	p, err := s.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 8
	}
	list, err := s.repo.List(ctx, product.ListFilter{Category: p.Category, OnlyActive: true})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	out := make([]*product.Product, 0, limit)
	for _, rp := range list {
		if rp.ID == p.ID {
			continue
		}
		out = append(out, rp)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ProductInput 创建/更新商品入参
type ProductInput struct {
	CatalogNo   *int64  `json:"catalogNo"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	Stock       int64   `json:"stock"`
	Image       string  `json:"image"`
	Sizes       string  `json:"sizes"`
	Rating      float64 `json:"rating"`
	IsActive    *bool   `json:"isActive"`
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.BadRequest(apperr.CodeValidation, "商品名称不能为空")
	}
	if !product.ValidCategory(in.Category) {
		return apperr.BadRequest(apperr.CodeValidation, "非法商品分类: %s", in.Category)
	}
	if in.Price < 0 {
		return apperr.BadRequest(apperr.CodeValidation, "价格不能为负")
	}
	if in.Stock < 0 {
		return apperr.BadRequest(apperr.CodeValidation, "库存不能为负")
	}
	if in.Rating < 0 || in.Rating > 5 {
		return apperr.BadRequest(apperr.CodeValidation, "评分必须在 0-5 之间")
	}
	return nil
}

// Create 创建商品（后台）
func (s *ProductService) Create(ctx context.Context, in *ProductInput) (*product.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &product.Product{
		ID:          keygen.NewKey(),
		CatalogNo:   in.CatalogNo,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       in.Image,
		Sizes:       in.Sizes,
		Rating:      in.Rating,
		IsActive:    true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

// Update 更新商品（后台），库存/销量之外的字段整体覆盖
func (s *ProductService) Update(ctx context.Context, id string, in *ProductInput) (*product.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeProductNotFound, "找不到商品: %s", id)
		}
		return nil, apperr.Storage(err)
	}
	p.CatalogNo = in.CatalogNo
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Stock = in.Stock
	p.Image = in.Image
	p.Sizes = in.Sizes
	p.Rating = in.Rating
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

// Deactivate 软下架：下单解析不再命中，但历史订单取消时仍可回补库存
func (s *ProductService) Deactivate(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return apperr.NotFound(apperr.CodeProductNotFound, "找不到商品: %s", id)
		}
		return apperr.Storage(err)
	}
	p.IsActive = false
	if err := s.repo.Update(ctx, p); err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// Delete 物理删除，仅后台使用
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return apperr.NotFound(apperr.CodeProductNotFound, "找不到商品: %s", id)
		}
		return apperr.Storage(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Storage(err)
	}
	return nil
}
