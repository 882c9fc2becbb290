package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/keygen"
)

// 历史前端会用三种形态引用同一件商品：24 位对象键、数字目录编号、商品名称。
// 解析统一走 ParseItemRef + ResolveItem，按固定优先级逐级尝试，
// 避免 isNaN/正则判断散落在各个调用点。

// ItemRefKind 商品引用形态
type ItemRefKind int

const (
	RefByKey       ItemRefKind = iota // 24 位十六进制对象键
	RefByCatalogNo                    // 数字目录编号
	RefByName                         // 名称
)

// ItemRef 解析后的商品引用
type ItemRef struct {
	Kind      ItemRefKind
	Key       string
	CatalogNo int64
	Name      string // 兜底用名称（引用本身或描述符附带的 name）
	Raw       string // 原始引用，报错时带回给前端
}

// ParseItemRef 把客户端传来的 {reference, name} 归一化为带标签的引用
func ParseItemRef(reference, name string) ItemRef {
	reference = strings.TrimSpace(reference)
	name = strings.TrimSpace(name)

	raw := reference
	if raw == "" {
		raw = name
	}

	if keygen.IsKey(reference) {
		return ItemRef{Kind: RefByKey, Key: reference, Name: name, Raw: raw}
	}
	if n, err := strconv.ParseInt(reference, 10, 64); err == nil && reference != "" {
		return ItemRef{Kind: RefByCatalogNo, CatalogNo: n, Name: name, Raw: raw}
	}
	if reference != "" {
		return ItemRef{Kind: RefByName, Name: reference, Raw: raw}
	}
	return ItemRef{Kind: RefByName, Name: name, Raw: raw}
}

// ResolveItem 按 键 -> 目录编号 -> 精确名称 -> 模糊名称 的顺序解析商品。
// 任何一步命中即返回；只有 is_active 的商品才算命中。
// 模糊名称匹配只是兼容老客户端的兜底，不是搜索功能，歧义时取存储顺序第一条，
// 可通过 fuzzy 开关关闭。
func ResolveItem(ctx context.Context, repo product.Repository, ref ItemRef, fuzzy bool) (*product.Product, error) {
	notFound := func() error {
		return apperr.NotFound(apperr.CodeProductNotFound, "找不到商品: %s", ref.Raw)
	}

	switch ref.Kind {
	case RefByKey:
		p, err := repo.GetByID(ctx, ref.Key)
		if err != nil && !errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		if p != nil && p.IsActive {
			return p, nil
		}
	case RefByCatalogNo:
		p, err := repo.GetByCatalogNo(ctx, ref.CatalogNo)
		if err != nil && !errors.Is(err, product.ErrNotFound) {
			return nil, err
		}
		if p != nil && p.IsActive {
			return p, nil
		}
	}

	// 键/编号未命中时退回名称链
	name := ref.Name
	if name == "" {
		return nil, notFound()
	}

	p, err := repo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return nil, err
	}
	if p != nil && p.IsActive {
		return p, nil
	}

	if !fuzzy {
		return nil, notFound()
	}

	p, err = repo.SearchByName(ctx, name)
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		return nil, err
	}
	if p != nil && p.IsActive {
		return p, nil
	}
	return nil, notFound()
}
