package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/apperr"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/datamodels/product"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/keygen"
)

func TestParseItemRef(t *testing.T) {
	key := keygen.NewKey()

	cases := []struct {
		name      string
		reference string
		fallback  string
		wantKind  ItemRefKind
	}{
		{"对象键", key, "", RefByKey},
		{"大写对象键也算键", "507F1F77BCF86CD799439011", "", RefByKey},
		{"目录编号", "42", "", RefByCatalogNo},
		{"24 位纯数字按键处理而非编号", "123456789012345678901234", "", RefByKey},
		{"负数也按编号解析", "-1", "", RefByCatalogNo},
		{"名称", "蚕丝衬衫", "", RefByName},
		{"23 位十六进制按名称处理", key[:23], "", RefByName},
		{"空引用退回 name 字段", "", "蚕丝衬衫", RefByName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref := ParseItemRef(tc.reference, tc.fallback)
			assert.Equal(t, tc.wantKind, ref.Kind)
			assert.NotEmpty(t, ref.Raw)
		})
	}
}

func TestResolveItemPrecedence(t *testing.T) {
	repo := newMemProductRepo()
	ctx := context.Background()

	byKey := seedProduct(repo, "蚕丝衬衫", 0, 25000, 10)
	byNo := seedProduct(repo, "亚麻长裤", 77, 40000, 5)
	byName := seedProduct(repo, "帆布托特包", 0, 18000, 8)

	// 对象键优先
	p, err := ResolveItem(ctx, repo, ParseItemRef(byKey.ID, ""), true)
	require.NoError(t, err)
	assert.Equal(t, byKey.ID, p.ID)

	// 数字引用按目录编号查
	p, err = ResolveItem(ctx, repo, ParseItemRef("77", ""), true)
	require.NoError(t, err)
	assert.Equal(t, byNo.ID, p.ID)

	// 精确名称
	p, err = ResolveItem(ctx, repo, ParseItemRef("帆布托特包", ""), true)
	require.NoError(t, err)
	assert.Equal(t, byName.ID, p.ID)

	// 编号未命中时退回名称链
	p, err = ResolveItem(ctx, repo, ParseItemRef("99999", "帆布托特包"), true)
	require.NoError(t, err)
	assert.Equal(t, byName.ID, p.ID)

	// 24 位纯数字引用按对象键解析，不会落到目录编号分支
	digits := "123456789012345678901234"
	repo.add(&product.Product{
		ID: digits, Name: "对照组", Category: product.CategoryFood,
		Price: 1000, Stock: 1, IsActive: true,
	})
	p, err = ResolveItem(ctx, repo, ParseItemRef(digits, ""), true)
	require.NoError(t, err)
	assert.Equal(t, digits, p.ID)
}

func TestResolveItemFuzzyFallback(t *testing.T) {
	repo := newMemProductRepo()
	ctx := context.Background()

	first := seedProduct(repo, "越南滴漏咖啡壶", 0, 15000, 10)
	seedProduct(repo, "咖啡豆礼盒", 0, 22000, 10)

	// 子串匹配大小写不敏感，歧义时取存储顺序第一条
	p, err := ResolveItem(ctx, repo, ParseItemRef("咖啡", ""), true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, p.ID)

	// 关掉模糊匹配后子串不再命中
	_, err = ResolveItem(ctx, repo, ParseItemRef("咖啡", ""), false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))
}

func TestResolveItemSkipsInactive(t *testing.T) {
	repo := newMemProductRepo()
	ctx := context.Background()

	inactive := &product.Product{
		ID:       keygen.NewKey(),
		Name:     "停售藤编灯罩",
		Category: product.CategoryHousehold,
		Price:    30000,
		Stock:    5,
		IsActive: false,
	}
	repo.add(inactive)
	active := seedProduct(repo, "新款藤编灯罩", 0, 32000, 5)

	// 下架商品即使键命中也不可下单，退回名称链找同名在售款
	_, err := ResolveItem(ctx, repo, ParseItemRef(inactive.ID, ""), true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))

	p, err := ResolveItem(ctx, repo, ParseItemRef(inactive.ID, "藤编灯罩"), true)
	require.NoError(t, err)
	assert.Equal(t, active.ID, p.ID)
}

func TestResolveItemNotFound(t *testing.T) {
	repo := newMemProductRepo()
	_, err := ResolveItem(context.Background(), repo, ParseItemRef("不存在的商品", ""), true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))
}
