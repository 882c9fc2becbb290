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

func TestProductCreateAndGet(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, true)
	ctx := context.Background()

	no := int64(101)
	p, err := svc.Create(ctx, &ProductInput{
		CatalogNo: &no,
		Name:      " 蚕丝衬衫 ",
		Category:  product.CategoryClothing,
		Price:     25000,
		Stock:     10,
		Sizes:     "S,M,L",
	})
	require.NoError(t, err)
	assert.True(t, keygen.IsKey(p.ID))
	assert.Equal(t, "蚕丝衬衫", p.Name, "名称要去掉首尾空白")
	assert.True(t, p.IsActive)

	// 键和目录编号都能查到详情
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	got, err = svc.Get(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestProductCreateValidation(t *testing.T) {
	svc := NewProductService(newMemProductRepo(), true)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ProductInput
	}{
		{"名称为空", ProductInput{Category: product.CategoryFood, Price: 100, Stock: 1}},
		{"非法分类", ProductInput{Name: "x", Category: "toys", Price: 100, Stock: 1}},
		{"负价格", ProductInput{Name: "x", Category: product.CategoryFood, Price: -1, Stock: 1}},
		{"负库存", ProductInput{Name: "x", Category: product.CategoryFood, Price: 100, Stock: -1}},
		{"评分越界", ProductInput{Name: "x", Category: product.CategoryFood, Price: 100, Stock: 1, Rating: 5.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation))
		})
	}
}

func TestProductDeactivateHidesFromStorefront(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, true)
	ctx := context.Background()

	p := seedProduct(repo, "藤编灯罩", 0, 30000, 5)

	require.NoError(t, svc.Deactivate(ctx, p.ID))

	// 前台解析不再命中
	_, err := svc.Get(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))

	// 后台列表仍能看到
	list, err := svc.List(ctx, product.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(ctx, product.ListFilter{OnlyActive: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductUpdate(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, true)
	ctx := context.Background()

	p := seedProduct(repo, "陶瓷杯", 0, 8000, 10)

	inactive := false
	updated, err := svc.Update(ctx, p.ID, &ProductInput{
		Name:     "陶瓷杯（新款）",
		Category: product.CategoryHousehold,
		Price:    9000,
		Stock:    20,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "陶瓷杯（新款）", updated.Name)
	assert.Equal(t, int64(9000), updated.Price)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, keygen.NewKey(), &ProductInput{
		Name: "x", Category: product.CategoryFood, Price: 1, Stock: 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))
}

func TestProductRelated(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, true)
	ctx := context.Background()

	base := seedProduct(repo, "蚕丝衬衫", 0, 25000, 10)
	seedProduct(repo, "亚麻长裤", 0, 40000, 10)
	seedProduct(repo, "棉麻外套", 0, 60000, 10)
	other := &product.Product{
		ID: keygen.NewKey(), Name: "陶瓷杯", Category: product.CategoryHousehold,
		Price: 8000, Stock: 5, IsActive: true,
	}
	repo.add(other)

	list, err := svc.Related(ctx, base.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2, "同分类且排除自身")
	for _, p := range list {
		assert.Equal(t, product.CategoryClothing, p.Category)
		assert.NotEqual(t, base.ID, p.ID)
	}

	list, err = svc.Related(ctx, base.ID, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductDelete(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewProductService(repo, true)
	ctx := context.Background()

	p := seedProduct(repo, "挂画", 0, 30000, 3)
	require.NoError(t, svc.Delete(ctx, p.ID))

	err := svc.Delete(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeProductNotFound))
}
