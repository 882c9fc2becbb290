package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, c := range []string{
		CategoryClothing, CategoryShoes, CategoryCosmetics,
		CategoryFood, CategoryConsumable, CategoryHousehold,
	} {
		assert.True(t, ValidCategory(c), c)
	}

	// 历史前端只认这套 slug，英文写法不在枚举内
	for _, c := range []string{"clothing", "shoes", "food", "", "QUANAO"} {
		assert.False(t, ValidCategory(c), c)
	}
}
