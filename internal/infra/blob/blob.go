package blob

import "context"

// Store 图片/文件存储能力：写入返回可访问 URL。
// 生产可替换为对象存储实现，路由层只依赖这个接口。
type Store interface {
	Save(ctx context.Context, data []byte, ext string) (url string, err error)
	Delete(ctx context.Context, url string) error
}
