package main

import (
	"context"
	"flag"
	"log"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/repository/mysql"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/service"
)

// 管理员账号只能从命令行创建，后台没有开放注册入口。
func main() {
	var (
		name     = flag.String("name", "", "管理员姓名")
		email    = flag.String("email", "", "管理员邮箱（登录和收验证码用）")
		password = flag.String("password", "", "登录密码，至少 8 位")
	)
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("name/email/password 都不能为空")
	}

	cfg := config.DefaultConfig()
	db := mysql.Init(&cfg.MySQL)

	userSvc := service.NewUserService(mysql.NewUserRepository(db), &cfg.JWT, nil, nil)
	u, err := userSvc.CreateAdmin(context.Background(), *name, *email, *password)
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("admin created: id=%s email=%s", u.ID, u.Email)
}
