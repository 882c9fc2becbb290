package main

import (
	"flag"
	"log"

	"github.com/kataras/iris/v12"

	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/config"
	applog "github.com/ANHphan1982/NyNa-House-Store-backend/internal/pkg/log"
	"github.com/ANHphan1982/NyNa-House-Store-backend/internal/server"
)

func main() {
	configPath := flag.String("config", "", "配置文件目录（可选，缺省用默认配置）")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	applog.InitLogger()

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("web server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run web server: %v", err)
	}
}
