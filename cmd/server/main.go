package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/fibbing-it/internal/config"
	"github.com/palemoky/fibbing-it/internal/logger"
	"github.com/palemoky/fibbing-it/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("加载配置文件失败，使用默认配置")
	}

	// 创建服务器
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("创建服务器失败")
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-quit
		log.Info().Msg("正在关闭服务器...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGraceDuration())
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("关闭服务器时出错")
		}
	}()

	// 启动服务器
	log.Info().Msg("🎮 Fibbing It 服务器启动中...")
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("服务器启动失败")
	}
	<-done
}
