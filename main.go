package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"darkworlds/config"
	"darkworlds/gamestate"
	"darkworlds/server"
)

// 入口：加载配置与角色目录，启动 HTTP + WebSocket 服务和房间管理器
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "master random seed (0 for time based)")
	flag.Parse()

	// 使用 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer server.SyncLogger()

	catalog, err := gamestate.LoadCatalog(cfg.CharactersPath)
	if err != nil {
		server.Log.Fatalf("load characters: %v", err)
	}
	catalog = catalog.Implemented(gamestate.DefaultImplemented...)
	server.Log.Infof("characters loaded: %v", catalog.Names())

	rm := server.InitRoomManager(server.RoomOptions{
		Width:                    cfg.MapWidth,
		Height:                   cfg.MapHeight,
		LootIntervalTicks:        cfg.LootIntervalTicks,
		MaxLoot:                  cfg.MaxLoot,
		MaxInputsPerTick:         cfg.MaxInputsPerTick,
		DisconnectRetentionTicks: cfg.DisconnectRetentionTicks,
		Seed:                     cfg.Seed,
		Catalog:                  catalog,
		Clock:                    gamestate.SystemClock{},
		Resolver:                 server.MeleeResolver{},
	})
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom("room-1")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/admin/characters", rm.HandleCharacters)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		server.Log.Infof("darkworlds listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("shutdown: %v", err)
	}
	rm.StopAll()
}
