package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"Regnum/internal/game/app"
	"Regnum/internal/game/dc"
	journalsqlite "Regnum/internal/game/infra/journal/sqlite"
	"Regnum/internal/game/interfaces"
	"Regnum/internal/game/interfaces/handler"
	grpchandler "Regnum/internal/game/interfaces/handler/grpc"
	gamews "Regnum/internal/game/interfaces/handler/ws"
	"Regnum/internal/game/production"
	"Regnum/internal/shared/config"
	"Regnum/internal/shared/infrastructure/sqlite"
	"Regnum/internal/shared/logs"
	"Regnum/internal/shared/security"
	transportgrpc "Regnum/internal/shared/transport/grpc"
	transporthttp "Regnum/internal/shared/transport/http"
	"Regnum/internal/shared/transport/http/middleware"
	"Regnum/internal/shared/transport/ws"
	"Regnum/internal/shared/utils"
	"Regnum/modules/kit/logx"
)

const (
	pushBuffer    = 1024
	askTimeout    = 3 * time.Second
	shutdownAfter = 10 * time.Second
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	if err := logs.Init("game", cfg.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	config.OnChange(func(c config.Config) {
		logs.SetLevel(c.Log.Level)
	})
	logs.Info("conf", zap.Any("store", cfg.Store), zap.Any("production", cfg.Production))

	baseLogger := logx.NewZapLogger(logs.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	signer, err := security.NewSignerFromEnv(cfg.JWTSecret)
	if err != nil {
		logs.Fatal("jwt signer init failed", zap.Error(err))
	}
	ids, err := utils.NewSnowflake(cfg.NodeID)
	if err != nil {
		logs.Fatal("snowflake init failed", zap.Error(err))
	}

	engine, err := app.New(app.Deps{
		Logger: baseLogger,
		IDs:    ids,
		Production: production.Options{
			Period: time.Duration(cfg.Production.PeriodS) * time.Second,
			Cap:    cfg.Production.Cap,
		},
	})
	if err != nil {
		logs.Fatal("engine init failed", zap.Error(err))
	}

	// 存储 -> 回填 -> 接上脏标记，回填本身不产生写回
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logs.Fatal("open store failed", zap.Error(err))
	}
	gameDC := dc.NewGameDC(repo, engine, baseLogger, time.Duration(cfg.Store.FlushEveryMS)*time.Millisecond)
	state, err := gameDC.Load(ctx)
	if err != nil {
		logs.Fatal("load world failed", zap.Error(err))
	}
	engine.Restore(state)
	engine.Bus().AddSink(gameDC)

	bgCtx, cancelBg := context.WithCancel(context.Background())
	go gameDC.Run(bgCtx)

	var (
		journal handler.Journal
		jr      *journalsqlite.Journal
	)
	if cfg.Journal.Path != "" {
		sqlDB, err := sqlite.Open(cfg.Journal.Path)
		if err != nil {
			logs.Fatal("open journal failed", zap.Error(err))
		}
		defer func() { _ = sqlDB.Close() }()
		j, err := journalsqlite.New(ctx, sqlDB)
		if err != nil {
			logs.Fatal("init journal failed", zap.Error(err))
		}
		journal, jr = j, j
	}

	// 产出调度：启动时先补跑当前窗口，再按周期自驱
	prod := production.NewRuntime(engine.Scheduler(), time.Now, askTimeout)

	module := interfaces.New(engine, journal, baseLogger)

	hub := ws.NewHub()
	limiters := middleware.NewLimiters(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	wsRouter := ws.NewRouter(baseLogger)
	wsRouter.Limit(limiters)
	module.WsRegister(wsRouter)
	pusher := gamews.NewPusher(hub, baseLogger)
	// 有流水时先落盘再推送，推送帧的 seq 就是 events.since 用的序号
	if jr != nil {
		go jr.Run(bgCtx, engine.Bus().Subscribe(pushBuffer), baseLogger, pusher)
	} else {
		go pusher.Run(bgCtx, engine.Bus().Subscribe(pushBuffer))
	}

	httpAddr := fmt.Sprintf("%s:%d", cfg.GameServer.Host, cfg.GameServer.Port)
	httpServer := transporthttp.NewHttpServer(httpAddr, nil, baseLogger, transporthttp.Options{
		Auth:     signer,
		Limiters: limiters,
	})
	httpServer.Register(module)
	wsServer := ws.NewServer(wsRouter, hub, signer, baseLogger)
	httpServer.Engine().Any("/ws", gin.WrapH(wsServer))

	grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPCServer.Host, cfg.GRPCServer.Port)
	grpcServer := transportgrpc.NewServer(grpc.ChainUnaryInterceptor(grpchandler.AuthInterceptor(signer)))
	module.GrpcRegister(grpcServer)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logs.Fatal("listen game grpc failed", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logs.Info("game http server started", zap.String("addr", httpAddr))
		if err := httpServer.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- fmt.Errorf("game http server start failed: %w", err)
		}
	}()
	go func() {
		logs.Info("game grpc server started", zap.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("game grpc serve failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		logs.Error("服务异常退出", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownAfter)
	defer cancel()

	// 先停入口，再停调度，最后把剩余脏数据写完
	module.Shutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	stopCh := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopCh)
	}()
	select {
	case <-stopCh:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	prod.Shutdown()
	cancelBg()
	if err := gameDC.Close(shutdownCtx); err != nil {
		logs.Error("final flush failed", zap.Error(err))
	}
	engine.Close()
	closeStore()
}
