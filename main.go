package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ChatStory/global"
	"ChatStory/global/config"
	"ChatStory/logger"
	"ChatStory/service/gateway"

	"github.com/golang/glog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	err := run(*configPath)
	logger.Sync()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Errorf("load config: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inf, err := global.ConfigAll(ctx, cfg)
	if err != nil {
		glog.Errorf("bootstrap: %v", err)
		return err
	}
	defer inf.Close(cfg.HTTP.ShutdownTimeout)

	deps := gateway.Deps{Config: cfg, Hub: inf.Hub, Bots: inf.Verifier}
	if inf.Stats != nil {
		deps.Stats = inf.Stats
	}
	gw := gateway.NewServer(deps)

	logger.Info("chatstory starting", zap.String("addr", cfg.Addr()), zap.Int64("node", cfg.NodeID))
	if err := gw.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("chatstory stopped")
	return nil
}
