package commands

import (
	"context"

	"github.com/urfave/cli"

	"VirtualTourist-App/internal/application"
	"VirtualTourist-App/internal/config"
	"VirtualTourist-App/internal/event"
)

var log = event.Log

// GlobalFlags 全コマンド共通のフラグ
var GlobalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "env-file, e",
		Usage:  "環境変数を読み込む .env ファイル",
		Value:  ".env",
		EnvVar: "VIRTUALTOURIST_ENV_FILE",
	},
	cli.StringFlag{
		Name:  "log-level, l",
		Usage: "trace, debug, info, warning, error (LOG_LEVELより優先)",
	},
}

// loadConfig フラグと環境変数から設定を読み込み、ログレベルを反映する
func loadConfig(ctx *cli.Context) (config.Config, error) {
	var envFiles []string
	// 明示的に指定されたファイルだけ必須とする
	if ctx.GlobalIsSet("env-file") {
		envFiles = append(envFiles, ctx.GlobalString("env-file"))
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, err
	}
	level := cfg.LogLevel
	if l := ctx.GlobalString("log-level"); l != "" {
		level = l
	}
	event.SetLogLevel(level)
	return cfg, nil
}

func newApp(ctx *cli.Context) (*application.App, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return application.New(context.Background(), cfg)
}
