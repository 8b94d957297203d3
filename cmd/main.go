package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"VirtualTourist-App/internal/commands"
	"VirtualTourist-App/internal/event"
)

var version = "development"
var log = event.Log

func main() {
	app := cli.NewApp()
	app.Name = "VirtualTourist-App"
	app.HelpName = filepath.Base(os.Args[0])
	app.Usage = "地図上のピンごとに写真を取得・キャッシュするバックエンド"
	app.Version = version
	app.Flags = commands.GlobalFlags

	app.Commands = []cli.Command{
		commands.ServeCommand,
		commands.PinsCommand,
		commands.ReconcileCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
