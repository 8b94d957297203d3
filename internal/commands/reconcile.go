package commands

import (
	"context"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli"
)

// ReconcileCommand registers the reconcile cli command.
var ReconcileCommand = cli.Command{
	Name:   "reconcile",
	Usage:  "キャッシュディレクトリと写真レコードの整合性を回復します",
	Action: reconcileAction,
}

func reconcileAction(ctx *cli.Context) error {
	start := time.Now()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Manager.Reconcile(context.Background())
	if err != nil {
		return err
	}

	log.Infof("reconciled in %s: removed %s, reset %s",
		time.Since(start),
		english.Plural(len(report.RemovedFiles), "orphan file", "orphan files"),
		english.Plural(report.ResetPhotos, "photo", "photos"))
	return nil
}
