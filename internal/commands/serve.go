package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"

	"VirtualTourist-App/internal/event"
)

const shutdownTimeout = 15 * time.Second

// ServeCommand registers the serve cli command.
var ServeCommand = cli.Command{
	Name:   "serve",
	Usage:  "HTTP APIサーバーを起動します",
	Action: serveAction,
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "release",
			Usage: "ginをリリースモードで起動する",
		},
	},
}

func serveAction(ctx *cli.Context) error {
	if ctx.Bool("release") {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sub := app.Hub.Subscribe("pin.*", "photo.*", "photos.*")
	go logEvents(sub)

	resumed := app.Manager.ResumePending(context.Background())
	if len(resumed) > 0 {
		log.Infof("🔄 保留中の写真のダウンロードを再開 (%d件のピン)", len(resumed))
	}

	srv := &http.Server{
		Addr:              app.Config.Addr(),
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 VirtualTourist-App server starting on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-errCh:
		return err
	case sig := <-signals:
		log.Infof("🛑 %sを受信しました。シャットダウンします", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("✅ サーバーを停止しました")
	return nil
}

func logEvents(sub event.Subscription) {
	for msg := range sub.Receiver {
		log.WithField("event", msg.Name).Debugf("📣 %v", msg.Fields)
	}
}
