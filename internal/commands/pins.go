package commands

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli"

	"VirtualTourist-App/internal/domain/helper"
	"VirtualTourist-App/internal/domain/model"
)

// PinsCommand registers the pins cli command.
var PinsCommand = cli.Command{
	Name:   "pins",
	Usage:  "保存済みのピンと写真の状態を一覧表示します",
	Action: pinsAction,
}

func pinsAction(ctx *cli.Context) error {
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	pins, err := app.Store.FetchAllPins(context.Background())
	if err != nil {
		return err
	}

	for _, pin := range pins {
		counts := map[model.PhotoState]int{}
		for _, photo := range pin.Photos {
			counts[photo.State()]++
		}
		fmt.Printf("📍 %s (%.5f, %.5f) %s [cached %d, pending %d, failed %d] created %s\n",
			pin.ID, pin.Latitude, pin.Longitude,
			english.Plural(len(pin.Photos), "photo", "photos"),
			counts[model.PhotoStateCached], counts[model.PhotoStatePending], counts[model.PhotoStateFailed],
			humanize.Time(pin.CreatedAt))
	}

	if bound, ok := helper.BoundOfPins(pins); ok {
		fmt.Printf("🗺️ %s: lng %.4f..%.4f, lat %.4f..%.4f\n",
			english.Plural(len(pins), "pin", "pins"),
			bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
	} else {
		fmt.Println("ピンはまだありません")
	}
	return nil
}
