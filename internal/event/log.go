package event

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log アプリケーション共通のロガー
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Log.SetLevel(logrus.InfoLevel)
}

// SetLogLevel 文字列でログレベルを設定する。不正な値の場合はinfoのまま
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		Log.Warnf("⚠️ 不正なログレベル %q のためinfoを使用します", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
