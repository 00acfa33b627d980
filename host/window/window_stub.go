//go:build !cgo

package window

import (
	"errors"
	"log/slog"

	"github.com/echoflaresat/spacescroll/host"
)

type Config struct {
	Title  string
	Frames uint64
	TPS    int
}

func Run(_ *host.Session, _ Config, _ *slog.Logger) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
