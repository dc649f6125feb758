//go:build windows

package tracer

import (
	"errors"

	"github.com/Hara602/usbExporter/internal/model"
)

type winTracer struct{}

func newTracer(root, bus string) (Tracer, error) {
	return nil, errors.New("usbmon tracing is only available on linux")
}

func (t *winTracer) Start()                             {}
func (t *winTracer) Stop()                              {}
func (t *winTracer) Events() <-chan model.TransferEvent { return nil }
