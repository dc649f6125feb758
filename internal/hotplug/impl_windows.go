//go:build windows

package hotplug

import "github.com/Hara602/usbExporter/internal/model"

type winWatcher struct{}

func newWatcher() DeviceWatcher                                 { return &winWatcher{} }
func (w *winWatcher) Start() (<-chan model.HotplugEvent, error) { return nil, nil }
func (w *winWatcher) Stop()                                     {}
