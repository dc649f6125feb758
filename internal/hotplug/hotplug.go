package hotplug

import "github.com/Hara602/usbExporter/internal/model"

// DeviceWatcher 上报总线上的插拔动作,用来催设备表提前刷新
type DeviceWatcher interface {
	Start() (<-chan model.HotplugEvent, error)
	Stop()
}

func New() DeviceWatcher {
	return newWatcher()
}
