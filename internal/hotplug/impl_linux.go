package hotplug

import (
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"github.com/Hara602/usbExporter/internal/model"
)

type linuxWatcher struct {
	events chan model.HotplugEvent
	stop   chan struct{}
}

func newWatcher() DeviceWatcher {
	return &linuxWatcher{
		events: make(chan model.HotplugEvent, 10),
		stop:   make(chan struct{}),
	}
}

func (w *linuxWatcher) Start() (<-chan model.HotplugEvent, error) {
	// 监听 UDEV 事件,连接 NETLINK_KOBJECT_UEVENT
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, err
	}
	// 创建一个队列用于接收事件
	queue := make(chan netlink.UEvent)
	errChan := make(chan error)

	quit := conn.Monitor(queue, errChan, nil)

	go func() {
		// 确保退出时关闭连接
		defer conn.Close()

		for {
			select {
			case <-w.stop:
				// 发送退出信号给 Monitor
				close(quit)
				return

			case <-errChan:
				// 忽略底层网络错误，继续尝试
				continue

			case uevent := <-queue:
				w.handleUdevEvent(uevent)
			}
		}
	}()
	return w.events, nil
}

func (w *linuxWatcher) Stop() {
	close(w.stop)
}

// handleUdevEvent 只关心 usb 子系统里的整机设备 (DEVTYPE=usb_device)。
// 接口级别的 add/remove 跟着设备一起来,不单独算一次。
func (w *linuxWatcher) handleUdevEvent(uevent netlink.UEvent) {
	if uevent.Env["SUBSYSTEM"] != "usb" || uevent.Env["DEVTYPE"] != "usb_device" {
		return
	}
	action := string(uevent.Action)
	if action != "add" && action != "remove" {
		return
	}

	ev := model.HotplugEvent{
		Action:    action,
		DevPath:   uevent.Env["DEVPATH"],
		TimeStamp: time.Now(),
	}
	// PRODUCT 形如 vid/pid/bcdDevice,十六进制不带前导零
	if product := uevent.Env["PRODUCT"]; product != "" {
		if fields := strings.SplitN(product, "/", 3); len(fields) >= 2 {
			ev.VendorID = fields[0]
			ev.ProductID = fields[1]
		}
	}

	select {
	case w.events <- ev:
	case <-w.stop:
	}
}
