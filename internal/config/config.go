package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 命令行/环境变量可调的默认值
const (
	DefaultPort       = 8000
	DefaultUsbmonPath = "/sys/kernel/debug/usb/usbmon"
)

// 跟内核接口绑定的固定值,测试时通过字段注入
const (
	sysfsDevicePath = "/sys/bus/usb/devices"
	monitorBus      = "0u" // 0 号"总线"聚合整机所有总线的事件
	refreshInterval = 10 * time.Second
	hotplugSettle   = 500 * time.Millisecond
)

// Config 运行配置
type Config struct {
	Port        int
	UsbmonPath  string
	InventoryDB string // 为空则不落库
	Debug       bool

	SysfsPath       string
	MonitorBus      string
	RefreshInterval time.Duration
	HotplugSettle   time.Duration
}

// Load 取最终生效的配置,flag 和 USB_EXPORTER_* 环境变量都走 viper
func Load() Config {
	return Config{
		Port:        viper.GetInt("port"),
		UsbmonPath:  viper.GetString("usbmon-path"),
		InventoryDB: viper.GetString("inventory-db"),
		Debug:       viper.GetBool("debug"),

		SysfsPath:       sysfsDevicePath,
		MonitorBus:      monitorBus,
		RefreshInterval: refreshInterval,
		HotplugSettle:   hotplugSettle,
	}
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
