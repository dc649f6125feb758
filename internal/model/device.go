package model

// DeviceKey 以捕获时刻的 总线号+设备地址 定位一台设备。
// 设备地址重插会变,所以 key 只在一轮快照内有意义。
type DeviceKey struct {
	Bus    int
	Device int
}

// DeviceRecord 从 sysfs 读出的设备描述快照
type DeviceRecord struct {
	Bus         int
	Device      int
	VendorID    string // idVendor,小写十六进制
	ProductID   string // idProduct,小写十六进制
	VendorName  string
	ProductName string
	Serial      string
	USBVersion  string // "2.00" 这类
	ClassID     string // bDeviceClass 原文,两位十六进制
	Driver      string // 第一个接口绑定的驱动,没有则 "none"
	SpeedMbps   float64
	MaxPowerMa  int
}

func (r DeviceRecord) Key() DeviceKey {
	return DeviceKey{Bus: r.Bus, Device: r.Device}
}

// UnknownDevice 查不到设备时的占位记录,保证事件侧永远拿得到厂商字段
func UnknownDevice(bus, device int) DeviceRecord {
	return DeviceRecord{
		Bus:         bus,
		Device:      device,
		VendorID:    "unknown",
		ProductID:   "unknown",
		VendorName:  "unknown",
		ProductName: "unknown",
		Serial:      "unknown",
		USBVersion:  "unknown",
		ClassID:     "00",
		Driver:      "none",
	}
}
