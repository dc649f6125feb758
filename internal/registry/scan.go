package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Hara602/usbExporter/internal/model"
)

var (
	// 设备目录两种命名:1-1.4 这类普通设备,usb1 这类根集线器
	devicePattern  = regexp.MustCompile(`^\d+-\d+(\.\d+)*$`)
	rootHubPattern = regexp.MustCompile(`^usb\d+$`)
	// 接口子目录形如 1-1:1.0
	interfacePattern = regexp.MustCompile(`.*:\d+\.\d+$`)

	digitsPattern = regexp.MustCompile(`\d+`)
)

// Scan 枚举 sysfs 设备树,读出每台设备的描述字段。
// 单个属性读不到用默认值顶上,单台设备残缺就跳过,
// 根目录本身打不开才算整轮失败。
func Scan(root string) (map[model.DeviceKey]model.DeviceRecord, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read usb device tree %s: %w", root, err)
	}

	devices := make(map[model.DeviceKey]model.DeviceRecord)
	for _, entry := range entries {
		name := entry.Name()
		if !devicePattern.MatchString(name) && !rootHubPattern.MatchString(name) {
			continue
		}
		rec, ok := readDevice(filepath.Join(root, name))
		if !ok {
			continue
		}
		devices[rec.Key()] = rec
	}
	return devices, nil
}

// readDevice busnum/devnum 是配对 usbmon 事件的 key,
// 缺了整条记录就没法用,直接跳过这台设备
func readDevice(dir string) (model.DeviceRecord, bool) {
	bus, ok := readIntAttr(dir, "busnum")
	if !ok {
		return model.DeviceRecord{}, false
	}
	device, ok := readIntAttr(dir, "devnum")
	if !ok {
		return model.DeviceRecord{}, false
	}

	return model.DeviceRecord{
		Bus:         bus,
		Device:      device,
		VendorID:    strings.ToLower(readAttr(dir, "idVendor", "unknown")),
		ProductID:   strings.ToLower(readAttr(dir, "idProduct", "unknown")),
		VendorName:  cleanLabel(readAttr(dir, "manufacturer", "unknown")),
		ProductName: cleanLabel(readAttr(dir, "product", "unknown")),
		Serial:      readAttr(dir, "serial", "unknown"),
		USBVersion:  readAttr(dir, "version", "unknown"),
		ClassID:     readAttr(dir, "bDeviceClass", "00"),
		Driver:      driverName(dir),
		SpeedMbps:   parseSpeed(readAttr(dir, "speed", "0")),
		MaxPowerMa:  parsePower(readAttr(dir, "bMaxPower", "0")),
	}, true
}

// readAttr sysfs 属性是单行文本文件,读不到或为空给默认值。
// 字符串描述符里的非法字节直接丢掉(序列号最常见),
// 原样读出来会进不了指标标签。
func readAttr(dir, name, def string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return def
	}
	s := strings.TrimSpace(strings.ToValidUTF8(string(b), ""))
	if s == "" {
		return def
	}
	return s
}

func readIntAttr(dir, name string) (int, bool) {
	s := readAttr(dir, name, "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// driverName USB 驱动绑在接口上而不是设备上。
// 取第一个带 driver 软链接的接口,链接指向 /sys/bus/usb/drivers/<驱动名>
func driverName(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "none"
	}
	for _, entry := range entries {
		if !interfacePattern.MatchString(entry.Name()) {
			continue
		}
		target, err := os.Readlink(filepath.Join(dir, entry.Name(), "driver"))
		if err != nil {
			continue
		}
		return strings.ToValidUTF8(filepath.Base(target), "")
	}
	return "none"
}

// cleanLabel 厂商字符串里偶尔混着控制符和非 ASCII 字节,
// 只留可打印部分,剩不下东西就归 "unknown"
func cleanLabel(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x20 && s[i] <= 0x7e {
			b.WriteByte(s[i])
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "unknown"
	}
	return out
}

func parseSpeed(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parsePower bMaxPower 有 "500mA" 和裸数字两种写法,
// 裸数字按内核惯例是 2mA 为单位
func parsePower(s string) int {
	if strings.Contains(s, "mA") {
		m := digitsPattern.FindString(s)
		if m == "" {
			return 0
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0
		}
		return n
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n * 2
}
