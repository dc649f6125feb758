package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hara602/usbExporter/internal/model"
)

// writeSysfsDevice 在临时目录里搭一台假设备,attrs 为空的键不落文件
func writeSysfsDevice(t *testing.T, root, name string, attrs map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for k, v := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v), 0o644))
	}
	return dir
}

func TestScanReadsFullDevice(t *testing.T) {
	root := t.TempDir()
	dir := writeSysfsDevice(t, root, "1-1", map[string]string{
		"busnum":       "1\n",
		"devnum":       "002\n",
		"idVendor":     "1D6B\n",
		"idProduct":    "0002\n",
		"manufacturer": "Linux Foundation\n",
		"product":      "xHCI Host Controller\n",
		"serial":       "0000:00:14.0\n",
		"version":      " 2.00\n",
		"bDeviceClass": "09\n",
		"speed":        "480\n",
		"bMaxPower":    "100mA\n",
	})

	// 驱动挂在接口子目录的 driver 软链接上
	iface := filepath.Join(dir, "1-1:1.0")
	require.NoError(t, os.MkdirAll(iface, 0o755))
	require.NoError(t, os.Symlink("../../../bus/usb/drivers/hub", filepath.Join(iface, "driver")))

	devices, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	rec, ok := devices[model.DeviceKey{Bus: 1, Device: 2}]
	require.True(t, ok)
	assert.Equal(t, "1d6b", rec.VendorID) // 十六进制统一小写
	assert.Equal(t, "0002", rec.ProductID)
	assert.Equal(t, "Linux Foundation", rec.VendorName)
	assert.Equal(t, "xHCI Host Controller", rec.ProductName)
	assert.Equal(t, "0000:00:14.0", rec.Serial)
	assert.Equal(t, "2.00", rec.USBVersion)
	assert.Equal(t, "09", rec.ClassID)
	assert.Equal(t, "hub", rec.Driver)
	assert.Equal(t, 480.0, rec.SpeedMbps)
	assert.Equal(t, 100, rec.MaxPowerMa)
}

func TestScanDefaultsForMissingAttrs(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "2-1.4", map[string]string{
		"busnum": "2",
		"devnum": "7",
	})

	devices, err := Scan(root)
	require.NoError(t, err)

	rec, ok := devices[model.DeviceKey{Bus: 2, Device: 7}]
	require.True(t, ok)
	assert.Equal(t, "unknown", rec.VendorID)
	assert.Equal(t, "unknown", rec.ProductID)
	assert.Equal(t, "unknown", rec.VendorName)
	assert.Equal(t, "unknown", rec.Serial)
	assert.Equal(t, "unknown", rec.USBVersion)
	assert.Equal(t, "00", rec.ClassID)
	assert.Equal(t, "none", rec.Driver)
	assert.Equal(t, 0.0, rec.SpeedMbps)
	assert.Equal(t, 0, rec.MaxPowerMa)
}

// 字符串属性里混进非法字节的设备是存在的,读出来直接丢掉脏字节
func TestScanDropsInvalidBytesInAttrs(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "1-3", map[string]string{
		"busnum": "1",
		"devnum": "4",
		"serial": "SN\xff\xfe42\n",
	})

	devices, err := Scan(root)
	require.NoError(t, err)

	rec, ok := devices[model.DeviceKey{Bus: 1, Device: 4}]
	require.True(t, ok)
	assert.Equal(t, "SN42", rec.Serial)
}

func TestScanSkipsForeignEntries(t *testing.T) {
	root := t.TempDir()
	writeSysfsDevice(t, root, "usb1", map[string]string{"busnum": "1", "devnum": "1"})
	writeSysfsDevice(t, root, "1-1.4", map[string]string{"busnum": "1", "devnum": "5"})
	// 接口目录、端点目录和没有编号的设备都不该出现在结果里
	writeSysfsDevice(t, root, "1-0:1.0", map[string]string{"busnum": "1", "devnum": "9"})
	writeSysfsDevice(t, root, "ep_81", nil)
	writeSysfsDevice(t, root, "3-2", nil) // 缺 busnum/devnum

	devices, err := Scan(root)
	require.NoError(t, err)
	assert.Len(t, devices, 2)
	assert.Contains(t, devices, model.DeviceKey{Bus: 1, Device: 1})
	assert.Contains(t, devices, model.DeviceKey{Bus: 1, Device: 5})
}

func TestScanMissingRootFails(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "no-such-dir"))
	assert.Error(t, err)
}

func TestDriverNameTakesFirstBoundInterface(t *testing.T) {
	root := t.TempDir()
	dir := writeSysfsDevice(t, root, "1-2", map[string]string{"busnum": "1", "devnum": "3"})

	// 1.0 没绑驱动,1.1 绑了,应该拿到 1.1 的
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "1-2:1.0"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "1-2:1.1"), 0o755))
	require.NoError(t, os.Symlink("../../../bus/usb/drivers/usbhid", filepath.Join(dir, "1-2:1.1", "driver")))

	assert.Equal(t, "usbhid", driverName(dir))
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SanDisk Corp.", "SanDisk Corp."},
		{"Mfg\x01Name", "MfgName"},
		{"  padded  ", "padded"},
		{"\x07\x1b", "unknown"},
		{"日本語", "unknown"}, // 非 ASCII 全部滤掉
		{"", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanLabel(tt.in), "input %q", tt.in)
	}
}

func TestParsePower(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"500mA", 500},
		{"0mA", 0},
		{"mA", 0},
		{"50", 100}, // 裸数字按 2mA 单位
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePower(tt.in), "input %q", tt.in)
	}
}

func TestParseSpeed(t *testing.T) {
	assert.Equal(t, 480.0, parseSpeed("480"))
	assert.Equal(t, 1.5, parseSpeed("1.5"))
	assert.Equal(t, 0.0, parseSpeed("fast"))
}
