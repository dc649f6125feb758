package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hara602/usbExporter/internal/model"
)

// Collector 持有全部指标和 完成事件 -> 计数 的折算规则。
// 用独立 Registry,避免默认注册表里的 go_* 运行时指标混进来。
type Collector struct {
	registry *prometheus.Registry

	dataSent       *prometheus.CounterVec
	dataReceived   *prometheus.CounterVec
	errorsSent     *prometheus.CounterVec
	errorsReceived *prometheus.CounterVec

	deviceSpeed *prometheus.GaugeVec
	devicePower *prometheus.GaugeVec
	deviceInfo  *prometheus.GaugeVec
}

func NewCollector() *Collector {
	transferLabels := []string{"bus", "device", "endpoint", "type", "vendor", "product", "serial"}
	errorLabels := []string{"bus", "device", "endpoint", "type", "error_code"}
	deviceLabels := []string{"bus", "device", "vendor_id", "product_id", "vendor_name", "product_name", "serial"}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		dataSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usb_data_sent_bytes_total",
			Help: "Total amount of USB data sent in bytes",
		}, transferLabels),
		dataReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usb_data_received_bytes_total",
			Help: "Total amount of USB data received in bytes",
		}, transferLabels),
		errorsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usb_transfer_errors_sent_total",
			Help: "Total number of failed outgoing USB transfers",
		}, errorLabels),
		errorsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "usb_transfer_errors_received_total",
			Help: "Total number of failed incoming USB transfers",
		}, errorLabels),
		deviceSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usb_device_speed_mbps",
			Help: "Negotiated USB device speed in Mbps",
		}, deviceLabels),
		devicePower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usb_device_power_ma",
			Help: "Maximum power draw of the USB device in mA",
		}, deviceLabels),
		deviceInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usb_device_info",
			Help: "USB device information, value is always 1",
		}, append(deviceLabels, "version", "class_id", "driver", "speed")),
	}

	c.registry.MustRegister(
		c.dataSent,
		c.dataReceived,
		c.errorsSent,
		c.errorsReceived,
		c.deviceSpeed,
		c.devicePower,
		c.deviceInfo,
	)
	return c
}

// ObserveTransfer 把一条事件折算成指标。规则互斥,一条事件只走一条路:
// 非完成事件不计(最终状态以完成回调为准);状态非 0 记一次错误;
// 成功且有数据按字节数累加;成功零长度什么都不记。
// 设备信息只在字节路径上才查,错误计数不需要厂商字段。
func (c *Collector) ObserveTransfer(ev model.TransferEvent, lookup func(bus, device int) model.DeviceRecord) {
	if !ev.IsCompletion() {
		return
	}

	bus := strconv.Itoa(ev.Bus)
	device := strconv.Itoa(ev.Device)
	kind := ev.Kind.String()

	if ev.Status != "0" {
		vec := c.errorsSent
		if ev.Dir == model.DirIn {
			vec = c.errorsReceived
		}
		vec.WithLabelValues(bus, device, ev.Endpoint, kind, ev.Status).Inc()
		return
	}

	if ev.DataLen <= 0 {
		return
	}

	dev := lookup(ev.Bus, ev.Device)
	vec := c.dataSent
	if ev.Dir == model.DirIn {
		vec = c.dataReceived
	}
	vec.WithLabelValues(bus, device, ev.Endpoint, kind,
		dev.VendorName, dev.ProductName, dev.Serial).Add(float64(ev.DataLen))
}

// PublishDevices 重发设备描述 gauge:整组清掉再按新快照设值,
// 拔掉的设备随之从 /metrics 消失。计数器从不清零。
func (c *Collector) PublishDevices(devices []model.DeviceRecord) {
	c.deviceSpeed.Reset()
	c.devicePower.Reset()
	c.deviceInfo.Reset()

	for _, dev := range devices {
		bus := strconv.Itoa(dev.Bus)
		device := strconv.Itoa(dev.Device)

		c.deviceSpeed.WithLabelValues(bus, device,
			dev.VendorID, dev.ProductID, dev.VendorName, dev.ProductName, dev.Serial).
			Set(dev.SpeedMbps)
		c.devicePower.WithLabelValues(bus, device,
			dev.VendorID, dev.ProductID, dev.VendorName, dev.ProductName, dev.Serial).
			Set(float64(dev.MaxPowerMa))
		c.deviceInfo.WithLabelValues(bus, device,
			dev.VendorID, dev.ProductID, dev.VendorName, dev.ProductName, dev.Serial,
			dev.USBVersion, dev.ClassID, dev.Driver,
			strconv.FormatFloat(dev.SpeedMbps, 'f', -1, 64)).
			Set(1)
	}
}

// Handler /metrics 走抓取,/healthz 给探活
func (c *Collector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// Serve 阻塞式起 HTTP 服务,调用方决定放哪个协程
func (c *Collector) Serve(addr string) error {
	return http.ListenAndServe(addr, c.Handler())
}
