package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Hara602/usbExporter/internal/config"
	"github.com/Hara602/usbExporter/internal/hotplug"
	"github.com/Hara602/usbExporter/internal/inventory"
	"github.com/Hara602/usbExporter/internal/metrics"
	"github.com/Hara602/usbExporter/internal/model"
	"github.com/Hara602/usbExporter/internal/registry"
	"github.com/Hara602/usbExporter/internal/sysutil"
	"github.com/Hara602/usbExporter/internal/tracer"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "usb-exporter",
		Short: "Prometheus exporter for USB transfer activity",
		Long: `usb-exporter reads the kernel usbmon text interface and exposes
per-device USB traffic, transfer errors and device inventory as
Prometheus metrics.

Requires CONFIG_USB_MON and a mounted debugfs, which usually
means running as root.`,
		Version: version,
		RunE:    run,
	}

	// Command-line flags
	rootCmd.PersistentFlags().Int("port", config.DefaultPort, "Metrics listen port")
	rootCmd.PersistentFlags().String("usbmon-path", config.DefaultUsbmonPath, "usbmon debugfs directory")
	rootCmd.PersistentFlags().String("inventory-db", "", "SQLite device journal path (empty disables it)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	// Environment variable binding
	viper.SetEnvPrefix("USB_EXPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlags(rootCmd.PersistentFlags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// 初始化日志
	sysutil.InitLogger(cfg.Debug)
	defer sysutil.Log.Sync()

	sysutil.Log.Info("🔌 USB Exporter Starting...")

	// usbmon 没挂载就什么都采不到,直接退
	if _, err := os.Stat(cfg.UsbmonPath); err != nil {
		sysutil.Log.Fatal("usbmon interface not accessible",
			zap.String("path", cfg.UsbmonPath), zap.Error(err))
	}

	collector := metrics.NewCollector()

	// 设备表和它的下游:指标发布,可选的 sqlite 台账
	store := registry.NewStore()
	sinks := []func([]model.DeviceRecord){collector.PublishDevices}

	if cfg.InventoryDB != "" {
		journal, err := inventory.Open(cfg.InventoryDB)
		if err != nil {
			sysutil.Log.Error("inventory journal disabled", zap.Error(err))
		} else {
			defer journal.Close()
			sinks = append(sinks, journal.RecordSnapshot)
		}
	}

	refresher := registry.NewRefresher(store, cfg.SysfsPath, cfg.RefreshInterval, cfg.HotplugSettle, sinks...)
	// 先扫一轮,第一条事件到来时就查得到设备
	refresher.Refresh()
	refresher.Start()
	defer refresher.Stop()

	go func() {
		sysutil.Log.Info("📊 metrics endpoint up", zap.String("addr", cfg.ListenAddr()))
		if err := collector.Serve(cfg.ListenAddr()); err != nil {
			sysutil.Log.Fatal("metrics server failed", zap.Error(err))
		}
	}()

	devWatcher := hotplug.New()
	plugEvents, err := devWatcher.Start()
	if err != nil {
		sysutil.Log.Warn("hotplug watch unavailable, refreshing on timer only", zap.Error(err))
	} else {
		defer devWatcher.Stop()
	}

	// 事件流断了进程不退,设备 gauge 和已累计的计数继续可抓
	var transfers <-chan model.TransferEvent
	usbTracer, err := tracer.New(cfg.UsbmonPath, cfg.MonitorBus)
	if err != nil {
		sysutil.Log.Error("usbmon stream unavailable", zap.Error(err))
	} else {
		usbTracer.Start()
		defer usbTracer.Stop()
		transfers = usbTracer.Events()
	}

	// 捕获操作系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case ev, ok := <-transfers:
			if !ok {
				// 流到头了(内核把 usbmon 收了),其余照常跑
				sysutil.Log.Warn("usbmon stream closed, no more transfer events")
				transfers = nil
				continue
			}
			observeTransfer(collector, store.Lookup, ev)

		case plug := <-plugEvents:
			if plug.Action == "add" {
				sysutil.Log.Info("✅ USB Connected",
					zap.String("devpath", plug.DevPath),
					zap.String("vid", plug.VendorID),
					zap.String("pid", plug.ProductID),
				)
			} else {
				sysutil.Log.Info("❌ USB Removed", zap.String("devpath", plug.DevPath))
			}
			refresher.TriggerRefresh()

		case <-sigCh:
			sysutil.Log.Info("Shutting down...")
			return nil
		}
	}
}

// observeTransfer 指标写入和解析一样按行兜底:
// 一条脏事件只记日志,采集流不中断
func observeTransfer(c *metrics.Collector, lookup func(bus, device int) model.DeviceRecord, ev model.TransferEvent) {
	defer func() {
		if r := recover(); r != nil {
			sysutil.Log.Error("transfer aggregation panicked",
				zap.Any("panic", r), zap.Any("event", ev))
		}
	}()
	c.ObserveTransfer(ev, lookup)
}
