package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/Hara602/usbExporter/internal/model"
	"github.com/Hara602/usbExporter/internal/sysutil"
)

// Refresher 周期性重扫设备树并把新快照推给各个下游
// (指标发布、落库)。插拔事件可以催它提前刷,成串的
// 事件先攒一个稳定窗口再合并成一次扫描。
type Refresher struct {
	store  *Store
	root   string
	every  time.Duration
	settle time.Duration
	sinks  []func([]model.DeviceRecord)

	trigger chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func NewRefresher(store *Store, root string, every, settle time.Duration, sinks ...func([]model.DeviceRecord)) *Refresher {
	return &Refresher{
		store:   store,
		root:    root,
		every:   every,
		settle:  settle,
		sinks:   sinks,
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Refresh 立刻重扫一轮。扫描失败保留上一轮快照,下游也不重发;
// 下游抛异常就地记录,只废这一轮。
func (r *Refresher) Refresh() {
	defer func() {
		if rec := recover(); rec != nil {
			sysutil.Log.Error("device refresh panicked", zap.Any("panic", rec))
		}
	}()

	started := time.Now()
	devices, err := Scan(r.root)
	if err != nil {
		sysutil.Log.Error("device tree scan failed, keeping previous snapshot", zap.Error(err))
		return
	}
	r.store.replace(devices)

	snapshot := make([]model.DeviceRecord, 0, len(devices))
	for _, rec := range devices {
		snapshot = append(snapshot, rec)
	}
	for _, sink := range r.sinks {
		sink(snapshot)
	}

	sysutil.Log.Debug("device tree refreshed",
		zap.Int("devices", len(snapshot)),
		zap.Duration("took", time.Since(started)))
}

// Start 启动刷新协程:定时器兜底,插拔触发抢先
func (r *Refresher) Start() {
	go r.loop()
}

func (r *Refresher) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	// 稳定窗口定时器,平时停着,见到触发才上弦
	debounce := time.NewTimer(r.settle)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-r.stop:
			return

		case <-ticker.C:
			r.Refresh()

		case <-r.trigger:
			// 插拔往往连着来(hub 下一串设备),重新上弦合并成一次
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(r.settle)

		case <-debounce.C:
			r.Refresh()
		}
	}
}

// TriggerRefresh 请求尽快刷新。非阻塞,已有挂起的触发就直接合并。
func (r *Refresher) TriggerRefresh() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop 停掉刷新循环,等正在跑的那轮刷完才返回,
// 返回之后不会再写任何下游。
func (r *Refresher) Stop() {
	close(r.stop)
	<-r.done
}
