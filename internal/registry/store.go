package registry

import (
	"sync"

	"github.com/Hara602/usbExporter/internal/model"
)

// Store 设备描述缓存,key 为捕获时刻的 总线号+设备地址。
// 只有刷新协程写,事件侧并发读;写入是整张表原子替换,
// 读方要么看到上一轮快照,要么看到新一轮,不会看到半成品。
type Store struct {
	mu      sync.RWMutex
	devices map[model.DeviceKey]model.DeviceRecord
}

func NewStore() *Store {
	return &Store{devices: make(map[model.DeviceKey]model.DeviceRecord)}
}

// Lookup 永不失败:查不到就给占位记录,事件计数不等设备枚举
func (s *Store) Lookup(bus, device int) model.DeviceRecord {
	s.mu.RLock()
	rec, ok := s.devices[model.DeviceKey{Bus: bus, Device: device}]
	s.mu.RUnlock()
	if !ok {
		return model.UnknownDevice(bus, device)
	}
	return rec
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// replace 整表换掉,拔掉的设备随旧表一起消失
func (s *Store) replace(devices map[model.DeviceKey]model.DeviceRecord) {
	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()
}
