package model

import "time"

// usbmon 行第三个字段的事件标记
const (
	EventSubmit   = "S" // URB 提交
	EventComplete = "C" // 完成回调,携带最终状态和传输长度
	EventError    = "E" // 提交阶段出错
)

// Direction 传输方向,以主机为参照
type Direction int

const (
	DirOut Direction = iota // 主机 -> 设备
	DirIn                   // 设备 -> 主机
)

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}
	return "out"
}

// TransferKind USB 传输类别
type TransferKind int

const (
	KindControl TransferKind = iota
	KindIsochronous
	KindInterrupt
	KindBulk
	KindUnknown
)

var kindNames = map[TransferKind]string{
	KindControl:     "control",
	KindIsochronous: "isochronous",
	KindInterrupt:   "interrupt",
	KindBulk:        "bulk",
	KindUnknown:     "unknown",
}

func (k TransferKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFromMarker 地址字段首字符到传输类别的映射 (usbmon 记法)
func KindFromMarker(c byte) TransferKind {
	switch c {
	case 'C':
		return KindControl
	case 'Z':
		return KindIsochronous
	case 'I':
		return KindInterrupt
	case 'B':
		return KindBulk
	}
	return KindUnknown
}

// TransferEvent 一条 usbmon 记录解析后的结果,只描述这一行本身
type TransferEvent struct {
	Type     string // "S", "C", "E"
	Bus      int
	Device   int
	Endpoint string
	Dir      Direction
	Kind     TransferKind
	Status   string // "0" 为成功,其余是错误码
	DataLen  int    // 传输字节数,行里找不到就是 0
}

// IsCompletion 只有完成回调才有权威的状态和长度
func (e TransferEvent) IsCompletion() bool { return e.Type == EventComplete }

// HotplugEvent 总线插拔动作,由 udev netlink 上报
type HotplugEvent struct {
	Action    string // "add", "remove"
	DevPath   string
	VendorID  string
	ProductID string
	TimeStamp time.Time
}
