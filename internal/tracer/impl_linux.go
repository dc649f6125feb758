//go:build linux

package tracer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/Hara602/usbExporter/internal/model"
	"github.com/Hara602/usbExporter/internal/parser"
	"github.com/Hara602/usbExporter/internal/sysutil"
)

type usbmonTracer struct {
	path   string
	fd     int
	events chan model.TransferEvent
	stop   chan struct{}
}

// newTracer 直接用裸 fd 读,usbmon 的文本接口一次 read 吐一条记录,
// 加了用户态缓冲反而会把相邻记录拼到一起延迟交付
func newTracer(root, bus string) (Tracer, error) {
	path := filepath.Join(root, bus)
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open usbmon stream %s failed: %v", path, err)
	}
	return &usbmonTracer{
		path:   path,
		fd:     fd,
		events: make(chan model.TransferEvent, 256),
		stop:   make(chan struct{}),
	}, nil
}

func (u *usbmonTracer) Start() {
	go u.readLoop()
}

func (u *usbmonTracer) readLoop() {
	defer close(u.events)

	sysutil.Log.Info("📡 usbmon stream attached", zap.String("path", u.path))

	var buf [4096]byte
	var pending []byte
	for {
		n, err := unix.Read(u.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			select {
			case <-u.stop:
				// Stop 关了 fd,读被打断是正常收尾
			default:
				sysutil.Log.Error("usbmon read failed, stream stopped",
					zap.String("path", u.path), zap.Error(err))
			}
			return
		}
		if n == 0 {
			sysutil.Log.Info("usbmon stream ended", zap.String("path", u.path))
			return
		}

		var lines []string
		pending, lines = splitLines(append(pending, buf[:n]...))
		for _, line := range lines {
			u.handleLine(line)
		}
	}
}

// handleLine 解析不动的行直接丢,裸读出来的半行很常见,
// 不值得为一行垃圾中断整条流
func (u *usbmonTracer) handleLine(line string) {
	defer func() {
		if r := recover(); r != nil {
			sysutil.Log.Error("usbmon line handling panicked",
				zap.Any("panic", r), zap.String("line", line))
		}
	}()

	// 裸读的流里偶尔夹二进制噪声,非法 UTF-8 先换成替换字符,
	// 脏字节不能流进指标标签
	line = strings.ToValidUTF8(line, string(utf8.RuneError))

	ev, ok := parser.Parse(line)
	if !ok {
		return
	}
	select {
	case u.events <- ev:
	case <-u.stop:
	}
}

func (u *usbmonTracer) Stop() {
	close(u.stop)
	unix.Close(u.fd)
}

func (u *usbmonTracer) Events() <-chan model.TransferEvent { return u.events }
