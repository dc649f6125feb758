package tracer

import (
	"bytes"
	"strings"

	"github.com/Hara602/usbExporter/internal/model"
)

// Tracer 从内核 usbmon 文本接口持续读传输事件
type Tracer interface {
	Start()
	Stop()
	Events() <-chan model.TransferEvent
}

// New 打开 root 下指定总线的事件流,总线 "0u" 聚合整机所有总线
func New(root, bus string) (Tracer, error) {
	return newTracer(root, bus)
}

// 攒着的半行超过这个数只可能是垃圾,直接丢
const maxPendingLine = 64 * 1024

// splitLines 取出 buf 里的完整行,剩下的半行返回给调用方接着攒。
// usbmon 一次 read 给一条完整记录,但这里不赌这一点。
func splitLines(buf []byte) (pending []byte, lines []string) {
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			if len(buf) > maxPendingLine {
				return nil, lines
			}
			return buf, lines
		}
		if line := strings.TrimSpace(string(buf[:i])); line != "" {
			lines = append(lines, line)
		}
		buf = buf[i+1:]
	}
}
