package parser

import (
	"strconv"
	"strings"

	"github.com/Hara602/usbExporter/internal/model"
)

// 启发式扫描能接受的长度上限,再大的数字多半是时间戳或 URB 标签
const maxScanLength = 100000000

// Parse 解析一行 usbmon 文本。行格式松散,前五个字段固定:
//
//	URB标签 时间戳 事件类型 地址 状态 [长度与负载...]
//
// 地址形如 Ci:1:002:1,即 类别方向:总线:设备地址:端点。
// 裸读出来的半行、字段残缺的行一律返回 false,由调用方丢弃。
func Parse(line string) (model.TransferEvent, bool) {
	parts := strings.Fields(line)
	if len(parts) < 6 {
		return model.TransferEvent{}, false
	}

	addr := strings.Split(parts[3], ":")
	if len(addr) < 4 {
		return model.TransferEvent{}, false
	}
	typeField := addr[0]
	if typeField == "" {
		return model.TransferEvent{}, false
	}

	bus, ok := parseID(addr[1])
	if !ok {
		return model.TransferEvent{}, false
	}
	device, ok := parseID(addr[2])
	if !ok {
		return model.TransferEvent{}, false
	}

	dir := model.DirOut
	if len(typeField) > 1 && typeField[1] == 'i' {
		dir = model.DirIn
	}

	return model.TransferEvent{
		Type:     parts[2],
		Bus:      bus,
		Device:   device,
		Endpoint: addr[3],
		Dir:      dir,
		Kind:     model.KindFromMarker(typeField[0]),
		Status:   parts[4],
		DataLen:  dataLength(parts),
	}, true
}

// parseID 总线号和设备地址必须是十进制非负整数。
// 设备地址在行里带前导零 ("002"),这里顺手归一成 2,
// 和 sysfs 里 devnum 的写法对齐。
func parseID(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// dataLength 从负载部分提取传输字节数。已知两种行形态:
// 带数据的行有 "= 十六进制串" 标记,长度紧挨在 = 之前;
// 无数据的行没有 =,从第 6 个字段起找第一个像长度的整数。
// 两条路都落空就按 0 算,不因此判整行失败。
func dataLength(parts []string) int {
	for i, p := range parts {
		if p != "=" {
			continue
		}
		if i > 0 {
			if n, ok := parseLength(parts[i-1]); ok && n > 0 {
				return n
			}
		}
		return 0
	}

	for _, p := range parts[5:] {
		n, ok := parseLength(p)
		if !ok {
			continue
		}
		if n >= 0 && n < maxScanLength {
			return n
		}
	}
	return 0
}

// parseLength usbmon 里的长度从不写 '+' 号,strconv 接受的 "+5"
// 这里不算数字
func parseLength(tok string) (int, bool) {
	if tok == "" || tok[0] == '+' {
		return 0, false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}
