// Copyright 2025 The sensord Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tcp

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/sensord/sensord/codec"
)

func newError(format string, args ...any) error {
	format = "stream/tcp: " + format
	return errors.Errorf(format, args...)
}

// Direction segment 的传输方向
type Direction uint8

const (
	DirToServer Direction = iota
	DirToClient
)

// ActionFlags 状态机在 segment 处理过程中累积的处置标记
//
// 处理方法自身从不失败 处置意图全部体现在标记上
// 会话协调器在派发结束后统一消费
type ActionFlags uint32

const (
	// ActionDrop 数据包应被丢弃
	ActionDrop ActionFlags = 1 << iota

	// ActionRst 本 segment 为有效的连接重置
	ActionRst

	// ActionFlush 需要冲刷重组缓冲
	ActionFlush

	// ActionClosed 会话已被清理关闭
	ActionClosed
)

const (
	// tcpHdrMin TCP 固定头部长度
	tcpHdrMin = 20

	// optTimestamp RFC 7323 Timestamps 选项
	optTimestamp = 8
	optEnd       = 0
	optNop       = 1
)

// SegmentDescriptor 单个 TCP segment 的解析结果与处理过程状态
type SegmentDescriptor struct {
	Flow Flow
	Pkt  *codec.Packet
	Dir  Direction

	Seq     uint32
	Ack     uint32
	Wnd     uint16
	Flags   uint8
	DataLen uint16

	// TSVal Timestamps 选项值 PAWS 校验使用
	TSVal uint32
	HasTS bool

	Actions ActionFlags
}

// NewSegmentDescriptor 从已解码 Packet 的最内层 TCP 层构造描述符
//
// 数据包不含 TCP 层或 TCP 头部不完整时返回错误
func NewSegmentDescriptor(flow Flow, pkt *codec.Packet, dir Direction) (*SegmentDescriptor, error) {
	idx := -1
	for i := pkt.NumLayers() - 1; i >= 0; i-- {
		if pkt.Layers[i].Proto == codec.TagTCP {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, newError("packet has no tcp layer")
	}

	raw := pkt.LayerBytes(idx)
	if len(raw) < tcpHdrMin {
		return nil, newError("tcp header truncated: %d bytes", len(raw))
	}

	tsd := &SegmentDescriptor{
		Flow:    flow,
		Pkt:     pkt,
		Dir:     dir,
		Seq:     binary.BigEndian.Uint32(raw[4:8]),
		Ack:     binary.BigEndian.Uint32(raw[8:12]),
		Wnd:     binary.BigEndian.Uint16(raw[14:16]),
		Flags:   raw[13] & 0x3F,
		DataLen: pkt.Dsize,
	}
	tsd.parseTimestamp(raw)
	return tsd, nil
}

// parseTimestamp 扫描选项区提取 Timestamps 选项
func (tsd *SegmentDescriptor) parseTimestamp(raw []byte) {
	opts := raw[tcpHdrMin:]
	for len(opts) > 0 {
		switch opts[0] {
		case optEnd:
			return
		case optNop:
			opts = opts[1:]
		case optTimestamp:
			if len(opts) < 10 {
				return
			}
			tsd.TSVal = binary.BigEndian.Uint32(opts[2:6])
			tsd.HasTS = true
			return
		default:
			if len(opts) < 2 || int(opts[1]) < 2 || int(opts[1]) > len(opts) {
				return
			}
			opts = opts[opts[1]:]
		}
	}
}

// SetAction 追加处置标记
func (tsd *SegmentDescriptor) SetAction(f ActionFlags) {
	tsd.Actions |= f
}

// HasAction 返回处置标记是否被设置
func (tsd *SegmentDescriptor) HasAction(f ActionFlags) bool {
	return tsd.Actions&f != 0
}

// 序列号回绕安全比较
func seqGT(a, b uint32) bool {
	return int32(a-b) > 0
}

func seqGEQ(a, b uint32) bool {
	return int32(a-b) >= 0
}

func seqLT(a, b uint32) bool {
	return int32(a-b) < 0
}
