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

package codec

import (
	"github.com/sensord/sensord/daq"
)

const (
	// MaxIPPacket IP 报文理论最大长度
	MaxIPPacket = 65535

	// LinkOverhead 链路层封装预留的最大头部空间
	//
	// 覆盖以太网头 + 多层 VLAN/隧道封装 + IPv6 扩展头
	LinkOverhead = 514

	// PktMax Packet scratch 缓冲区上限
	//
	// 完整容纳一个最大 IP 报文再加上链路层开销
	// encode_format 要求克隆出的头部总长不得侵占 MaxIPPacket 空间
	PktMax = MaxIPPacket + LinkOverhead

	// LayerMax 单个数据包允许的最大嵌套层数
	LayerMax = 32
)

// Layer 一条已解码协议头在 Packet 缓冲区内的位置与跨度
//
// 只记录偏移不记录指针 Layer 仅在其 Packet 存活期间有效
type Layer struct {
	// Proto 解码本层的 codec 类型标签
	Proto Tag

	// ProtID 进入本层所使用的协议号 第 0 层为 ProtoFinished
	ProtID ProtoID

	// Start 头部起始偏移
	Start uint32

	// Length 头部长度
	Length uint16
}

// DecodeFlags
const (
	// DecodeUnsureEncap 当前处于不确定的封装层中
	//
	// 由隧道类 codec 置位 影响解码失败时的计数策略
	DecodeUnsureEncap uint16 = 1 << iota
)

// PacketFlags
const (
	// PktTrust 数据包被硬编码信任 不再进入检测
	PktTrust uint32 = 1 << iota

	// PktPseudo 由 encode_format 克隆出的合成包
	PktPseudo

	// PktModified 检测阶段修改过包内容
	PktModified

	// PktResized 修改导致长度变化
	PktResized

	// PktRebuilt 经过重组的数据包
	PktRebuilt
)

// PseudoType 合成包类型
type PseudoType uint8

const (
	PseudoNone PseudoType = iota

	// PseudoIP 分片重组出的完整 IP 报文
	PseudoIP

	// PseudoTCP 流重组出的伪 TCP 报文
	PseudoTCP
)

// Packet 一个被解码中或已解码的数据包
//
// Packet 独占其缓冲区 仅允许当前正在 decode/encode 它的线程修改
type Packet struct {
	// Hdr 捕获头 由捕获源或 encode 分配器提供
	Hdr *daq.PktHdr

	// Buf 原始帧字节 长度即 caplen
	Buf []byte

	// Layers 已解码层序列 最外层在前
	Layers []Layer

	// Data 载荷起始偏移 指向最后一层之后
	Data uint32

	// Dsize 载荷长度
	Dsize uint16

	DecodeFlags uint16
	PacketFlags uint32
	ProtoBits   uint32

	PseudoType   PseudoType
	UserPolicyID uint16

	// Encapsulations 隧道封装计数 由 IP 类 codec 维护
	Encapsulations uint8

	// IP6Exts 按出现顺序记录的 IPv6 扩展头协议号
	IP6Exts []ProtoID

	// MaxDsize 克隆包允许的最大载荷 由 encode_format 设置
	MaxDsize uint32
}

// NewPacket 创建空 Packet 层序列预分配到 LayerMax
func NewPacket() *Packet {
	return &Packet{
		Layers: make([]Layer, 0, LayerMax),
	}
}

// Reset 绑定新的捕获头与原始字节 清空所有逐包状态
func (p *Packet) Reset(hdr *daq.PktHdr, raw []byte) {
	p.Hdr = hdr
	p.Buf = raw
	p.Layers = p.Layers[:0]
	p.Data = 0
	p.Dsize = 0
	p.DecodeFlags = 0
	p.PacketFlags = 0
	p.ProtoBits = 0
	p.PseudoType = PseudoNone
	p.UserPolicyID = 0
	p.Encapsulations = 0
	p.IP6Exts = p.IP6Exts[:0]
	p.MaxDsize = 0
}

// NumLayers 已解码层数
func (p *Packet) NumLayers() int {
	return len(p.Layers)
}

// PushLayer 追加一条 Layer 并同步协议位图
//
// 调用方需保证层数未达 LayerMax
func (p *Packet) PushLayer(tag Tag, protID ProtoID, start uint32, length uint16) {
	p.Layers = append(p.Layers, Layer{
		Proto:  tag,
		ProtID: protID,
		Start:  start,
		Length: length,
	})
	p.ProtoBits |= tagBits[tag]
}

// SetPayload 记录载荷偏移 载荷长度为缓冲区剩余部分
func (p *Packet) SetPayload(off uint32) {
	if off > uint32(len(p.Buf)) {
		off = uint32(len(p.Buf))
	}
	p.Data = off
	p.Dsize = uint16(uint32(len(p.Buf)) - off)
}

// Payload 返回载荷字节
func (p *Packet) Payload() []byte {
	return p.Buf[p.Data : p.Data+uint32(p.Dsize)]
}

// LayerBytes 返回某一层的头部字节
func (p *Packet) LayerBytes(i int) []byte {
	lyr := p.Layers[i]
	return p.Buf[lyr.Start : lyr.Start+uint32(lyr.Length)]
}

// InnerIPLayer 返回最内层 IP 层的下标 不存在时返回 -1
func (p *Packet) InnerIPLayer() int {
	for i := len(p.Layers) - 1; i >= 0; i-- {
		if p.Layers[i].Proto.IsIP() {
			return i
		}
	}
	return -1
}

// RecordIP6Extension 由 IPv6 扩展头 codec 调用 记录扩展头出现顺序
func (p *Packet) RecordIP6Extension(id ProtoID) {
	p.IP6Exts = append(p.IP6Exts, id)
}
