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

package pktmgr

import (
	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/daq"
)

// EncodeNew 分配响应/克隆用 Packet 及其独立缓冲区
//
// 缓冲区按 PktMax 预留 由调用方在 EncodeFormat 时填充
func EncodeNew() *codec.Packet {
	p := codec.NewPacket()
	p.Hdr = &daq.PktHdr{}
	p.Buf = make([]byte, 0, codec.PktMax)
	return p
}

// mappedCodec 解析某一层对应的 codec 下标
//
// 第 0 层是链路层 不携带协议号 使用 grinder
func (t *ThreadCtx) mappedCodec(p *codec.Packet, i int) uint8 {
	if i == 0 {
		return t.grinder
	}
	return t.mgr.protoMap[p.Layers[i].ProtID]
}

// EncodeResponse 基于已解码的数据包合成一个响应帧
//
// 编码分两趟 先自外而内解析各层 codec 这一趟不改写任何字段 再自内而外
// 让每个 codec 向缓冲区头部填充自己的头部 任何一层编码失败都会
// 使整个响应作废 返回 nil
//
// 返回的字节切片指向线程 scratch 缓冲区 下一次 encode 前有效
func (t *ThreadCtx) EncodeResponse(
	typ codec.EncodeType, flags codec.EncodeFlags, p *codec.Packet, payload []byte,
) []byte {
	if t.encodePkt != nil {
		p = t.encodePkt
	}
	if p.NumLayers() == 0 {
		return nil
	}

	enc := &codec.EncState{
		Type:      typ,
		Flags:     flags,
		P:         p,
		Payload:   payload,
		NextProto: codec.ProtoFinished,
	}

	// 第一趟 自外而内解析各层 codec 任何缺失立即终止
	var idxs [codec.LayerMax]uint8
	for i := 0; i < p.NumLayers(); i++ {
		idx := t.mappedCodec(p, i)
		if t.mgr.protocols[idx] == nil {
			return nil
		}
		idxs[i] = idx
	}

	// 第二趟 自内而外逐层编码 外层写入时内层长度已知
	buf := codec.NewBuffer(t.scratch[:])
	for i := p.NumLayers() - 1; i >= 0; i-- {
		enc.Layer = i
		cd := t.mgr.protocols[idxs[i]]
		if !cd.Encode(enc, buf, p.LayerBytes(i)) {
			return nil
		}
	}

	return buf.Bytes()
}

// EncodeFormatWithDaqInfo 克隆数据包 使其能以伪包身份重新进入检测
//
// 原始字节复制到所选最内层为止 然后自外而内调用各 codec 的 Format
// 操作 使外层头部反映新的内层载荷 克隆的捕获元信息取自 phdr
// EncFlagNet 置位时复制止步于最内层 IP 层
//
// 头部总长侵占 MaxIPPacket 预留空间时返回错误 表示不产出克隆
func (t *ThreadCtx) EncodeFormatWithDaqInfo(
	flags codec.EncodeFlags, p *codec.Packet, c *codec.Packet,
	ptype codec.PseudoType, phdr *daq.PktHdr, opaque uint32,
) error {
	numLayers := p.NumLayers()
	if numLayers <= 0 {
		return newError("no layers to format")
	}

	hdr := c.Hdr
	buf := c.Buf
	c.Reset(hdr, nil)
	c.Buf = buf[:0]

	// 克隆不继承硬件校验标记
	c.Hdr.IngressIndex = phdr.IngressIndex
	c.Hdr.IngressGroup = phdr.IngressGroup
	c.Hdr.EgressIndex = phdr.EgressIndex
	c.Hdr.EgressGroup = phdr.EgressGroup
	c.Hdr.Flags = phdr.Flags &^ daq.FlagHwTCPCsGood
	c.Hdr.AddressSpaceID = phdr.AddressSpaceID
	c.Hdr.Opaque = opaque

	if flags&codec.EncFlagNet != 0 {
		inner := p.InnerIPLayer()
		if inner < 0 {
			return newError("no ip layer to format")
		}
		numLayers = inner + 1
	}

	last := p.Layers[numLayers-1]
	length := last.Start + uint32(last.Length)
	if length >= codec.PktMax-codec.MaxIPPacket {
		return newError("formatted headers too large: %d", length)
	}

	c.Buf = append(c.Buf, p.Buf[:length]...)

	// 必须自外而内 format 以保证外层 IP 头始终有效
	for i := 0; i < numLayers; i++ {
		src := p.Layers[i]
		c.Layers = append(c.Layers, src)
		lyr := &c.Layers[i]

		cd := t.mgr.protocols[t.mappedCodec(p, i)]
		if cd != nil {
			cd.Format(flags, p, c, lyr)
		}
	}

	c.SetPayload(length)
	c.MaxDsize = codec.MaxIPPacket - length
	c.ProtoBits = p.ProtoBits
	c.PacketFlags |= codec.PktPseudo
	c.PseudoType = ptype
	c.UserPolicyID = p.UserPolicyID

	c.Hdr.CapLen = length
	c.Hdr.PktLen = length
	c.Hdr.Ts = p.Hdr.Ts

	t.rebuiltPkts++
	return nil
}

// EncodeFormat 捕获元信息取自原始包的克隆入口
func (t *ThreadCtx) EncodeFormat(
	flags codec.EncodeFlags, p *codec.Packet, c *codec.Packet, ptype codec.PseudoType,
) error {
	return t.EncodeFormatWithDaqInfo(flags, p, c, ptype, p.Hdr, p.Hdr.Opaque)
}

// EncodeUpdate 自内而外重算各层的长度与校验和字段
//
// 数据包被修改后才需要调用 长度始终重新设置 比逐次判断是否需要更划算
// 未修改或被重新定长的包会用累计值覆写捕获头的 caplen/pktlen
func (t *ThreadCtx) EncodeUpdate(p *codec.Packet) {
	// 累计值以载荷长度起步 每个 codec 只负责加上自己的头部长度
	length := uint32(p.Dsize)

	for i := p.NumLayers() - 1; i >= 0; i-- {
		cd := t.mgr.protocols[t.mappedCodec(p, i)]
		if cd != nil {
			cd.Update(p, &p.Layers[i], &length)
		}
	}

	if p.PacketFlags&codec.PktModified == 0 || p.PacketFlags&codec.PktResized != 0 {
		p.Hdr.CapLen = length
		p.Hdr.PktLen = length
	}
}
