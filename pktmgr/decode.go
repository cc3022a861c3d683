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
	"github.com/sensord/sensord/common/socket"
	"github.com/sensord/sensord/daq"
)

var socketTupleNone = socket.TupleRaw{}

// 解码事件名称
const (
	EventTooManyLayers    = "too_many_layers"
	EventMultipleEncap    = "ip_multiple_encapsulation"
	EventIP6UnorderedExts = "ipv6_unordered_extensions"
)

// Decode 将原始帧解码为带层序列的 Packet
//
// Decode 从不失败 任何异常都体现为计数与标记 数据包总会带着
// 已成功解码的层继续进入后续检测
//
// 返回后满足
// * 载荷指针落在缓冲区内 Dsize 等于未被任何层消费的字节数
// * 层数不超过 LayerMax
func (t *ThreadCtx) Decode(p *codec.Packet, hdr *daq.PktHdr, raw []byte) {
	if uint32(len(raw)) > hdr.CapLen {
		raw = raw[:hdr.CapLen]
	}
	if uint32(len(raw)) > t.mgr.cfg.SnapLen {
		raw = raw[:t.mgr.cfg.SnapLen]
	}
	p.Reset(hdr, raw)
	t.stats[statTotal]++

	var (
		mapped     = t.grinder
		prevProtID = codec.ProtoFinished
		off        uint32
		truncated  bool
	)

	// 逐层剥离协议头 直到某个 codec 拒绝解码或层数达到上限
	for {
		cd := t.mgr.protocols[mapped]
		dec, ok := cd.Decode(raw[off:], p)
		if !ok {
			break
		}

		// 层数检查必须先于 push 到达上限的那一层不再入栈
		if p.NumLayers() == codec.LayerMax {
			t.mgr.emit(EventTooManyLayers)
			truncated = true
			break
		}

		p.PushLayer(cd.ProtoTag(), prevProtID, off, dec.LyrLen)
		t.stats[statOffset+int(mapped)]++

		prevProtID = dec.NextProtID
		mapped = t.mgr.protoMap[dec.NextProtID]
		off += uint32(dec.LyrLen)
	}

	// prevProtID 未回到哨兵值 说明是某个 codec 拒绝了解码
	if !truncated && prevProtID != codec.ProtoFinished {
		if p.DecodeFlags&codec.DecodeUnsureEncap == 0 {
			if t.mgr.protoMap[prevProtID] != 0 {
				t.stats[statDiscards]++
			} else {
				t.stats[statOther]++
			}
		} else if prevProtID == codec.ProtoESP {
			// 不确定封装中 仅当拒绝解码的那一层为 ESP 时才信任放行
			p.PacketFlags |= codec.PktTrust
		}
	}

	if t.mgr.cfg.MaxEncapsulations != -1 &&
		int(p.Encapsulations) > t.mgr.cfg.MaxEncapsulations {
		t.mgr.emit(EventMultipleEncap)
	}

	if len(p.IP6Exts) > 0 && !ip6ExtensionsOrdered(p.IP6Exts) {
		t.mgr.emit(EventIP6UnorderedExts)
	}

	if !truncated {
		t.stats[statOffset+int(mapped)]++
	}
	p.SetPayload(off)
}

// ip6ExtOrder RFC 8200 建议的扩展头出现次序
//
// Destination Options 允许出现两次 位于 Routing 之前或载荷之前
func ip6ExtOrder(id codec.ProtoID, routingLater bool) int {
	switch id {
	case codec.ProtoIP6HopOpts:
		return 1
	case codec.ProtoIP6DstOpts:
		if routingLater {
			return 2
		}
		return 7
	case codec.ProtoIP6Routing:
		return 3
	case codec.ProtoIP6Frag:
		return 4
	case codec.ProtoAH:
		return 5
	case codec.ProtoESP:
		return 6
	}
	return 8
}

func ip6ExtensionsOrdered(exts []codec.ProtoID) bool {
	last := 0
	for i, id := range exts {
		routingLater := false
		for _, later := range exts[i+1:] {
			if later == codec.ProtoIP6Routing {
				routingLater = true
				break
			}
		}

		order := ip6ExtOrder(id, routingLater)
		if order < last {
			return false
		}
		last = order
	}
	return true
}
