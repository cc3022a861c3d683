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
	"encoding/binary"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/telemetry"
)

// 测试用的最小化 codec 集合 只实现测试场景需要的字段

const (
	ethHdrLen  = 14
	ip4HdrLen  = 20
	ip6HdrLen  = 40
	udpHdrLen  = 8
	dltEther   = int32(1)
	testDLTRaw = int32(12)
)

type ethCodec struct{}

func (ethCodec) Name() string                 { return "eth" }
func (ethCodec) ProtoTag() codec.Tag          { return codec.TagLink }
func (ethCodec) ProtocolIDs() []codec.ProtoID { return nil }
func (ethCodec) DataLinkTypes() []int32       { return []int32{dltEther} }

func (ethCodec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < ethHdrLen {
		return codec.Decoded{}, false
	}
	// Ethernet II 要求 ethertype >= 0x0600 否则拒绝
	ethType := binary.BigEndian.Uint16(raw[12:14])
	if ethType < 0x0600 {
		return codec.Decoded{}, false
	}
	return codec.Decoded{
		LyrLen:     ethHdrLen,
		NextProtID: codec.ProtoID(ethType),
	}, true
}

func (ethCodec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(ethHdrLen)
	if !ok {
		return false
	}
	copy(hdr, orig)
	if enc.Flags&codec.EncFlagFwd == 0 {
		copy(hdr[0:6], orig[6:12])
		copy(hdr[6:12], orig[0:6])
	}
	return true
}

func (ethCodec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (ethCodec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	*length += ethHdrLen
}

type ip4Codec struct{}

func (ip4Codec) Name() string                 { return "ipv4" }
func (ip4Codec) ProtoTag() codec.Tag          { return codec.TagIP4 }
func (ip4Codec) ProtocolIDs() []codec.ProtoID { return []codec.ProtoID{codec.ProtoEtherIP4} }
func (ip4Codec) DataLinkTypes() []int32       { return nil }

func (ip4Codec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < ip4HdrLen {
		return codec.Decoded{}, false
	}
	if pkt.ProtoBits&(codec.BitIP4|codec.BitIP6) != 0 {
		pkt.Encapsulations++
	}
	return codec.Decoded{
		LyrLen:     uint16(raw[0]&0x0F) * 4,
		NextProtID: codec.ProtoID(raw[9]),
	}, true
}

func (ip4Codec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(ip4HdrLen)
	if !ok {
		return false
	}
	copy(hdr, orig[:ip4HdrLen])
	if enc.Flags&codec.EncFlagFwd == 0 {
		copy(hdr[12:16], orig[16:20])
		copy(hdr[16:20], orig[12:16])
	}
	binary.BigEndian.PutUint16(hdr[2:4], uint16(buf.Len()))
	return true
}

func (ip4Codec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {
	// 克隆包的总长度反映新的内层载荷
	raw := dst.Buf[lyr.Start : lyr.Start+uint32(lyr.Length)]
	binary.BigEndian.PutUint16(raw[2:4], uint16(uint32(len(dst.Buf))-lyr.Start))
}

func (ip4Codec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	*length += uint32(lyr.Length)
	raw := pkt.Buf[lyr.Start : lyr.Start+uint32(lyr.Length)]
	binary.BigEndian.PutUint16(raw[2:4], uint16(*length))
}

type ip6Codec struct{}

func (ip6Codec) Name() string        { return "ipv6" }
func (ip6Codec) ProtoTag() codec.Tag { return codec.TagIP6 }
func (ip6Codec) ProtocolIDs() []codec.ProtoID {
	return []codec.ProtoID{codec.ProtoEtherIP6, codec.ProtoIP6Encap}
}
func (ip6Codec) DataLinkTypes() []int32 { return nil }

func (ip6Codec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < ip6HdrLen {
		return codec.Decoded{}, false
	}
	if pkt.ProtoBits&(codec.BitIP4|codec.BitIP6) != 0 {
		pkt.Encapsulations++
	}
	return codec.Decoded{
		LyrLen:     ip6HdrLen,
		NextProtID: codec.ProtoID(raw[6]),
	}, true
}

func (ip6Codec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(ip6HdrLen)
	if !ok {
		return false
	}
	copy(hdr, orig[:ip6HdrLen])
	return true
}

func (ip6Codec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (ip6Codec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	*length += ip6HdrLen
}

type udpCodec struct{}

func (udpCodec) Name() string                 { return "udp" }
func (udpCodec) ProtoTag() codec.Tag          { return codec.TagUDP }
func (udpCodec) ProtocolIDs() []codec.ProtoID { return []codec.ProtoID{codec.ProtoUDP} }
func (udpCodec) DataLinkTypes() []int32       { return nil }

func (udpCodec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < udpHdrLen {
		return codec.Decoded{}, false
	}
	return codec.Decoded{
		LyrLen:     udpHdrLen,
		NextProtID: codec.ProtoFinished,
	}, true
}

func (udpCodec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(udpHdrLen)
	if !ok {
		return false
	}
	copy(hdr, orig[:udpHdrLen])
	return true
}

func (udpCodec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (udpCodec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	raw := pkt.Buf[lyr.Start : lyr.Start+uint32(lyr.Length)]
	binary.BigEndian.PutUint16(raw[4:6], uint16(*length+udpHdrLen))
	*length += udpHdrLen
}

type tcpCodec struct{}

func (tcpCodec) Name() string                 { return "tcp" }
func (tcpCodec) ProtoTag() codec.Tag          { return codec.TagTCP }
func (tcpCodec) ProtocolIDs() []codec.ProtoID { return []codec.ProtoID{codec.ProtoTCP} }
func (tcpCodec) DataLinkTypes() []int32       { return nil }

func (tcpCodec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < 20 {
		return codec.Decoded{}, false
	}
	lyrLen := uint16(raw[12]>>4) * 4
	if lyrLen < 20 || int(lyrLen) > len(raw) {
		return codec.Decoded{}, false
	}
	return codec.Decoded{
		LyrLen:     lyrLen,
		NextProtID: codec.ProtoFinished,
	}, true
}

func (tcpCodec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(20)
	if !ok {
		return false
	}
	copy(hdr, orig[:20])
	if enc.Flags&codec.EncFlagFwd == 0 {
		copy(hdr[0:2], orig[2:4])
		copy(hdr[2:4], orig[0:2])
	}
	if enc.Type == codec.EncTCPRst {
		hdr[13] = FlagTCPRst | FlagTCPAck
	}
	hdr[12] = 5 << 4
	return true
}

const (
	FlagTCPRst = 0x04
	FlagTCPAck = 0x10
)

func (tcpCodec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (tcpCodec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	*length += uint32(lyr.Length)
}

// tunCodec 不确定封装的隧道层 用于 ESP 信任路径测试
type tunCodec struct{}

func (tunCodec) Name() string                 { return "tun" }
func (tunCodec) ProtoTag() codec.Tag          { return codec.TagGRE }
func (tunCodec) ProtocolIDs() []codec.ProtoID { return []codec.ProtoID{codec.ProtoGRE} }
func (tunCodec) DataLinkTypes() []int32       { return nil }

func (tunCodec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	if len(raw) < 4 {
		return codec.Decoded{}, false
	}
	pkt.DecodeFlags |= codec.DecodeUnsureEncap
	return codec.Decoded{
		LyrLen:     4,
		NextProtID: codec.ProtoID(binary.BigEndian.Uint16(raw[2:4])),
	}, true
}

func (tunCodec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	hdr, ok := buf.Prepend(4)
	if !ok {
		return false
	}
	copy(hdr, orig[:4])
	return true
}

func (tunCodec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (tunCodec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {
	*length += 4
}

func simpleAPI(name string, cd codec.Codec) *codec.API {
	return &codec.API{
		Name:    name,
		Version: "v1",
		Ctor:    func(opts common.Options) codec.Codec { return cd },
		Dtor:    func(codec.Codec) {},
	}
}

// newTestManager 构造带全套测试 codec 的 Manager
func newTestManager(cfg Config, events telemetry.Sink) (*Manager, *codec.API) {
	defaultAPI := simpleAPI("eth", ethCodec{})

	mgr, err := New(cfg, defaultAPI, events)
	if err != nil {
		panic(err)
	}

	for _, api := range []*codec.API{
		simpleAPI("ipv4", ip4Codec{}),
		simpleAPI("ipv6", ip6Codec{}),
		simpleAPI("udp", udpCodec{}),
		simpleAPI("tcp", tcpCodec{}),
		simpleAPI("tun", tunCodec{}),
	} {
		if err := mgr.Register(api); err != nil {
			panic(err)
		}
	}
	if err := mgr.InstantiateAll(); err != nil {
		panic(err)
	}
	return mgr, defaultAPI
}
