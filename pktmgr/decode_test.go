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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/daq"
	"github.com/sensord/sensord/telemetry"
)

// recordSink 捕获遥测事件的测试 sink
type recordSink struct {
	records []telemetry.Record
}

func (rs *recordSink) Emit(rec telemetry.Record) {
	rs.records = append(rs.records, rec)
}

func (rs *recordSink) names() []string {
	var s []string
	for _, r := range rs.records {
		s = append(s, r.Name)
	}
	return s
}

func makeHdr(raw []byte) *daq.PktHdr {
	return &daq.PktHdr{
		CapLen: uint32(len(raw)),
		PktLen: uint32(len(raw)),
	}
}

// makeEthIPv4Frame 构造 Ethernet/IPv4 帧 transport 部分由调用方给定
func makeEthIPv4Frame(proto uint8, transport []byte) []byte {
	frame := make([]byte, 0, ethHdrLen+ip4HdrLen+len(transport))

	eth := make([]byte, ethHdrLen)
	copy(eth[0:6], []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01})
	copy(eth[6:12], []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02})
	binary.BigEndian.PutUint16(eth[12:14], uint16(codec.ProtoEtherIP4))
	frame = append(frame, eth...)

	ip := make([]byte, ip4HdrLen)
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(ip4HdrLen+len(transport)))
	ip[8] = 64
	ip[9] = proto
	copy(ip[12:16], []byte{10, 0, 0, 1})
	copy(ip[16:20], []byte{10, 0, 0, 2})
	frame = append(frame, ip...)

	return append(frame, transport...)
}

func makeUDPTransport(payload []byte) []byte {
	udp := make([]byte, udpHdrLen)
	binary.BigEndian.PutUint16(udp[0:2], 5353)
	binary.BigEndian.PutUint16(udp[2:4], 53)
	binary.BigEndian.PutUint16(udp[4:6], uint16(udpHdrLen+len(payload)))
	return append(udp, payload...)
}

func makeTCPTransport(payload []byte) []byte {
	tcp := make([]byte, 20)
	binary.BigEndian.PutUint16(tcp[0:2], 43210)
	binary.BigEndian.PutUint16(tcp[2:4], 80)
	binary.BigEndian.PutUint32(tcp[4:8], 1000)
	binary.BigEndian.PutUint32(tcp[8:12], 2000)
	tcp[12] = 5 << 4
	tcp[13] = FlagTCPAck
	binary.BigEndian.PutUint16(tcp[14:16], 8192)
	return append(tcp, payload...)
}

func TestDecodeEthIPv4UDP(t *testing.T) {
	sink := &recordSink{}
	mgr, _ := newTestManager(Config{}, sink)
	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	payload := make([]byte, 18)
	raw := makeEthIPv4Frame(uint8(codec.ProtoUDP), makeUDPTransport(payload))
	require.Equal(t, 60, len(raw))

	pkt := codec.NewPacket()
	tctx.Decode(pkt, makeHdr(raw), raw)

	assert.Equal(t, 3, pkt.NumLayers())
	assert.Equal(t, uint16(18), pkt.Dsize)
	assert.Equal(t, uint32(42), pkt.Data)
	assert.Empty(t, sink.records)

	// 层覆盖不变量 各层长度之和加载荷等于 caplen
	var total uint32
	for i := 0; i < pkt.NumLayers(); i++ {
		total += uint32(pkt.Layers[i].Length)
	}
	assert.Equal(t, uint32(len(raw)), total+uint32(pkt.Dsize))

	// total 与三个 codec 的计数各自加一
	assert.Equal(t, uint64(1), tctx.stats[statTotal])
	assert.Equal(t, uint64(0), tctx.stats[statOther])
	assert.Equal(t, uint64(0), tctx.stats[statDiscards])

	var codecPegs int
	for i := statOffset + 1; i < len(tctx.stats); i++ {
		codecPegs += int(tctx.stats[i])
	}
	assert.Equal(t, 3, codecPegs)
}

func TestDecodeUnknownNextProtocol(t *testing.T) {
	mgr, _ := newTestManager(Config{}, nil)
	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	// protocol 253 为保留测试协议号 无 codec 声明
	body := make([]byte, 19)
	for i := range body {
		body[i] = 0x01
	}
	raw := makeEthIPv4Frame(253, body)

	pkt := codec.NewPacket()
	tctx.Decode(pkt, makeHdr(raw), raw)

	assert.Equal(t, 2, pkt.NumLayers())
	assert.Equal(t, uint64(1), tctx.stats[statOther])
	assert.Equal(t, uint64(0), tctx.stats[statDiscards])
	assert.Equal(t, uint16(19), pkt.Dsize)
}

func TestDecodeRefusedKnownProtocol(t *testing.T) {
	mgr, _ := newTestManager(Config{}, nil)
	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	// UDP 头不足 8 字节 codec 拒绝解码 计入 discards
	raw := makeEthIPv4Frame(uint8(codec.ProtoUDP), []byte{0x01, 0x02})

	pkt := codec.NewPacket()
	tctx.Decode(pkt, makeHdr(raw), raw)

	assert.Equal(t, uint64(1), tctx.stats[statDiscards])
	assert.Equal(t, uint64(0), tctx.stats[statOther])
	assert.Equal(t, uint16(2), pkt.Dsize)
}

func TestDecodeOverNestedEncapsulation(t *testing.T) {
	sink := &recordSink{}
	mgr, _ := newTestManager(Config{}, sink)
	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	// 40 层 IPv6-in-IPv6 嵌套 超过默认 maxEncapsulations=4
	// 同时也会触及 LayerMax 解码应当完成且两个事件均产生
	const nested = 40
	frame := make([]byte, 0, ethHdrLen+nested*ip6HdrLen)

	eth := make([]byte, ethHdrLen)
	binary.BigEndian.PutUint16(eth[12:14], uint16(codec.ProtoEtherIP6))
	frame = append(frame, eth...)

	for i := 0; i < nested; i++ {
		ip6 := make([]byte, ip6HdrLen)
		ip6[0] = 0x60
		ip6[6] = uint8(codec.ProtoIP6Encap)
		frame = append(frame, ip6...)
	}

	pkt := codec.NewPacket()
	tctx.Decode(pkt, makeHdr(frame), frame)

	assert.Equal(t, codec.LayerMax, pkt.NumLayers())
	assert.Contains(t, sink.names(), EventTooManyLayers)
	assert.Contains(t, sink.names(), EventMultipleEncap)
}

func TestDecodeESPTrustPath(t *testing.T) {
	mgr, _ := newTestManager(Config{}, nil)
	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	// tun 层置位 UnsureEncap 并声明下一层为 ESP ESP 无 codec 可解
	tun := make([]byte, 4)
	binary.BigEndian.PutUint16(tun[2:4], uint16(codec.ProtoESP))
	tun = append(tun, 0x01, 0x02, 0x03, 0x04)
	raw := makeEthIPv4Frame(uint8(codec.ProtoGRE), tun)

	pkt := codec.NewPacket()
	tctx.Decode(pkt, makeHdr(raw), raw)

	assert.NotZero(t, pkt.PacketFlags&codec.PktTrust)
	assert.Equal(t, uint64(0), tctx.stats[statDiscards])
	assert.Equal(t, uint64(0), tctx.stats[statOther])
}

func TestStatsAdditivity(t *testing.T) {
	mgr, _ := newTestManager(Config{}, nil)

	t1, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)
	t2, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)

	raw := makeEthIPv4Frame(uint8(codec.ProtoUDP), makeUDPTransport(make([]byte, 10)))
	for i := 0; i < 3; i++ {
		pkt := codec.NewPacket()
		t1.Decode(pkt, makeHdr(raw), raw)
	}
	for i := 0; i < 5; i++ {
		pkt := codec.NewPacket()
		t2.Decode(pkt, makeHdr(raw), raw)
	}

	want := make([]uint64, len(t1.stats))
	for i := range want {
		want[i] = t1.stats[i] + t2.stats[i]
	}

	t1.Term()
	t2.Term()

	mgr.mut.Lock()
	got := append([]uint64(nil), mgr.gstats...)
	mgr.mut.Unlock()
	assert.Equal(t, want, got)

	rows := mgr.DumpStats()
	assert.Equal(t, "total", rows[0].Name)
	assert.Equal(t, uint64(8), rows[0].Value)
}

func TestIP6ExtensionOrder(t *testing.T) {
	tests := []struct {
		name    string
		exts    []codec.ProtoID
		ordered bool
	}{
		{
			name:    "canonical order",
			exts:    []codec.ProtoID{codec.ProtoIP6HopOpts, codec.ProtoIP6Routing, codec.ProtoIP6Frag},
			ordered: true,
		},
		{
			name:    "hop by hop not first",
			exts:    []codec.ProtoID{codec.ProtoIP6Routing, codec.ProtoIP6HopOpts},
			ordered: false,
		},
		{
			name:    "dstopts before routing",
			exts:    []codec.ProtoID{codec.ProtoIP6DstOpts, codec.ProtoIP6Routing, codec.ProtoIP6DstOpts},
			ordered: true,
		},
		{
			name:    "frag before routing",
			exts:    []codec.ProtoID{codec.ProtoIP6Frag, codec.ProtoIP6Routing},
			ordered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ordered, ip6ExtensionsOrdered(tt.exts))
		})
	}
}
