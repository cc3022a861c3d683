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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/daq"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		flags    uint8
		dataLen  uint16
		wantSent Event
		wantRecv Event
	}{
		{name: "syn", flags: FlagSYN, wantSent: EventSynSent, wantRecv: EventSynRecv},
		{name: "syn ack", flags: FlagSYN | FlagACK, wantSent: EventSynAckSent, wantRecv: EventSynAckRecv},
		{name: "ack", flags: FlagACK, wantSent: EventAckSent, wantRecv: EventAckRecv},
		{name: "data", flags: FlagACK | FlagPSH, dataLen: 32, wantSent: EventDataSegSent, wantRecv: EventDataSegRecv},
		{name: "fin", flags: FlagFIN | FlagACK, wantSent: EventFinSent, wantRecv: EventFinRecv},
		{name: "rst", flags: FlagRST | FlagACK, wantSent: EventRstSent, wantRecv: EventRstRecv},
		{name: "null", flags: 0, wantSent: EventNone, wantRecv: EventNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsd := &SegmentDescriptor{Flags: tt.flags, DataLen: tt.dataLen}
			assert.Equal(t, tt.wantSent, classify(tsd, true))
			assert.Equal(t, tt.wantRecv, classify(tsd, false))
		})
	}
}

// makeTCPLayerPacket 构造带单个 TCP 层的 Packet
func makeTCPLayerPacket(flags uint8, withTS bool) *codec.Packet {
	hdrLen := 20
	if withTS {
		hdrLen += 12
	}

	raw := make([]byte, hdrLen+4)
	binary.BigEndian.PutUint16(raw[0:2], 40000)
	binary.BigEndian.PutUint16(raw[2:4], 443)
	binary.BigEndian.PutUint32(raw[4:8], 12345)
	binary.BigEndian.PutUint32(raw[8:12], 67890)
	raw[12] = uint8(hdrLen/4) << 4
	raw[13] = flags
	binary.BigEndian.PutUint16(raw[14:16], 1024)

	if withTS {
		opts := raw[20:]
		opts[0] = optNop
		opts[1] = optNop
		opts[2] = optTimestamp
		opts[3] = 10
		binary.BigEndian.PutUint32(opts[4:8], 777)
	}

	pkt := codec.NewPacket()
	pkt.Reset(&daq.PktHdr{CapLen: uint32(len(raw))}, raw)
	pkt.PushLayer(codec.TagTCP, codec.ProtoTCP, 0, uint16(hdrLen))
	pkt.SetPayload(uint32(hdrLen))
	return pkt
}

func TestNewSegmentDescriptor(t *testing.T) {
	pkt := makeTCPLayerPacket(FlagACK|FlagPSH, false)
	flow := &fakeFlow{}

	tsd, err := NewSegmentDescriptor(flow, pkt, DirToServer)
	require.NoError(t, err)

	assert.Equal(t, uint32(12345), tsd.Seq)
	assert.Equal(t, uint32(67890), tsd.Ack)
	assert.Equal(t, uint16(1024), tsd.Wnd)
	assert.Equal(t, FlagACK|FlagPSH, tsd.Flags)
	assert.Equal(t, uint16(4), tsd.DataLen)
	assert.False(t, tsd.HasTS)
}

func TestNewSegmentDescriptorTimestamps(t *testing.T) {
	pkt := makeTCPLayerPacket(FlagACK, true)
	flow := &fakeFlow{}

	tsd, err := NewSegmentDescriptor(flow, pkt, DirToClient)
	require.NoError(t, err)

	assert.True(t, tsd.HasTS)
	assert.Equal(t, uint32(777), tsd.TSVal)
}

func TestNewSegmentDescriptorNoTCPLayer(t *testing.T) {
	pkt := codec.NewPacket()
	pkt.Reset(&daq.PktHdr{}, nil)

	_, err := NewSegmentDescriptor(&fakeFlow{}, pkt, DirToServer)
	assert.Error(t, err)
}
