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

// Tracker 半流追踪器 记录一端视角下的连接状态与序号簿记
//
// 一个会话持有两个 Tracker 分别对应客户端与服务端
// 新建 Tracker 处于 StateClosed 即 `尚无连接`
type Tracker struct {
	client bool

	state State
	event Event

	// iss/irs 本端初始发送序号与对端初始序号
	iss uint32
	irs uint32

	// sndUna 最早未被确认的发送序号
	// sndNxt 下一个待发送序号
	sndUna uint32
	sndNxt uint32

	// sndWnd 本端最近通告的接收窗口
	sndWnd uint16

	// rcvNxt 期望收到的下一个对端序号
	rcvNxt uint32

	// finSeq FIN 所占用的序号
	finSeq  uint32
	finSent bool

	// tsLast PAWS 记录的最近时间戳
	tsLast uint32

	rstPktSent bool

	// Normalizer/Reassembler 协作方 允许为 nil
	Normalizer  Normalizer
	Reassembler Reassembler
}

// NewTracker 创建半流追踪器 client 标识其归属端
func NewTracker(client bool) *Tracker {
	return &Tracker{
		client: client,
		state:  StateClosed,
	}
}

func (t *Tracker) IsClient() bool {
	return t.client
}

func (t *Tracker) State() State {
	return t.state
}

func (t *Tracker) SetState(s State) {
	t.state = s
}

func (t *Tracker) Event() Event {
	return t.event
}

func (t *Tracker) SetEvent(e Event) {
	t.event = e
}

func (t *Tracker) IsRstSent() bool {
	return t.rstPktSent
}

func (t *Tracker) SetRstSent() {
	t.rstPktSent = true
}

// InitOnSynSent 本端发出 SYN 时初始化发送侧簿记
func (t *Tracker) InitOnSynSent(tsd *SegmentDescriptor) {
	t.iss = tsd.Seq
	t.sndUna = tsd.Seq
	t.sndNxt = tsd.Seq + 1
	t.sndWnd = tsd.Wnd
}

// InitOnSynRecv 对端 SYN 到达时初始化接收侧簿记
func (t *Tracker) InitOnSynRecv(tsd *SegmentDescriptor) {
	t.irs = tsd.Seq
	t.rcvNxt = tsd.Seq + 1
}

// InitOnSynAckSent 本端发出 SYN+ACK 时初始化双侧簿记
func (t *Tracker) InitOnSynAckSent(tsd *SegmentDescriptor) {
	t.iss = tsd.Seq
	t.sndUna = tsd.Seq
	t.sndNxt = tsd.Seq + 1
	t.sndWnd = tsd.Wnd
	t.rcvNxt = tsd.Ack
}

// InitOnSynAckRecv 对端 SYN+ACK 到达时初始化接收侧簿记
func (t *Tracker) InitOnSynAckRecv(tsd *SegmentDescriptor) {
	t.irs = tsd.Seq
	t.rcvNxt = tsd.Seq + 1
	if seqGT(tsd.Ack, t.sndUna) {
		t.sndUna = tsd.Ack
	}
}

// UpdateAckSent 本端发出携带 ACK 的 segment
//
// 推进发送序号与通告窗口 ACK 号代表本端已收到的对端数据
func (t *Tracker) UpdateAckSent(tsd *SegmentDescriptor) {
	end := tsd.Seq + uint32(tsd.DataLen)
	if tsd.Flags&(FlagSYN|FlagFIN) != 0 {
		end++
	}
	if seqGT(end, t.sndNxt) {
		t.sndNxt = end
	}
	t.sndWnd = tsd.Wnd

	if tsd.Flags&FlagACK != 0 && seqGT(tsd.Ack, t.rcvNxt) {
		t.rcvNxt = tsd.Ack
	}
}

// UpdateAckRecv 对端 segment 到达 其 ACK 确认了本端已发送的数据
func (t *Tracker) UpdateAckRecv(tsd *SegmentDescriptor) {
	if tsd.Flags&FlagACK != 0 && seqGT(tsd.Ack, t.sndUna) {
		t.sndUna = tsd.Ack
	}
}

// UpdateOnDataRecv 对端数据 segment 到达 推进期望序号
func (t *Tracker) UpdateOnDataRecv(tsd *SegmentDescriptor) {
	t.UpdateAckRecv(tsd)

	end := tsd.Seq + uint32(tsd.DataLen)
	if seqGT(end, t.rcvNxt) {
		t.rcvNxt = end
	}
}

// UpdateOnFinSent 本端发出 FIN FIN 占用一个序号
func (t *Tracker) UpdateOnFinSent(tsd *SegmentDescriptor) {
	t.UpdateAckSent(tsd)
	t.finSeq = tsd.Seq + uint32(tsd.DataLen)
	t.finSent = true
}

// UpdateOnFinRecv 对端 FIN 到达
func (t *Tracker) UpdateOnFinRecv(tsd *SegmentDescriptor) {
	t.UpdateAckRecv(tsd)

	end := tsd.Seq + uint32(tsd.DataLen) + 1
	if seqGT(end, t.rcvNxt) {
		t.rcvNxt = end
	}
}

// FinAcked 返回给定 ACK 号是否已确认本端的 FIN
func (t *Tracker) FinAcked(ack uint32) bool {
	return t.finSent && seqGT(ack, t.finSeq)
}

// UpdateOnRstRecv 校验对端 RST 的合法性
//
// RST 序号必须落在接收窗口内 命中 rcvNxt 视为精确匹配
// 校验通过时推进簿记并返回 true 否则不做任何修改
func (t *Tracker) UpdateOnRstRecv(tsd *SegmentDescriptor) bool {
	if t.rcvNxt == 0 {
		// 尚无基准序号 按 RFC 放行首个 RST
		t.rcvNxt = tsd.Seq
		return true
	}

	wnd := uint32(t.sndWnd)
	if wnd == 0 {
		wnd = 1
	}
	if !seqGEQ(tsd.Seq, t.rcvNxt) || !seqLT(tsd.Seq, t.rcvNxt+wnd) {
		return false
	}

	t.UpdateAckRecv(tsd)
	return true
}

// UpdatePaws 更新 PAWS 时间戳 返回时间戳是否发生回退
func (t *Tracker) UpdatePaws(tsd *SegmentDescriptor) bool {
	if !tsd.HasTS {
		return false
	}
	if t.tsLast != 0 && seqLT(tsd.TSVal, t.tsLast) {
		return true
	}
	t.tsLast = tsd.TSVal
	return false
}
