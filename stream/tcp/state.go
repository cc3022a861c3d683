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

// Handler 单个 TCP 状态的事件处理器
//
// 十二个事件方法对应 Event 枚举 外加派发前后的钩子
// 处理方法从不失败 异常只体现为遥测事件与处置标记
type Handler interface {
	SynSent(tsd *SegmentDescriptor, trk *Tracker) bool
	SynRecv(tsd *SegmentDescriptor, trk *Tracker) bool
	SynAckSent(tsd *SegmentDescriptor, trk *Tracker) bool
	SynAckRecv(tsd *SegmentDescriptor, trk *Tracker) bool
	AckSent(tsd *SegmentDescriptor, trk *Tracker) bool
	AckRecv(tsd *SegmentDescriptor, trk *Tracker) bool
	DataSegSent(tsd *SegmentDescriptor, trk *Tracker) bool
	DataSegRecv(tsd *SegmentDescriptor, trk *Tracker) bool
	FinSent(tsd *SegmentDescriptor, trk *Tracker) bool
	FinRecv(tsd *SegmentDescriptor, trk *Tracker) bool
	RstSent(tsd *SegmentDescriptor, trk *Tracker) bool
	RstRecv(tsd *SegmentDescriptor, trk *Tracker) bool

	// PreProcess 派发前钩子 返回 false 时丢弃 segment 不做任何状态迁移
	PreProcess(tsd *SegmentDescriptor) bool

	// PostProcess 派发后钩子 负责 PAWS 更新与会话清理
	PostProcess(tsd *SegmentDescriptor) bool
}

// baseState 各状态处理器的共同基座
//
// 事件方法默认执行规范的序号簿记 并以 defaultStateAction 收尾
// 实际的状态迁移只发生在 defaultStateAction 中
type baseState struct {
	session *Session
}

func (b *baseState) SynSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.InitOnSynSent(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) SynRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.InitOnSynRecv(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) SynAckSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.InitOnSynAckSent(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) SynAckRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.InitOnSynAckRecv(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) AckSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckSent(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) AckRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckRecv(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) DataSegSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckSent(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) DataSegRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateOnDataRecv(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) FinSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateOnFinSent(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) FinRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateOnFinRecv(tsd)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) RstSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.SetRstSent()
	tsd.Flow.SetSessionFlag(SsnFlagReset)
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) RstRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	if trk.UpdateOnRstRecv(tsd) {
		b.session.updateSessionOnRst(tsd, false)
		b.session.updatePerfBaseState(StateClosing)
		b.session.setPktActionFlag(ActionRst)
	} else {
		b.session.tel.SetTCPEvent(EvBadRst)
	}
	return b.session.defaultStateAction(tsd, trk)
}

func (b *baseState) PreProcess(tsd *SegmentDescriptor) bool {
	return b.session.validatePacketEstablishedSession(tsd)
}

func (b *baseState) PostProcess(tsd *SegmentDescriptor) bool {
	b.session.updatePawsTimestamps(tsd)
	b.session.checkForWindowSlam(tsd)
	return true
}

// closingPostProcess 连接收尾阶段共用的派发后钩子
//
// talker 已进入 TIME_WAIT 或流只有单向流量时 会话随本 segment 清理
// 最后的 ACK 属于会话的一部分 清理在处理完成之后进行
func (b *baseState) closingPostProcess(tsd *SegmentDescriptor) bool {
	b.session.updatePawsTimestamps(tsd)
	b.session.checkForWindowSlam(tsd)

	if b.session.listener(tsd).Event() != EventFinRecv {
		talkerState := b.session.TalkerState(tsd)
		flow := tsd.Flow

		if talkerState == StateTimeWait || !flow.TwoWayTraffic() {
			b.session.cleanupSession(tsd)
		}
	}
	return true
}
