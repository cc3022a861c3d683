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

// closedState CLOSED 状态处理器
//
// CLOSED 同时承担 `尚无连接` 与 `连接已终结` 两种语义
// 流被重置后仍到达的数据是典型的攻击信号 需要上报并丢弃
type closedState struct {
	baseState
}

func (h *closedState) SynSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	h.session.checkForRepeatedSyn(tsd, trk)
	trk.InitOnSynSent(tsd)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *closedState) SynRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	tsd.Flow.SetExpire(h.session.config.SessionTimeout)
	trk.InitOnSynRecv(tsd)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *closedState) DataSegSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckSent(tsd)

	// 不再接收数据的连接上出现数据 segment
	if tsd.Flow.SessionFlags()&SsnFlagReset != 0 {
		if trk.IsRstSent() {
			h.session.tel.SetTCPEvent(EvDataAfterReset)
		} else {
			h.session.tel.SetTCPEvent(EvDataAfterRstRcvd)
		}
	} else {
		h.session.tel.SetTCPEvent(EvDataOnClosed)
	}
	h.session.markPacketForDrop(tsd)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *closedState) FinRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateOnFinRecv(tsd)

	// 行为保留自原实现 无论是否出现过 RST 均按 RST 相关事件上报
	if trk.IsRstSent() {
		h.session.tel.SetTCPEvent(EvDataAfterReset)
	} else {
		h.session.tel.SetTCPEvent(EvDataAfterRstRcvd)
	}

	return h.session.defaultStateAction(tsd, trk)
}

func (h *closedState) RstRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	if trk.UpdateOnRstRecv(tsd) {
		h.session.updateSessionOnRst(tsd, false)
		h.session.updatePerfBaseState(StateClosing)
		h.session.setPktActionFlag(ActionRst)
	} else {
		h.session.tel.SetTCPEvent(EvBadRst)
	}

	return h.session.defaultStateAction(tsd, trk)
}

func (h *closedState) PostProcess(tsd *SegmentDescriptor) bool {
	return h.closingPostProcess(tsd)
}
