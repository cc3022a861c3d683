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

// synSentState SYN_SENT 状态处理器
type synSentState struct {
	baseState
}

func (h *synSentState) SynSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	// SYN 重传 序号变化时告警
	h.session.checkForRepeatedSyn(tsd, trk)

	return h.session.defaultStateAction(tsd, trk)
}

// synRecvState SYN_RECV 状态处理器
type synRecvState struct {
	baseState
}

func (h *synRecvState) AckRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckRecv(tsd)

	// 三次握手的最后一个 ACK
	tsd.Flow.SetSessionFlag(SsnFlagEstablished)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *synRecvState) DataSegRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateOnDataRecv(tsd)

	// 最后的 ACK 随数据一起到达
	tsd.Flow.SetSessionFlag(SsnFlagEstablished)

	return h.session.defaultStateAction(tsd, trk)
}
