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

// establishedState ESTABLISHED 状态处理器
//
// 已建链后的 SYN 属于异常 其余事件按规范簿记推进
type establishedState struct {
	baseState
}

func (h *establishedState) SynSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	h.session.tel.SetTCPEvent(EvSynOnEstablished)
	h.session.checkForRepeatedSyn(tsd, trk)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *establishedState) SynRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	h.session.tel.SetTCPEvent(EvSynOnEstablished)

	return h.session.defaultStateAction(tsd, trk)
}
