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

// listenState LISTEN 状态处理器
//
// 首个 SYN 为流设置过期时间 其余事件走默认簿记
type listenState struct {
	baseState
}

func (h *listenState) SynSent(tsd *SegmentDescriptor, trk *Tracker) bool {
	tsd.Flow.SetExpire(h.session.config.SessionTimeout)
	trk.InitOnSynSent(tsd)

	return h.session.defaultStateAction(tsd, trk)
}

func (h *listenState) SynRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	tsd.Flow.SetExpire(h.session.config.SessionTimeout)
	trk.InitOnSynRecv(tsd)

	return h.session.defaultStateAction(tsd, trk)
}
