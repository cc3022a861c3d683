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

// finWait1State FIN_WAIT1 状态处理器
//
// 本端 FIN 已发出 等待确认 对端数据仍可能到达
type finWait1State struct {
	baseState
}

func (h *finWait1State) AckRecv(tsd *SegmentDescriptor, trk *Tracker) bool {
	trk.UpdateAckRecv(tsd)

	// 迁移到 FIN_WAIT2 要求 ACK 确实覆盖了 FIN 序号
	if !trk.FinAcked(tsd.Ack) {
		return true
	}
	return h.session.defaultStateAction(tsd, trk)
}

// finWait2State FIN_WAIT2 状态处理器
type finWait2State struct {
	baseState
}
