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

// closeWaitState CLOSE_WAIT 状态处理器
type closeWaitState struct {
	baseState
}

// lastAckState LAST_ACK 状态处理器
//
// 等待对端确认本端的 FIN 随后连接终结
type lastAckState struct {
	baseState
}

func (h *lastAckState) PostProcess(tsd *SegmentDescriptor) bool {
	return h.closingPostProcess(tsd)
}
