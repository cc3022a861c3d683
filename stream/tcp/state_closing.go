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

// closingState CLOSING 状态处理器 双方同时关闭
type closingState struct {
	baseState
}

// timeWaitState TIME_WAIT 状态处理器
//
// 连接已双向终结 等待 2MSL 回收 清理由派发后钩子完成
type timeWaitState struct {
	baseState
}

func (h *timeWaitState) PostProcess(tsd *SegmentDescriptor) bool {
	return h.closingPostProcess(tsd)
}
