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
	"github.com/sensord/sensord/telemetry"
)

// TCP 异常事件名称
const (
	EvDataAfterReset   = "data_after_reset"
	EvDataAfterRstRcvd = "data_after_rst_rcvd"
	EvDataOnClosed     = "data_on_closed"
	EvBadRst           = "bad_rst"
	EvBadTimestamp     = "bad_timestamp"
	EvWindowSlam       = "window_slam"
	EvRepeatedSyn      = "repeated_syn"
	EvSynOnEstablished = "syn_on_established"
)

// EventLogger 会话级遥测事件记录器
//
// 同一事件在单个 segment 的处理过程中只上报一次
type EventLogger struct {
	sink   telemetry.Sink
	flow   Flow
	logged []string
}

// NewEventLogger 创建记录器 sink 允许为 nil 表示丢弃事件
func NewEventLogger(sink telemetry.Sink, flow Flow) *EventLogger {
	return &EventLogger{
		sink: sink,
		flow: flow,
	}
}

// SetTCPEvent 记录一条 TCP 异常事件
func (el *EventLogger) SetTCPEvent(name string) {
	for _, prev := range el.logged {
		if prev == name {
			return
		}
	}
	el.logged = append(el.logged, name)

	if el.sink != nil {
		el.sink.Emit(telemetry.NewRecord("tcp", name, el.flow.Tuple()))
	}
}

// Logged 返回当前 segment 已记录的事件名称
func (el *EventLogger) Logged() []string {
	return el.logged
}

// ClearPacketEvents 在每个 segment 处理前清空去重窗口
func (el *EventLogger) ClearPacketEvents() {
	el.logged = el.logged[:0]
}
