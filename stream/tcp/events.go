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

// TCP Flags
const (
	FlagFIN uint8 = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
)

// State Tracker 的 TCP 连接状态
type State uint8

const (
	StateListen State = iota
	StateSynSent
	StateSynRecv
	StateEstablished
	StateFinWait1
	StateFinWait2
	StateCloseWait
	StateClosing
	StateLastAck
	StateTimeWait
	StateClosed

	stateCount
)

func (s State) String() string {
	switch s {
	case StateListen:
		return "listen"
	case StateSynSent:
		return "syn_sent"
	case StateSynRecv:
		return "syn_recv"
	case StateEstablished:
		return "established"
	case StateFinWait1:
		return "fin_wait1"
	case StateFinWait2:
		return "fin_wait2"
	case StateCloseWait:
		return "close_wait"
	case StateClosing:
		return "closing"
	case StateLastAck:
		return "last_ack"
	case StateTimeWait:
		return "time_wait"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Event 由 segment 标志位与方向推导出的事件标签
//
// 每个 segment 在 talker 侧产生一个 *Sent 事件 在 listener 侧产生
// 对应的 *Recv 事件 状态机按事件派发到当前状态的处理方法
type Event uint8

const (
	EventNone Event = iota
	EventSynSent
	EventSynRecv
	EventSynAckSent
	EventSynAckRecv
	EventAckSent
	EventAckRecv
	EventDataSegSent
	EventDataSegRecv
	EventFinSent
	EventFinRecv
	EventRstSent
	EventRstRecv

	eventCount
)

func (e Event) String() string {
	switch e {
	case EventSynSent:
		return "syn_sent"
	case EventSynRecv:
		return "syn_recv"
	case EventSynAckSent:
		return "syn_ack_sent"
	case EventSynAckRecv:
		return "syn_ack_recv"
	case EventAckSent:
		return "ack_sent"
	case EventAckRecv:
		return "ack_recv"
	case EventDataSegSent:
		return "data_seg_sent"
	case EventDataSegRecv:
		return "data_seg_recv"
	case EventFinSent:
		return "fin_sent"
	case EventFinRecv:
		return "fin_recv"
	case EventRstSent:
		return "rst_sent"
	case EventRstRecv:
		return "rst_recv"
	}
	return "none"
}

// classify 依据 segment 的标志位组合推导事件
//
// sent 为 true 时返回 talker 视角的 *Sent 事件 否则返回 *Recv 事件
func classify(tsd *SegmentDescriptor, sent bool) Event {
	flags := tsd.Flags

	var base Event
	switch {
	case flags&FlagSYN != 0 && flags&FlagACK != 0:
		base = EventSynAckSent
	case flags&FlagSYN != 0:
		base = EventSynSent
	case flags&FlagRST != 0:
		base = EventRstSent
	case flags&FlagFIN != 0:
		base = EventFinSent
	case tsd.DataLen > 0:
		base = EventDataSegSent
	case flags&FlagACK != 0:
		base = EventAckSent
	default:
		return EventNone
	}

	if !sent {
		// *Recv 事件与对应 *Sent 事件恒相邻
		base++
	}
	return base
}
