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

// transitions 状态迁移表 state x event -> 下一状态
//
// 迁移独立成表 使状态图可以脱离处理器单独验证
// 未显式列出的组合保持原状态
var transitions [stateCount][eventCount]State

func init() {
	for s := State(0); s < stateCount; s++ {
		for e := Event(0); e < eventCount; e++ {
			transitions[s][e] = s
		}
	}

	set := func(s State, e Event, next State) {
		transitions[s][e] = next
	}

	// 建链
	set(StateClosed, EventSynSent, StateSynSent)
	set(StateClosed, EventSynRecv, StateSynRecv)
	set(StateClosed, EventSynAckSent, StateSynRecv)
	set(StateListen, EventSynSent, StateSynSent)
	set(StateListen, EventSynRecv, StateSynRecv)
	set(StateListen, EventSynAckSent, StateSynRecv)

	set(StateSynSent, EventAckSent, StateEstablished)
	set(StateSynSent, EventDataSegSent, StateEstablished)
	set(StateSynRecv, EventAckRecv, StateEstablished)
	set(StateSynRecv, EventDataSegRecv, StateEstablished)

	// 正常拆链
	set(StateEstablished, EventFinSent, StateFinWait1)
	set(StateEstablished, EventFinRecv, StateCloseWait)
	set(StateSynRecv, EventFinSent, StateFinWait1)
	set(StateSynRecv, EventFinRecv, StateCloseWait)
	set(StateSynSent, EventFinSent, StateFinWait1)

	set(StateFinWait1, EventAckRecv, StateFinWait2)
	set(StateFinWait1, EventFinRecv, StateClosing)
	set(StateFinWait2, EventFinRecv, StateTimeWait)
	set(StateCloseWait, EventFinSent, StateLastAck)
	set(StateClosing, EventAckRecv, StateTimeWait)
	set(StateLastAck, EventAckRecv, StateClosed)

	// RST 从任意状态终结连接
	for s := State(0); s < stateCount; s++ {
		set(s, EventRstSent, StateClosed)
		set(s, EventRstRecv, StateClosed)
	}
}

// Machine 为会话派发 segment 事件
//
// 每个状态一个处理器 处理器本身不迁移状态
// 迁移统一由 defaultStateAction 查表完成
type Machine struct {
	handlers [stateCount]Handler
}

// NewMachine 构造状态机 处理器绑定到给定会话
func NewMachine(s *Session) *Machine {
	base := baseState{session: s}
	m := &Machine{}
	m.handlers[StateListen] = &listenState{base}
	m.handlers[StateSynSent] = &synSentState{base}
	m.handlers[StateSynRecv] = &synRecvState{base}
	m.handlers[StateEstablished] = &establishedState{base}
	m.handlers[StateFinWait1] = &finWait1State{base}
	m.handlers[StateFinWait2] = &finWait2State{base}
	m.handlers[StateCloseWait] = &closeWaitState{base}
	m.handlers[StateClosing] = &closingState{base}
	m.handlers[StateLastAck] = &lastAckState{base}
	m.handlers[StateTimeWait] = &timeWaitState{base}
	m.handlers[StateClosed] = &closedState{base}
	return m
}

// Handler 返回指定状态的处理器
func (m *Machine) Handler(s State) Handler {
	return m.handlers[s]
}

// Eval 对单个 segment 执行完整的状态机流程
//
// talker 为发送端 tracker 收到 *Sent 事件 listener 为接收端
// tracker 收到对应的 *Recv 事件 每个事件恰好派发一次
// 派发前钩子返回 false 时 segment 被丢弃 不发生任何迁移
func (m *Machine) Eval(tsd *SegmentDescriptor, talker, listener *Tracker) bool {
	if !m.handlers[talker.State()].PreProcess(tsd) {
		tsd.SetAction(ActionDrop)
		return false
	}

	talker.SetEvent(classify(tsd, true))
	m.dispatch(tsd, talker)

	listener.SetEvent(classify(tsd, false))
	m.dispatch(tsd, listener)

	return m.handlers[listener.State()].PostProcess(tsd)
}

func (m *Machine) dispatch(tsd *SegmentDescriptor, trk *Tracker) bool {
	h := m.handlers[trk.State()]

	switch trk.Event() {
	case EventSynSent:
		return h.SynSent(tsd, trk)
	case EventSynRecv:
		return h.SynRecv(tsd, trk)
	case EventSynAckSent:
		return h.SynAckSent(tsd, trk)
	case EventSynAckRecv:
		return h.SynAckRecv(tsd, trk)
	case EventAckSent:
		return h.AckSent(tsd, trk)
	case EventAckRecv:
		return h.AckRecv(tsd, trk)
	case EventDataSegSent:
		return h.DataSegSent(tsd, trk)
	case EventDataSegRecv:
		return h.DataSegRecv(tsd, trk)
	case EventFinSent:
		return h.FinSent(tsd, trk)
	case EventFinRecv:
		return h.FinRecv(tsd, trk)
	case EventRstSent:
		return h.RstSent(tsd, trk)
	case EventRstRecv:
		return h.RstRecv(tsd, trk)
	}
	return true
}
