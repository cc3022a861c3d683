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

// Package tcp 实现双向 TCP 会话的状态追踪
//
// 会话持有客户端与服务端两个半流 tracker 每个到达的 segment
// 恰好被分类出一个事件 恰好派发一个状态处理方法
// 处理器从不失败 任何异常都记录为遥测事件或处置标记
package tcp

import (
	"time"

	"github.com/sensord/sensord/telemetry"
)

// Config 会话配置
type Config struct {
	// SessionTimeout 流空闲过期时间
	SessionTimeout time.Duration `config:"sessionTimeout"`
}

func (c *Config) Validate() {
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
}

// Session 一条双向 TCP 流的会话协调器
type Session struct {
	flow   Flow
	config *Config
	tel    *EventLogger

	client *Tracker
	server *Tracker

	machine *Machine

	// actions 当前 segment 累积的处置标记
	actions ActionFlags

	// perfState 性能统计视角的粗粒度状态
	perfState State

	// prevTalkerWnd 派发前发送端的通告窗口 供 window slam 判定
	prevTalkerWnd uint16
	talkerSeenWnd bool

	cleaned bool
}

// NewSession 创建会话 sink 允许为 nil
func NewSession(flow Flow, config *Config, sink telemetry.Sink) *Session {
	config.Validate()

	s := &Session{
		flow:   flow,
		config: config,
		tel:    NewEventLogger(sink, flow),
		client: NewTracker(true),
		server: NewTracker(false),
	}
	s.machine = NewMachine(s)
	return s
}

// Client 返回客户端半流 tracker
func (s *Session) Client() *Tracker {
	return s.client
}

// Server 返回服务端半流 tracker
func (s *Session) Server() *Tracker {
	return s.server
}

// Machine 返回会话状态机
func (s *Session) Machine() *Machine {
	return s.machine
}

// EventLogger 返回会话的遥测记录器
func (s *Session) EventLogger() *EventLogger {
	return s.tel
}

// Closed 返回会话是否已被清理
func (s *Session) Closed() bool {
	return s.cleaned
}

// talker 返回 segment 发送端 tracker
func (s *Session) talker(tsd *SegmentDescriptor) *Tracker {
	if tsd.Dir == DirToServer {
		return s.client
	}
	return s.server
}

// listener 返回 segment 接收端 tracker
func (s *Session) listener(tsd *SegmentDescriptor) *Tracker {
	if tsd.Dir == DirToServer {
		return s.server
	}
	return s.client
}

// TalkerState 返回发送端 tracker 的当前状态
func (s *Session) TalkerState(tsd *SegmentDescriptor) State {
	return s.talker(tsd).State()
}

// ListenerState 返回接收端 tracker 的当前状态
func (s *Session) ListenerState(tsd *SegmentDescriptor) State {
	return s.listener(tsd).State()
}

// OnSegment 处理一个到达的 segment 返回累积的处置标记
//
// 调用方负责保证同一条流的 segment 在单一线程上按捕获序进入
func (s *Session) OnSegment(tsd *SegmentDescriptor) ActionFlags {
	s.actions = 0
	s.tel.ClearPacketEvents()

	switch tsd.Dir {
	case DirToServer:
		s.flow.SetSessionFlag(SsnFlagSeenClient)
	case DirToClient:
		s.flow.SetSessionFlag(SsnFlagSeenServer)
	}

	talker := s.talker(tsd)
	s.prevTalkerWnd = talker.sndWnd
	s.talkerSeenWnd = talker.sndNxt != 0

	s.machine.Eval(tsd, talker, s.listener(tsd))

	tsd.Actions |= s.actions
	return tsd.Actions
}

// defaultStateAction 共享的收尾动作 实际的状态迁移仅发生于此
func (s *Session) defaultStateAction(tsd *SegmentDescriptor, trk *Tracker) bool {
	next := transitions[trk.State()][trk.Event()]
	if next != trk.State() {
		trk.SetState(next)
	}
	return true
}

// setPktActionFlag 累积处置标记 派发结束后由协调器消费
func (s *Session) setPktActionFlag(f ActionFlags) {
	s.actions |= f
}

// markPacketForDrop 标记当前数据包应被丢弃
func (s *Session) markPacketForDrop(tsd *SegmentDescriptor) {
	s.setPktActionFlag(ActionDrop)
}

// checkForRepeatedSyn 检测序号漂移的 SYN 重复
func (s *Session) checkForRepeatedSyn(tsd *SegmentDescriptor, trk *Tracker) {
	if trk.sndNxt != 0 && tsd.Seq != trk.iss {
		s.tel.SetTCPEvent(EvRepeatedSyn)
	}
}

// updateSessionOnRst 有效 RST 后更新会话状态
func (s *Session) updateSessionOnRst(tsd *SegmentDescriptor, flushTalker bool) {
	s.flow.SetSessionFlag(SsnFlagReset)
	s.talker(tsd).SetRstSent()

	if flushTalker {
		if r := s.talker(tsd).Reassembler; r != nil {
			r.Flush()
		}
	}
}

// updatePerfBaseState 更新性能统计视角的粗粒度状态
func (s *Session) updatePerfBaseState(state State) {
	s.perfState = state
}

// validatePacketEstablishedSession 派发前的基本合法性检查
//
// 全零标志位的 segment（null scan）直接丢弃 不进入状态机
func (s *Session) validatePacketEstablishedSession(tsd *SegmentDescriptor) bool {
	return tsd.Flags != 0 || tsd.DataLen > 0
}

// updatePawsTimestamps 更新发送端的 PAWS 时间戳
func (s *Session) updatePawsTimestamps(tsd *SegmentDescriptor) {
	if s.talker(tsd).UpdatePaws(tsd) {
		s.tel.SetTCPEvent(EvBadTimestamp)
	}
}

// checkForWindowSlam 检测接收窗口被瞬间压扁
//
// 比较对象是派发前记录的通告窗口 派发过程会覆盖 tracker 上的值
func (s *Session) checkForWindowSlam(tsd *SegmentDescriptor) {
	if tsd.Flags&FlagACK == 0 || tsd.Wnd != 0 {
		return
	}
	if s.talkerSeenWnd && s.prevTalkerWnd != 0 {
		s.tel.SetTCPEvent(EvWindowSlam)
	}
}

// cleanupSession 清理会话并标记关闭
//
// 清理恰好发生一次 重复进入为空操作
func (s *Session) cleanupSession(tsd *SegmentDescriptor) {
	if s.cleaned {
		return
	}
	s.cleaned = true

	for _, trk := range []*Tracker{s.client, s.server} {
		if trk.Reassembler != nil {
			trk.Reassembler.Purge()
		}
		trk.SetState(StateClosed)
	}

	s.flow.AddSessionState(StreamStateClosed)
	s.setPktActionFlag(ActionClosed)
}
