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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensord/sensord/common/socket"
	"github.com/sensord/sensord/telemetry"
)

// fakeFlow Flow 的测试实现
type fakeFlow struct {
	tuple        socket.TupleRaw
	sessionFlags uint32
	sessionState uint32
	expire       time.Duration
}

func (f *fakeFlow) Tuple() socket.TupleRaw { return f.tuple }

func (f *fakeFlow) SetExpire(timeout time.Duration) { f.expire = timeout }

func (f *fakeFlow) SessionFlags() uint32 { return f.sessionFlags }

func (f *fakeFlow) SetSessionFlag(flag uint32) { f.sessionFlags |= flag }

func (f *fakeFlow) TwoWayTraffic() bool {
	const both = SsnFlagSeenClient | SsnFlagSeenServer
	return f.sessionFlags&both == both
}

func (f *fakeFlow) SessionState() uint32 { return f.sessionState }

func (f *fakeFlow) AddSessionState(s uint32) { f.sessionState |= s }

type eventSink struct {
	records []telemetry.Record
}

func (es *eventSink) Emit(rec telemetry.Record) {
	es.records = append(es.records, rec)
}

func (es *eventSink) names() []string {
	var s []string
	for _, r := range es.records {
		s = append(s, r.Name)
	}
	return s
}

func newTestSession() (*Session, *fakeFlow, *eventSink) {
	flow := &fakeFlow{}
	sink := &eventSink{}
	session := NewSession(flow, &Config{SessionTimeout: 30 * time.Second}, sink)
	return session, flow, sink
}

func segment(dir Direction, flags uint8, seq, ack uint32, dataLen uint16) *SegmentDescriptor {
	return &SegmentDescriptor{
		Dir:     dir,
		Flags:   flags,
		Seq:     seq,
		Ack:     ack,
		Wnd:     8192,
		DataLen: dataLen,
	}
}

func (s *Session) feed(tsd *SegmentDescriptor) ActionFlags {
	tsd.Flow = s.flow
	return s.OnSegment(tsd)
}

func TestSynToClosedTrackers(t *testing.T) {
	session, _, sink := newTestSession()

	require.Equal(t, StateClosed, session.Client().State())
	require.Equal(t, StateClosed, session.Server().State())

	session.feed(segment(DirToServer, FlagSYN, 9050, 0, 0))

	assert.Equal(t, EventSynSent, session.Client().Event())
	assert.Equal(t, StateSynSent, session.Client().State())
	assert.Equal(t, uint32(9050), session.Client().iss)
	assert.Equal(t, uint32(9051), session.Client().sndNxt)
	assert.Empty(t, sink.names())
}

func TestThreeWayHandshake(t *testing.T) {
	session, flow, _ := newTestSession()

	session.feed(segment(DirToServer, FlagSYN, 1000, 0, 0))
	session.feed(segment(DirToClient, FlagSYN|FlagACK, 5000, 1001, 0))
	session.feed(segment(DirToServer, FlagACK, 1001, 5001, 0))

	assert.Equal(t, StateEstablished, session.Client().State())
	assert.Equal(t, StateEstablished, session.Server().State())
	assert.NotZero(t, flow.SessionFlags()&SsnFlagEstablished)
	assert.True(t, flow.TwoWayTraffic())
}

func TestGracefulTeardown(t *testing.T) {
	session, _, _ := newTestSession()

	// 建链
	session.feed(segment(DirToServer, FlagSYN, 1000, 0, 0))
	session.feed(segment(DirToClient, FlagSYN|FlagACK, 5000, 1001, 0))
	session.feed(segment(DirToServer, FlagACK, 1001, 5001, 0))

	// 客户端主动关闭
	session.feed(segment(DirToServer, FlagFIN|FlagACK, 1001, 5001, 0))
	assert.Equal(t, StateFinWait1, session.Client().State())
	assert.Equal(t, StateCloseWait, session.Server().State())

	// 服务端确认 FIN
	session.feed(segment(DirToClient, FlagACK, 5001, 1002, 0))
	assert.Equal(t, StateFinWait2, session.Client().State())

	// 服务端发出 FIN
	session.feed(segment(DirToClient, FlagFIN|FlagACK, 5001, 1002, 0))
	assert.Equal(t, StateLastAck, session.Server().State())
	assert.Equal(t, StateTimeWait, session.Client().State())

	// 最后的 ACK
	actions := session.feed(segment(DirToServer, FlagACK, 1002, 5002, 0))
	assert.Equal(t, StateClosed, session.Server().State())
	assert.NotZero(t, actions&ActionClosed)
}

func TestRstClosesBothTrackers(t *testing.T) {
	session, flow, _ := newTestSession()

	session.feed(segment(DirToServer, FlagSYN, 1000, 0, 0))
	session.feed(segment(DirToClient, FlagSYN|FlagACK, 5000, 1001, 0))
	session.feed(segment(DirToServer, FlagACK, 1001, 5001, 0))

	session.feed(segment(DirToServer, FlagRST|FlagACK, 1001, 5001, 0))

	assert.Equal(t, StateClosed, session.Client().State())
	assert.Equal(t, StateClosed, session.Server().State())
	assert.NotZero(t, flow.SessionFlags()&SsnFlagReset)
}

func TestTransitionTableTotality(t *testing.T) {
	for s := State(0); s < stateCount; s++ {
		for e := Event(0); e < eventCount; e++ {
			next := transitions[s][e]
			assert.Less(t, next, stateCount, "state %s event %s", s, e)
		}
	}
}

func TestDispatchTotality(t *testing.T) {
	// 任意 (state, event) 组合派发后 tracker 状态均为合法值
	for s := State(0); s < stateCount; s++ {
		for e := Event(1); e < eventCount; e++ {
			session, _, _ := newTestSession()
			trk := session.Client()
			trk.SetState(s)
			trk.SetEvent(e)

			tsd := segment(DirToServer, FlagACK, 1, 1, 0)
			tsd.Flow = session.flow
			session.machine.dispatch(tsd, trk)

			assert.Less(t, trk.State(), stateCount, "state %s event %s", s, e)
		}
	}
}

func TestPreProcessDropsNullScan(t *testing.T) {
	session, _, _ := newTestSession()

	// 无任何标志位且无数据的 segment 被丢弃 不发生迁移
	actions := session.feed(segment(DirToServer, 0, 1000, 0, 0))

	assert.NotZero(t, actions&ActionDrop)
	assert.Equal(t, StateClosed, session.Client().State())
	assert.Equal(t, EventNone, session.Client().Event())
}
