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
	"time"

	"github.com/sensord/sensord/common/socket"
)

// 会话标志位 由状态机维护在 Flow 上
const (
	// SsnFlagReset 流上出现过有效的 RST
	SsnFlagReset uint32 = 1 << iota

	// SsnFlagEstablished 三次握手完成
	SsnFlagEstablished

	// SsnFlagSeenClient 观察到客户端方向流量
	SsnFlagSeenClient

	// SsnFlagSeenServer 观察到服务端方向流量
	SsnFlagSeenServer
)

// 流表状态位
const (
	// StreamStateClosed 会话已被清理 等待流表回收
	StreamStateClosed uint32 = 1 << iota
)

// Flow 流表中一条流的契约
//
// 流表本身由外部协作方实现 状态机只依赖这组最小操作
type Flow interface {
	// Tuple 返回流四元组
	Tuple() socket.TupleRaw

	// SetExpire 以给定超时重置流的过期时间
	SetExpire(timeout time.Duration)

	// SessionFlags 返回会话标志位
	SessionFlags() uint32

	// SetSessionFlag 置位会话标志
	SetSessionFlag(f uint32)

	// TwoWayTraffic 返回流上是否观察到双向流量
	TwoWayTraffic() bool

	// SessionState 返回流表状态位
	SessionState() uint32

	// AddSessionState 置位流表状态
	AddSessionState(s uint32)
}

// Normalizer 标准化协作方
//
// 按配置的操作系统策略修剪越界 segment 实现由外部提供
type Normalizer interface {
	NormalizeSegment(tsd *SegmentDescriptor) bool
}

// Reassembler 重组协作方
//
// 负责字节流重组与冲刷 实现由外部提供
type Reassembler interface {
	QueueSegment(tsd *SegmentDescriptor)
	Flush()
	Purge()
}
