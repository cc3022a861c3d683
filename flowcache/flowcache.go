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

// Package flowcache 维护 TCP 会话的流表
//
// 同一条流的双向数据包经 Tuple 归一化命中同一会话
// 过期回收由后台 gc 与会话自身的 deadline 双重保证
package flowcache

import (
	"sync"
	"time"

	"github.com/sensord/sensord/common/socket"
	"github.com/sensord/sensord/internal/fasttime"
	"github.com/sensord/sensord/stream/tcp"
)

// Flow tcp.Flow 的流表实现
type Flow struct {
	tuple socket.TupleRaw

	// origin 首个数据包的四元组 其发送端视为客户端
	origin socket.Tuple

	sessionFlags uint32
	sessionState uint32

	// expireAt 流过期时间戳（秒） 0 表示尚未设置
	expireAt int64
}

func newFlow(tuple socket.Tuple) *Flow {
	return &Flow{
		tuple:  tuple.ToRaw(),
		origin: tuple,
	}
}

func (f *Flow) Tuple() socket.TupleRaw {
	return f.tuple
}

// Origin 返回建流方向的四元组
func (f *Flow) Origin() socket.Tuple {
	return f.origin
}

func (f *Flow) SetExpire(timeout time.Duration) {
	f.expireAt = fasttime.UnixTimestamp() + int64(timeout.Seconds())
}

// Expired 返回流的 deadline 是否已过
func (f *Flow) Expired() bool {
	return f.expireAt > 0 && fasttime.UnixTimestamp() > f.expireAt
}

func (f *Flow) SessionFlags() uint32 {
	return f.sessionFlags
}

func (f *Flow) SetSessionFlag(flag uint32) {
	f.sessionFlags |= flag
}

func (f *Flow) TwoWayTraffic() bool {
	const both = tcp.SsnFlagSeenClient | tcp.SsnFlagSeenServer
	return f.sessionFlags&both == both
}

func (f *Flow) SessionState() uint32 {
	return f.sessionState
}

func (f *Flow) AddSessionState(s uint32) {
	f.sessionState |= s
}

// Entry 流表中的一项
type Entry struct {
	Flow    *Flow
	Session *tcp.Session

	activeAt int64
}

// Cache TCP 会话流表
type Cache struct {
	mut sync.RWMutex
	set map[socket.Tuple]*Entry

	expired time.Duration
	done    chan struct{}
}

// New 创建流表 expired 为非活跃条目的回收阈值
func New(expired time.Duration) *Cache {
	c := &Cache{
		set:     make(map[socket.Tuple]*Entry),
		expired: expired,
		done:    make(chan struct{}),
	}
	go c.gc()
	return c
}

func (c *Cache) Close() {
	close(c.done)
}

// GetOrCreate 返回四元组对应的会话条目 不存在时经 create 构造
//
// 传入的 Tuple 内部会被归一化 双向数据包得到同一条目
func (c *Cache) GetOrCreate(tuple socket.Tuple, create func(flow *Flow) *tcp.Session) *Entry {
	key := tuple.Normalize()

	c.mut.RLock()
	entry, ok := c.set[key]
	c.mut.RUnlock()
	if ok {
		entry.activeAt = fasttime.UnixTimestamp()
		return entry
	}

	c.mut.Lock()
	defer c.mut.Unlock()

	if entry, ok = c.set[key]; ok {
		entry.activeAt = fasttime.UnixTimestamp()
		return entry
	}

	flow := newFlow(tuple)
	entry = &Entry{
		Flow:     flow,
		Session:  create(flow),
		activeAt: fasttime.UnixTimestamp(),
	}
	c.set[key] = entry
	return entry
}

// Delete 删除四元组对应的条目
func (c *Cache) Delete(tuple socket.Tuple) {
	c.mut.Lock()
	defer c.mut.Unlock()

	delete(c.set, tuple.Normalize())
}

// Count 返回当前条目数
func (c *Cache) Count() int {
	c.mut.RLock()
	defer c.mut.RUnlock()

	return len(c.set)
}

// RemoveExpired 移除非活跃或已关闭的条目 返回移除数量
func (c *Cache) RemoveExpired() int {
	c.mut.Lock()
	defer c.mut.Unlock()

	var removed int
	for k, entry := range c.set {
		closed := entry.Flow.SessionState()&tcp.StreamStateClosed != 0
		if closed || entry.Flow.Expired() || fasttime.Since(entry.activeAt) > c.expired {
			delete(c.set, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) gc() {
	ticker := time.NewTicker(c.expired / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()

		case <-c.done:
			return
		}
	}
}
