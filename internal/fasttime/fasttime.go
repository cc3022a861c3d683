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

// Package fasttime 提供秒级精度的低开销时钟
//
// 流表过期与事件打点只需要秒级精度 没必要在热路径上反复调用
// time.Now
package fasttime

import (
	"sync/atomic"
	"time"
)

var currentTimestamp atomic.Int64

func init() {
	currentTimestamp.Store(time.Now().Unix())

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for tm := range ticker.C {
			currentTimestamp.Store(tm.Unix())
		}
	}()
}

// UnixTimestamp 获取当前 unix 时间戳 性能更快
func UnixTimestamp() int64 {
	return currentTimestamp.Load()
}

// Since 返回自 ts（unix 秒）以来经过的时长 秒级精度
func Since(ts int64) time.Duration {
	return time.Duration(UnixTimestamp()-ts) * time.Second
}
