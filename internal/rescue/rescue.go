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

// Package rescue 隔离后台 goroutine 的 panic
//
// 单个 worker 崩溃只丢它手上的那个数据包 不拖垮整个传感器进程
package rescue

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/logger"
)

var panicTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "panic_total",
		Help:      "program causes panic total",
	},
	[]string{"name"},
)

func logPanic(name string, r any) {
	const size = 64 << 10
	stacktrace := make([]byte, size)
	stacktrace = stacktrace[:runtime.Stack(stacktrace, false)]
	if _, ok := r.(string); ok {
		logger.Errorf("Observed a panic in %s: %s\n%s", name, r, stacktrace)
	} else {
		logger.Errorf("Observed a panic in %s: %#v (%v)\n%s", name, r, r, stacktrace)
	}
}

// Go 以命名后台 goroutine 运行 fn 并接管其 panic
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicTotal.WithLabelValues(name).Inc()
				logPanic(name, r)
			}
		}()
		fn()
	}()
}
