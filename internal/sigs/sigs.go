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

// Package sigs 约定传感器进程的信号语义
//
// SIGTERM/SIGINT 终止 SIGHUP 重载捕获过滤 SIGUSR1 导出 codec 统计
package sigs

import (
	"os"
	"os/signal"
	"syscall"
)

func watch(signals ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	return ch
}

// Terminate 等待终止信号
func Terminate() chan os.Signal {
	return watch(os.Interrupt, syscall.SIGTERM)
}

// Reload 等待 Reload 信号 使用 SIGHUP
func Reload() chan os.Signal {
	return watch(syscall.SIGHUP)
}

// DumpStats 等待统计导出信号 使用 SIGUSR1
//
// 排障时可以不经 admin 接口直接 kill -USR1 获取 codec 统计
func DumpStats() chan os.Signal {
	return watch(syscall.SIGUSR1)
}

// SelfReload 主动触发 Reload 信号
func SelfReload() error {
	return syscall.Kill(syscall.Getpid(), syscall.SIGHUP)
}
