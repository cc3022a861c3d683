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

// Package daq 定义捕获源的抽象
//
// Source 只负责把原始链路层帧连同捕获头交给回调 不做任何协议解析
// 解析工作由 decode 流水线完成
package daq

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sensord/sensord/confengine"
)

// PktHdr 单个捕获帧的元信息
//
// 字段语义与 DAQ 捕获头保持一致 克隆数据包时 Flags 中的
// FlagHwTCPCsGood 必须被清除
type PktHdr struct {
	Ts     time.Time
	CapLen uint32
	PktLen uint32

	IngressIndex int32
	EgressIndex  int32
	IngressGroup int32
	EgressGroup  int32

	Flags          uint32
	AddressSpaceID uint32
	Opaque         uint32
}

const (
	// FlagHwTCPCsGood 网卡硬件已校验 TCP checksum
	FlagHwTCPCsGood uint32 = 1 << iota
)

// OnFrame 捕获帧回调
//
// raw 的生命周期仅限回调内部 实现方可能会复用底层内存
// 需要留存时必须 copy
type OnFrame func(hdr *PktHdr, raw []byte)

// Stats 单个捕获句柄的统计
type Stats struct {
	Name    string
	Packets uint64
	Drops   uint64
}

// Source 负责实现网络帧捕获并调用 OnFrame 处理
type Source interface {
	// Name 返回 Source 名称
	Name() string

	// BaseLinkType 返回捕获源的链路层类型 即 DLT 值
	//
	// decode 线程初始化时以此选择入口 codec
	BaseLinkType() int32

	// SetOnFrame 设置捕获帧回调函数
	SetOnFrame(f OnFrame)

	// Stats 返回各捕获句柄统计数据
	Stats() []Stats

	// Reload 动态重载配置参数
	Reload(conf *Config) error

	// Close 关闭 Source 并释放关联资源
	Close()
}

// CreateFunc 创建 Source 的函数类型
type CreateFunc func(conf *Config) (Source, error)

var sourceFactory = map[string]CreateFunc{}

// Register 注册 Source 工厂函数
func Register(f CreateFunc, names ...string) {
	for _, name := range names {
		sourceFactory[name] = f
	}
}

// Get 获取 Source 工厂函数
func Get(name string) (CreateFunc, error) {
	f, ok := sourceFactory[name]
	if !ok {
		return nil, errors.Errorf("daq factory (%s) not found", name)
	}
	return f, nil
}

func New(conf *confengine.Config) (Source, error) {
	var cfg Config
	if err := conf.UnpackChildOr("daq", &cfg); err != nil {
		return nil, err
	}

	if cfg.Engine == "" {
		cfg.Engine = "pcap"
	}

	f, err := Get(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return f(&cfg)
}
