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

// Package pktmgr 装配 codec 注册表并驱动 decode/encode 流水线
//
// Manager 在启动阶段完成全部写操作 此后协议映射表与实例表只读
// 数据包处理热路径无需任何锁
package pktmgr

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/logger"
	"github.com/sensord/sensord/telemetry"
)

func newError(format string, args ...any) error {
	format = "pktmgr: " + format
	return errors.Errorf(format, args...)
}

const (
	// maxCodecs codec 下标为 8bit 0 号槽位保留给默认 codec
	maxCodecs = 255

	// protoIDSpace 协议号空间大小
	protoIDSpace = 1 << 16
)

// 统计数组的固定前缀
const (
	statTotal = iota
	statOther
	statDiscards
	statOffset
)

var statNames = []string{"total", "other", "discards"}

// Config decode 流水线配置
type Config struct {
	// MaxEncapsulations 允许的最大隧道封装层数 -1 表示不限制
	MaxEncapsulations int `config:"maxEncapsulations"`

	// SnapLen 捕获截断长度 超出部分不参与解码
	SnapLen uint32 `config:"snapLen"`

	// CodecOptions 逐 codec 的自由格式选项 键为 codec 名称小写
	CodecOptions map[string]map[string]any `config:"codecs"`
}

func (c *Config) Validate() {
	if c.MaxEncapsulations == 0 {
		c.MaxEncapsulations = 4
	}
	if c.SnapLen == 0 || c.SnapLen > codec.PktMax {
		c.SnapLen = codec.PktMax
	}
}

// Manager codec 注册表
//
// 持有全部 codec 实例与 协议号 -> codec 下标 的映射
// InstantiateAll 之后不再发生写操作 worker 线程以只读方式共享
type Manager struct {
	cfg Config

	apis       []*codec.API
	defaultAPI *codec.API

	protocols [maxCodecs + 1]codec.Codec
	protoMap  [protoIDSpace]uint8
	numCodecs int

	events telemetry.Sink

	// gstats 全局统计 仅在线程退出时持锁累加
	mut    sync.Mutex
	gstats []uint64
}

// New 创建 Manager
//
// defaultAPI 为 0 号槽位的链路层默认 codec 不可为空
// events 允许为 nil 表示丢弃解码事件
func New(cfg Config, defaultAPI *codec.API, events telemetry.Sink) (*Manager, error) {
	if defaultAPI == nil {
		return nil, newError("default codec api required")
	}
	cfg.Validate()

	m := &Manager{
		cfg:        cfg,
		defaultAPI: defaultAPI,
		events:     events,
		gstats:     make([]uint64, statOffset+maxCodecs+1),
	}
	if err := m.Register(defaultAPI); err != nil {
		return nil, err
	}
	return m, nil
}

// Register 追加一个 codec 插件描述符
//
// 描述符缺失 Ctor/Dtor 或名称重复时返回错误 调用方应视作致命配置错误
func (m *Manager) Register(api *codec.API) error {
	if api.Ctor == nil {
		return newError("codec %s: Ctor must be implemented", api.Name)
	}
	if api.Dtor == nil {
		return newError("codec %s: Dtor must be implemented", api.Name)
	}

	for _, prev := range m.apis {
		if strings.EqualFold(prev.Name, api.Name) {
			return newError("codec %s: name already registered", api.Name)
		}
	}

	m.apis = append(m.apis, api)
	return nil
}

// InstantiateAll 构造所有已注册 codec 并安装协议号映射
//
// 每个 api 执行一次进程级初始化钩子 实例绑定到 1..254 的递增下标
// 0 号槽位指向默认 codec 的实例 协议号声明冲突时后注册者生效
func (m *Manager) InstantiateAll() error {
	if m.numCodecs != 0 {
		return newError("already instantiated")
	}

	codecID := 1
	for _, api := range m.apis {
		if codecID >= maxCodecs {
			return newError("a maximum of %d codecs can be registered", maxCodecs-1)
		}

		if api.PInit != nil {
			api.PInit()
		}

		cd := api.Ctor(common.Options(m.cfg.CodecOptions[strings.ToLower(api.Name)]))
		for _, id := range cd.ProtocolIDs() {
			if id == codec.ProtoFinished {
				logger.Warnf("codec %s claims reserved protocol id, ignored", cd.Name())
				continue
			}
			if prev := m.protoMap[id]; prev != 0 {
				logger.Warnf("codecs %s and %s both registered for protocol id %d, %s wins",
					m.protocols[prev].Name(), cd.Name(), id, cd.Name())
			}
			m.protoMap[id] = uint8(codecID)
		}

		m.protocols[codecID] = cd
		if api == m.defaultAPI {
			// 默认 codec 同时占据 0 号槽位 作为解码终结槽
			m.protocols[0] = cd
		}
		codecID++
	}

	m.numCodecs = codecID
	return nil
}

// ReleaseAll 执行进程级清理钩子并销毁全部实例
func (m *Manager) ReleaseAll() {
	for _, api := range m.apis {
		if api.PTerm != nil {
			api.PTerm()
		}

		if idx := m.lookup(api.Name); idx != 0 {
			api.Dtor(m.protocols[idx])
			m.protocols[idx] = nil
		}
	}
	m.apis = nil
	m.protocols[0] = nil
	m.numCodecs = 0
}

// lookup 按名称检索 codec 下标 检索从 1 开始 0 号槽位是重复项
func (m *Manager) lookup(name string) uint8 {
	for i := 1; i <= maxCodecs; i++ {
		if m.protocols[i] == nil {
			continue
		}
		if strings.EqualFold(m.protocols[i].Name(), name) {
			return uint8(i)
		}
	}
	return 0
}

// HasCodec 返回指定下标是否存在 codec 实例
func (m *Manager) HasCodec(id uint8) bool {
	return m.protocols[id] != nil
}

// MappedCodec 返回协议号映射到的 codec 下标 未映射时为 0
func (m *Manager) MappedCodec(id codec.ProtoID) uint8 {
	return m.protoMap[id]
}

func (m *Manager) emit(name string) {
	if m.events == nil {
		return
	}
	m.events.Emit(telemetry.NewRecord("decode", name, socketTupleNone))
}
