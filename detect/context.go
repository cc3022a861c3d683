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

// Package detect 提供逐包检测上下文
//
// Context 为单个在途数据包保存检测所需的全部暂存状态 状态以槽位
// 形式存放 每种数据类型在启动阶段注册一次拿到固定下标 以静态下标
// 取代运行时类型派发
package detect

import (
	"sync/atomic"

	"github.com/sensord/sensord/codec"
)

// Data 检测上下文槽位数据
//
// Reset 在 Context 复用前被调用 实现方须清空逐包状态
type Data interface {
	Reset()
}

// maxID 单调递增的槽位分配器
//
// 仅允许在静态初始化阶段递增 所有注册须在 worker 线程启动前完成
var maxID atomic.Int32

// RegisterData 分配一个新的槽位下标
//
// 每种数据类型在启动阶段调用一次 把返回值保存为包级变量
func RegisterData() int {
	return int(maxID.Add(1)) - 1
}

// MaxID 返回已分配的槽位数量
func MaxID() int {
	return int(maxID.Load())
}

// Context 单个在途数据包的检测环境
type Context struct {
	// Packet 当前被检测的数据包
	Packet *codec.Packet

	// EncodePacket 编码目标覆盖 供响应构造使用
	EncodePacket *codec.Packet

	// Buf 检测阶段的通用暂存区
	Buf []byte

	data []Data
}

// NewContext 创建 Context 槽位数量取当前已注册上限
func NewContext() *Context {
	return &Context{
		Buf:  make([]byte, codec.PktMax),
		data: make([]Data, MaxID()),
	}
}

// SetData 安装槽位数据
func (c *Context) SetData(id int, d Data) {
	c.data[id] = d
}

// GetData 读取槽位数据 未安装时返回 nil
func (c *Context) GetData(id int) Data {
	if id < 0 || id >= len(c.data) {
		return nil
	}
	return c.data[id]
}

// Clear 复用前清空全部槽位内容
func (c *Context) Clear() {
	c.Packet = nil
	c.EncodePacket = nil
	for _, d := range c.data {
		if d != nil {
			d.Reset()
		}
	}
}
