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

// Package codec 定义协议编解码器的抽象以及 Packet/Layer 数据模型
//
// 所有的协议 codec 都需实现 Codec 接口 由插件通过 Register 自注册
// codec 实例的构建与生命周期由 pktmgr 统一管理
package codec

import (
	"github.com/sensord/sensord/common"
)

// Decoded 单层解码结果
type Decoded struct {
	// LyrLen 本层头部长度
	LyrLen uint16

	// NextProtID 下一层协议号 解码结束时为 ProtoFinished
	NextProtID ProtoID
}

// Codec 协议编解码器定义
//
// 实现方必须将 Decode/Encode/Update/Format 视作其入参的纯函数
// 任何可变状态要么随 TInit 安装为线程本地 要么只读
type Codec interface {
	// Name 返回 codec 名称 注册表内大小写不敏感唯一
	Name() string

	// ProtoTag 返回本 codec 解码层的类型标签
	ProtoTag() Tag

	// ProtocolIDs 返回本 codec 声明处理的协议号列表
	ProtocolIDs() []ProtoID

	// DataLinkTypes 返回本 codec 可作为入口解码器的链路层类型（DLT）
	//
	// 绝大多数 codec 返回 nil 仅链路层 codec 返回非空
	DataLinkTypes() []int32

	// Decode 解析一层协议头
	//
	// raw 为剩余未解码字节 不允许修改 返回 false 表示拒绝解码
	// 成功时须保证 Decoded.LyrLen <= len(raw)
	Decode(raw []byte, pkt *Packet) (Decoded, bool)

	// Encode 构造响应包中本层的头部
	//
	// 从 buf 头部 Prepend 空间并填写字段 orig 为原始包中本层的头部字节
	// 返回 false 时整个响应构造终止
	Encode(enc *EncState, buf *Buffer, orig []byte) bool

	// Format 在克隆包上重整本层头部 使外层头部能反映新的内层载荷
	//
	// 调用方向恒为 `由外到内`
	Format(flags EncodeFlags, src *Packet, dst *Packet, lyr *Layer)

	// Update 重算本层的长度与校验和字段
	//
	// length 为自内而外累计的字节数 初值为载荷长度
	// 实现方须在重算字段后加上本层头部长度
	Update(pkt *Packet, lyr *Layer, length *uint32)
}

// API codec 插件描述符
//
// 与 Codec 的区别在于 API 是工厂与生命周期契约 Codec 是活的实例
type API struct {
	Name    string
	Version string

	// PInit/PTerm 进程级别的初始化与清理钩子 可选
	PInit func()
	PTerm func()

	// TInit/TTerm 线程级别的初始化与清理钩子 可选
	//
	// codec 的线程本地状态应在 TInit 中安装
	TInit func()
	TTerm func()

	// Ctor/Dtor 实例的构造与销毁 必须提供
	//
	// opts 为配置中该 codec 的自由格式选项 允许为 nil
	Ctor func(opts common.Options) Codec
	Dtor func(Codec)
}

var registered []*API

// Register codec 插件自注册入口
//
// 通常在插件包的 init 函数中调用 描述符的校验推迟到 pktmgr 装配阶段
func Register(api *API) {
	registered = append(registered, api)
}

// Registered 返回已注册的插件描述符 按注册顺序
func Registered() []*API {
	return registered
}
