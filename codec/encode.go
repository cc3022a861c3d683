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

package codec

// EncodeType 响应包类型
type EncodeType uint8

const (
	EncTCPRst EncodeType = iota
	EncTCPFin
	EncUnreachNet
	EncUnreachHost
	EncUnreachPort
)

// EncodeFlags 编码选项位
type EncodeFlags uint32

const (
	// EncFlagFwd 按原方向编码 不交换地址与端口
	EncFlagFwd EncodeFlags = 1 << iota

	// EncFlagSeq 使用 EncState 给定的序列号
	EncFlagSeq

	// EncFlagID 保留原始 IP ID
	EncFlagID

	// EncFlagNet 克隆时只拷贝到最内层 IP 层为止
	EncFlagNet

	// EncFlagRaw 不附加链路层头
	EncFlagRaw
)

// EncState 响应编码过程中的共享状态
//
// 编码按层推进 Layer 指向当前正在编码的层
type EncState struct {
	Type  EncodeType
	Flags EncodeFlags

	// Layer 当前层下标
	Layer int

	// P 响应所依据的原始包
	P *Packet

	// Payload 响应携带的载荷
	Payload []byte

	// NextProto 内层协议号 由内层 codec 编码后回填
	// 供外层 codec 填写自己的 next-protocol 字段
	NextProto ProtoID

	// Seq/Ack EncFlagSeq 置位时使用
	Seq uint32
	Ack uint32
}

// Buffer 响应包的组装缓冲区
//
// 采用后向填充约定 off 从 slab 末端开始 每次 Prepend(n) 前移 n 字节
// 最终的数据包即 slab[off:] 不存在越过缓冲区末端的基址
type Buffer struct {
	slab []byte
	off  int
}

// NewBuffer 以 slab 创建空 Buffer
func NewBuffer(slab []byte) *Buffer {
	return &Buffer{
		slab: slab,
		off:  len(slab),
	}
}

// Prepend 向前开辟 n 字节的头部空间
//
// 空间不足时返回 false 已写入内容保持不变
func (b *Buffer) Prepend(n int) ([]byte, bool) {
	if n > b.off {
		return nil, false
	}
	b.off -= n
	return b.slab[b.off : b.off+n], true
}

// Len 已写入的字节数
func (b *Buffer) Len() int {
	return len(b.slab) - b.off
}

// Bytes 返回已组装的数据包
func (b *Buffer) Bytes() []byte {
	return b.slab[b.off:]
}
