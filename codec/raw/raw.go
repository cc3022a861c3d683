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

// Package raw 提供 0 号槽位的兜底 codec
//
// raw 不解析任何协议头 整帧作为载荷透传 它同时是解码循环的
// 终结槽 协议 codec 插件注册后会以更高的下标赢得 grinder
package raw

import (
	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common"
)

const Name = "raw"

// 常见捕获源的链路层类型
const (
	dltNull     = int32(0)
	dltEthernet = int32(1)
	dltRaw      = int32(12)
	dltLinuxSLL = int32(113)
)

func init() {
	codec.Register(&codec.API{
		Name:    Name,
		Version: common.Version,
		Ctor: func(opts common.Options) codec.Codec {
			return &rawCodec{}
		},
		Dtor: func(codec.Codec) {},
	})
}

type rawCodec struct{}

func (rawCodec) Name() string {
	return Name
}

func (rawCodec) ProtoTag() codec.Tag {
	return codec.TagUnknown
}

func (rawCodec) ProtocolIDs() []codec.ProtoID {
	return nil
}

func (rawCodec) DataLinkTypes() []int32 {
	return []int32{dltNull, dltEthernet, dltRaw, dltLinuxSLL}
}

// Decode 恒拒绝 剩余字节全部归入载荷
func (rawCodec) Decode(raw []byte, pkt *codec.Packet) (codec.Decoded, bool) {
	return codec.Decoded{}, false
}

func (rawCodec) Encode(enc *codec.EncState, buf *codec.Buffer, orig []byte) bool {
	return true
}

func (rawCodec) Format(flags codec.EncodeFlags, src, dst *codec.Packet, lyr *codec.Layer) {}

func (rawCodec) Update(pkt *codec.Packet, lyr *codec.Layer, length *uint32) {}
