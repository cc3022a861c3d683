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

// ProtoID 16bit 的下一层协议号
//
// 取值空间复用了两个体系
// * < 256 为 IP Protocol Numbers
// * >= 0x0600 为 EtherType
// 二者天然不重叠 可以共用一张映射表
type ProtoID uint16

const (
	// ProtoFinished 解码结束哨兵值
	//
	// codec 解码完成且无后继协议时返回该值 映射表中恒定指向默认 codec
	ProtoFinished ProtoID = 0xFFFF
)

// IP Protocol Numbers
const (
	ProtoIP6HopOpts ProtoID = 0
	ProtoICMP4      ProtoID = 1
	ProtoIPIP       ProtoID = 4
	ProtoTCP        ProtoID = 6
	ProtoUDP        ProtoID = 17
	ProtoIP6Encap   ProtoID = 41
	ProtoIP6Routing ProtoID = 43
	ProtoIP6Frag    ProtoID = 44
	ProtoGRE        ProtoID = 47
	ProtoESP        ProtoID = 50
	ProtoAH         ProtoID = 51
	ProtoICMP6      ProtoID = 58
	ProtoIP6DstOpts ProtoID = 60
)

// EtherTypes
const (
	ProtoEtherIP4  ProtoID = 0x0800
	ProtoEtherARP  ProtoID = 0x0806
	ProtoEtherVLAN ProtoID = 0x8100
	ProtoEtherIP6  ProtoID = 0x86DD
)

// Tag 标识 codec 解码的层类型
//
// Layer 记录该值 encode/format 阶段据此定位 IP 层边界
type Tag uint8

const (
	TagUnknown Tag = iota
	TagLink
	TagVlan
	TagIP4
	TagIP6
	TagIP6Ext
	TagTCP
	TagUDP
	TagICMP4
	TagICMP6
	TagESP
	TagGRE
)

// IsIP 返回该层是否为 IP 层
func (t Tag) IsIP() bool {
	return t == TagIP4 || t == TagIP6
}

// ProtoBits Packet 上的协议位图 由 PushLayer 自动维护
const (
	BitLink uint32 = 1 << iota
	BitVlan
	BitIP4
	BitIP6
	BitIP6Ext
	BitTCP
	BitUDP
	BitICMP4
	BitICMP6
	BitESP
	BitGRE
)

var tagBits = map[Tag]uint32{
	TagLink:   BitLink,
	TagVlan:   BitVlan,
	TagIP4:    BitIP4,
	TagIP6:    BitIP6,
	TagIP6Ext: BitIP6Ext,
	TagTCP:    BitTCP,
	TagUDP:    BitUDP,
	TagICMP4:  BitICMP4,
	TagICMP6:  BitICMP6,
	TagESP:    BitESP,
	TagGRE:    BitGRE,
}
