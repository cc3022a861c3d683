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

package pktmgr

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/logger"
)

const (
	// ipIDCount 预生成的 IP ID 池大小
	ipIDCount = 8192
)

// ThreadCtx 单个 worker 线程独占的解码环境
//
// 内部不存在任何共享可变状态 禁止跨线程传递
type ThreadCtx struct {
	mgr *Manager

	// grinder 入口 codec 下标 与捕获源链路层类型匹配
	grinder uint8

	// stats 线程本地统计 非原子 在 Term 时并入全局
	stats []uint64

	rnd    *mrand.Rand
	idPool [ipIDCount]uint16
	idIdx  int

	// scratch 响应包组装缓冲区
	scratch [codec.PktMax]byte

	// encodePkt 编码目标覆盖 设置后 EncodeResponse 以其为蓝本
	encodePkt *codec.Packet

	// dstMAC 响应包目的 MAC 覆盖
	dstMAC []byte

	rebuiltPkts uint64
}

// ThreadInit 构造线程解码环境
//
// 依次执行各 codec 的线程初始化钩子 再按捕获源的链路层类型选定
// grinder 无匹配时返回错误 多个匹配时告警并取后者
func (m *Manager) ThreadInit(baseDLT int32) (*ThreadCtx, error) {
	if m.numCodecs == 0 {
		return nil, newError("instantiate before thread init")
	}

	for _, api := range m.apis {
		if api.TInit != nil {
			api.TInit()
		}
	}

	t := &ThreadCtx{
		mgr:   m,
		stats: make([]uint64, statOffset+maxCodecs+1),
	}

	for i := 0; i <= maxCodecs; i++ {
		cd := m.protocols[i]
		if cd == nil {
			continue
		}
		for _, dlt := range cd.DataLinkTypes() {
			if dlt != baseDLT {
				continue
			}
			if t.grinder != 0 {
				logger.Warnf("codecs %s and %s both registered as the raw decoder, %s wins",
					m.protocols[t.grinder].Name(), cd.Name(), cd.Name())
			}
			t.grinder = uint8(i)
		}
	}

	if t.grinder == 0 {
		return nil, newError("unable to find a codec with data link type %d", baseDLT)
	}
	logger.Infof("decoding with %s", m.protocols[t.grinder].Name())

	if err := t.resetRand(); err != nil {
		return nil, err
	}
	return t, nil
}

// resetRand 初始化线程随机源并重填 IP ID 池
func (t *ThreadCtx) resetRand() error {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return newError("rand init failed: %v", err)
	}

	t.rnd = mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
	for i := range t.idPool {
		t.idPool[i] = uint16(t.rnd.Uint32())
	}
	t.idIdx = 0
	return nil
}

// Term 线程退出 统计并入全局后执行各 codec 的线程清理钩子
func (t *ThreadCtx) Term() {
	t.accumulate()

	for _, api := range t.mgr.apis {
		if api.TTerm != nil {
			api.TTerm()
		}
	}
	t.rnd = nil
}

func (t *ThreadCtx) accumulate() {
	t.mgr.mut.Lock()
	defer t.mgr.mut.Unlock()

	for i, v := range t.stats {
		t.mgr.gstats[i] += v
	}
}

// NextIPID 从线程本地池中取下一个 IP ID
func (t *ThreadCtx) NextIPID() uint16 {
	id := t.idPool[t.idIdx]
	t.idIdx = (t.idIdx + 1) % ipIDCount
	return id
}

// SetEncodePkt 设置编码目标覆盖 传 nil 清除
func (t *ThreadCtx) SetEncodePkt(p *codec.Packet) {
	t.encodePkt = p
}

// SetDstMAC 设置响应包目的 MAC 覆盖
func (t *ThreadCtx) SetDstMAC(mac []byte) {
	t.dstMAC = mac
}

// DstMAC 返回响应包目的 MAC 覆盖 未设置时为 nil
func (t *ThreadCtx) DstMAC() []byte {
	return t.dstMAC
}

// RebuiltPackets 返回线程累计克隆的伪包数量
func (t *ThreadCtx) RebuiltPackets() uint64 {
	return t.rebuiltPkts
}
