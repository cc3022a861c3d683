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

package controller

import (
	"encoding/binary"
	"net"

	"github.com/cespare/xxhash/v2"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common/socket"
	"github.com/sensord/sensord/daq"
	"github.com/sensord/sensord/detect"
	"github.com/sensord/sensord/flowcache"
	"github.com/sensord/sensord/internal/rescue"
	"github.com/sensord/sensord/pktmgr"
	"github.com/sensord/sensord/stream/tcp"
)

// frameJob 投递给 worker 的单个捕获帧
//
// 捕获源会复用底层内存 入队前必须完成拷贝
type frameJob struct {
	hdr daq.PktHdr
	raw []byte
}

// worker 独占一份 ThreadCtx 串行处理分派给它的帧
type worker struct {
	ctrl *Controller

	tctx *pktmgr.ThreadCtx
	pkt  *codec.Packet
	ictx *detect.Context

	jobs chan frameJob
}

func (c *Controller) startWorkers() error {
	baseDLT := c.source.BaseLinkType()

	for i := 0; i < c.cfg.Workers; i++ {
		tctx, err := c.mgr.ThreadInit(baseDLT)
		if err != nil {
			return err
		}

		w := &worker{
			ctrl: c,
			tctx: tctx,
			pkt:  codec.NewPacket(),
			ictx: detect.NewContext(),
			jobs: make(chan frameJob, 256),
		}
		c.workers = append(c.workers, w)
		c.wgWorkers.Add(1)
		rescue.Go("decode-worker", w.run)
	}
	return nil
}

func (c *Controller) stopWorkers() {
	for _, w := range c.workers {
		close(w.jobs)
	}
	c.wgWorkers.Wait()
}

// dispatchFrame 捕获帧入口 按对称流哈希选择 worker
//
// 同一条流的双向数据包恒命中同一 worker 保证流内按捕获序处理
func (c *Controller) dispatchFrame(hdr *daq.PktHdr, raw []byte) {
	w := c.workers[symmetricFlowHash(hdr, raw)%uint64(len(c.workers))]

	job := frameJob{hdr: *hdr}
	job.raw = append(job.raw, raw...)

	select {
	case w.jobs <- job:
	default:
		droppedFrames.Inc()
	}
}

func (w *worker) run() {
	defer w.ctrl.wgWorkers.Done()
	defer w.tctx.Term()

	for job := range w.jobs {
		w.process(&job)
	}
}

func (w *worker) process(job *frameJob) {
	w.ictx.Clear()
	w.tctx.Decode(w.pkt, &job.hdr, job.raw)
	decodedPackets.Inc()

	w.ictx.Packet = w.pkt
	if w.pkt.PacketFlags&codec.PktTrust != 0 {
		return
	}

	if w.pkt.ProtoBits&codec.BitTCP != 0 {
		w.trackTCP(w.pkt)
	}
}

// trackTCP 将以 TCP 收尾的数据包送入会话状态机
func (w *worker) trackTCP(pkt *codec.Packet) {
	tuple, ok := packetTuple(pkt)
	if !ok {
		return
	}

	c := w.ctrl
	entry := c.flows.GetOrCreate(tuple, func(flow *flowcache.Flow) *tcp.Session {
		return tcp.NewSession(flow, &c.tcpConfig, c.sinks)
	})

	dir := tcp.DirToServer
	if tuple != entry.Flow.Origin() {
		dir = tcp.DirToClient
	}

	tsd, err := tcp.NewSegmentDescriptor(entry.Flow, pkt, dir)
	if err != nil {
		return
	}

	actions := entry.Session.OnSegment(tsd)
	if actions&tcp.ActionClosed != 0 {
		c.flows.Delete(tuple)
	}
}

// packetTuple 从层序列还原四元组
func packetTuple(p *codec.Packet) (socket.Tuple, bool) {
	var tuple socket.Tuple
	var hasIP, hasTCP bool

	for i := 0; i < p.NumLayers(); i++ {
		lyr := p.Layers[i]
		raw := p.LayerBytes(i)

		switch lyr.Proto {
		case codec.TagIP4:
			if len(raw) < 20 {
				return tuple, false
			}
			tuple.SrcIP = socket.ToIPV4(net.IP(raw[12:16]))
			tuple.DstIP = socket.ToIPV4(net.IP(raw[16:20]))
			hasIP = true

		case codec.TagIP6:
			if len(raw) < 40 {
				return tuple, false
			}
			tuple.SrcIP = socket.ToIPV6(net.IP(raw[8:24]))
			tuple.DstIP = socket.ToIPV6(net.IP(raw[24:40]))
			hasIP = true

		case codec.TagTCP:
			if len(raw) < 4 {
				return tuple, false
			}
			tuple.SrcPort = socket.Port(binary.BigEndian.Uint16(raw[0:2]))
			tuple.DstPort = socket.Port(binary.BigEndian.Uint16(raw[2:4]))
			hasTCP = true
		}
	}
	return tuple, hasIP && hasTCP
}

// symmetricFlowHash 计算方向无关的流哈希
//
// 对地址与端口分别做 XOR 两个方向得到同一哈希值
// 非 IP 帧退化为按入口网卡哈希
func symmetricFlowHash(hdr *daq.PktHdr, raw []byte) uint64 {
	const ethHdrLen = 14

	var key [20]byte
	if len(raw) >= ethHdrLen+2 {
		ethType := binary.BigEndian.Uint16(raw[12:14])
		ip := raw[ethHdrLen:]

		switch {
		case ethType == 0x0800 && len(ip) >= 24:
			ihl := int(ip[0]&0x0F) * 4
			for i := 0; i < 4; i++ {
				key[i] = ip[12+i] ^ ip[16+i]
			}
			if len(ip) >= ihl+4 {
				copy(key[4:8], ip[ihl:ihl+4])
				key[4] ^= key[6]
				key[5] ^= key[7]
			}
			return xxhash.Sum64(key[:6])

		case ethType == 0x86DD && len(ip) >= 44:
			for i := 0; i < 16; i++ {
				key[i] = ip[8+i] ^ ip[24+i]
			}
			copy(key[16:20], ip[40:44])
			key[16] ^= key[18]
			key[17] ^= key[19]
			return xxhash.Sum64(key[:18])
		}
	}

	binary.LittleEndian.PutUint32(key[:4], uint32(hdr.IngressIndex))
	return xxhash.Sum64(key[:4])
}
