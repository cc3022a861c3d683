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

package libpcap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/afpacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcap"
	"github.com/pkg/errors"
	"golang.org/x/net/bpf"

	"github.com/sensord/sensord/daq"
	"github.com/sensord/sensord/logger"
)

func init() {
	daq.Register(New, Name, "")
}

type handler struct {
	name     string
	handle   *afpacket.TPacket
	pfile    *pcap.Handle
	captured atomic.Uint64
}

type pcapSource struct {
	ctx      context.Context
	cancel   context.CancelFunc
	conf     *daq.Config
	handlers []*handler
	wg       sync.WaitGroup
	onFrame  daq.OnFrame
}

func New(conf *daq.Config) (daq.Source, error) {
	src := &pcapSource{
		conf: conf,
	}

	src.ctx, src.cancel = context.WithCancel(context.Background())
	if err := src.makeHandlers(); err != nil {
		return nil, err
	}

	for _, h := range src.handlers {
		go src.listen(h)
	}

	return src, nil
}

func (ps *pcapSource) Name() string {
	return Name
}

func (ps *pcapSource) BaseLinkType() int32 {
	for _, h := range ps.handlers {
		if h.pfile != nil {
			return int32(h.pfile.LinkType())
		}
	}
	return dltEthernet
}

func (ps *pcapSource) SetOnFrame(f daq.OnFrame) {
	ps.onFrame = f
}

func (ps *pcapSource) Stats() []daq.Stats {
	stats := make([]daq.Stats, 0, len(ps.handlers))
	for _, h := range ps.handlers {
		st := daq.Stats{Name: h.name, Packets: h.captured.Load()}
		if h.handle != nil {
			if _, v3, err := h.handle.SocketStats(); err == nil {
				st.Drops = uint64(v3.Drops())
			}
		}
		stats = append(stats, st)
	}
	return stats
}

func (ps *pcapSource) makeHandlers() error {
	ifaces, err := filterInterfaces(ps.conf.Ifaces, ps.conf.IPv4Only)
	if err != nil {
		return err
	}

	if len(ps.conf.File) > 0 {
		tp, err := makeFileHandle(ps.conf.File, ps.conf.BPF)
		if err != nil {
			return err
		}
		ps.handlers = append(ps.handlers, &handler{
			name:  fmt.Sprintf("pcap.file: %s", ps.conf.File),
			pfile: tp,
		})
		logger.Infof("daq add pcap file (%s)", ps.conf.File)
		return nil
	}

	for _, iface := range ifaces {
		tp, err := ps.getTpacket(iface.Name)
		if err != nil {
			logger.Errorf("make iface (%s) *afpacket failed: %v", iface.Name, err)
			continue
		}

		if ps.conf.BPF != "" {
			if err = ps.setBPFFilter(tp, ps.conf.BPF); err != nil {
				tp.Close()
				return errors.Wrapf(err, "set bpf-filter (%s) failed", ps.conf.BPF)
			}
		}

		ps.handlers = append(ps.handlers, &handler{handle: tp, name: iface.Name})
		logger.Infof("daq add device (%s), address=%v", iface.Name, ifaceAddress(iface))
	}

	if len(ps.handlers) == 0 {
		return errors.New("no available devices found")
	}
	return nil
}

func (ps *pcapSource) getTpacket(device string) (*afpacket.TPacket, error) {
	blockNumOpt := afpacket.OptNumBlocks(defaultBlockNum)
	pollTimeout := afpacket.OptPollTimeout(defaultPollTimeout)

	if device == deviceAny {
		return afpacket.NewTPacket(blockNumOpt, pollTimeout)
	}
	return afpacket.NewTPacket(afpacket.OptInterface(device), blockNumOpt, pollTimeout)
}

func (ps *pcapSource) setBPFFilter(tp *afpacket.TPacket, filter string) error {
	pcapBPF, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, defaultCaptureLength, filter)
	if err != nil {
		return err
	}
	var bpfIns []bpf.RawInstruction
	for _, ins := range pcapBPF {
		bpfIns = append(bpfIns, bpf.RawInstruction{
			Op: ins.Code,
			Jt: ins.Jt,
			Jf: ins.Jf,
			K:  ins.K,
		})
	}
	return tp.SetBPF(bpfIns)
}

func (ps *pcapSource) deliver(h *handler, raw []byte, ci gopacket.CaptureInfo) {
	if ps.onFrame == nil {
		return
	}

	h.captured.Add(1)
	hdr := &daq.PktHdr{
		Ts:           ci.Timestamp,
		CapLen:       uint32(ci.CaptureLength),
		PktLen:       uint32(ci.Length),
		IngressIndex: int32(ci.InterfaceIndex),
	}
	ps.onFrame(hdr, raw)
}

func (ps *pcapSource) listen(ph *handler) {
	if ph.pfile != nil {
		ps.listenPcapFile(ph)
		return
	}

	ps.listenAfPacket(ph)
}

func (ps *pcapSource) listenAfPacket(ph *handler) {
	ps.wg.Add(1)
	defer ps.wg.Done()

	defer ph.handle.Close()

	for {
		select {
		case <-ps.ctx.Done():
			return

		default:
			raw, ci, err := ph.handle.ZeroCopyReadPacketData()
			if err != nil {
				if errors.Is(err, pcap.NextErrorNotActivated) {
					logger.Warnf("iface (%s) not active: %v", ph.name, err)
					return
				}
				continue
			}
			ps.deliver(ph, raw, ci)
		}
	}
}

func (ps *pcapSource) listenPcapFile(ph *handler) {
	ps.wg.Add(1)
	defer ps.wg.Done()

	for {
		raw, ci, err := ph.pfile.ZeroCopyReadPacketData()
		if err != nil {
			logger.Infof("pcap handle (%s) closed: %v", ph.name, err)
			return
		}
		if ci.Timestamp.IsZero() {
			ci.Timestamp = time.Now()
		}
		ps.deliver(ph, raw, ci)
	}
}

func (ps *pcapSource) Reload(conf *daq.Config) error {
	for _, h := range ps.handlers {
		if h.handle == nil {
			continue
		}
		if err := ps.setBPFFilter(h.handle, conf.BPF); err != nil {
			return err
		}
	}
	ps.conf = conf
	return nil
}

func (ps *pcapSource) Close() {
	ps.cancel()
	ps.wg.Wait()
}
