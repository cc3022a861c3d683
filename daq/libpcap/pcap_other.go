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

//go:build !linux

package libpcap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/pcap"
	"github.com/pkg/errors"

	"github.com/sensord/sensord/daq"
	"github.com/sensord/sensord/logger"
)

func init() {
	daq.Register(New, Name, "")
}

type handler struct {
	name     string
	handle   *pcap.Handle
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
		if h.handle != nil {
			return int32(h.handle.LinkType())
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
			if v, err := h.handle.Stats(); err == nil {
				st.Drops = uint64(v.PacketsDropped)
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
		handle, err := pcap.OpenLive(iface.Name, defaultCaptureLength, true, defaultPollTimeout)
		if err != nil {
			logger.Errorf("open iface (%s) failed: %v", iface.Name, err)
			continue
		}
		if ps.conf.BPF != "" {
			if err := handle.SetBPFFilter(ps.conf.BPF); err != nil {
				handle.Close()
				return errors.Wrapf(err, "set bpf-filter (%s) failed", ps.conf.BPF)
			}
		}
		ps.handlers = append(ps.handlers, &handler{handle: handle, name: iface.Name})
		logger.Infof("daq add device (%s), address=%v", iface.Name, ifaceAddress(iface))
	}

	if len(ps.handlers) == 0 {
		return errors.New("no available devices found")
	}
	return nil
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
	ps.wg.Add(1)
	defer ps.wg.Done()

	handle := ph.handle
	if ph.pfile != nil {
		handle = ph.pfile
	}
	defer handle.Close()

	for {
		select {
		case <-ps.ctx.Done():
			return

		default:
			raw, ci, err := handle.ZeroCopyReadPacketData()
			if err != nil {
				if errors.Is(err, pcap.NextErrorTimeoutExpired) {
					continue
				}
				logger.Infof("pcap handle (%s) closed: %v", ph.name, err)
				return
			}
			if ci.Timestamp.IsZero() {
				ci.Timestamp = time.Now()
			}
			ps.deliver(ph, raw, ci)
		}
	}
}

func (ps *pcapSource) Reload(conf *daq.Config) error {
	for _, h := range ps.handlers {
		if h.handle == nil {
			continue
		}
		if err := h.handle.SetBPFFilter(conf.BPF); err != nil {
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
