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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sensord/sensord/common"
)

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "uptime",
			Help:      "Uptime in seconds",
		},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "git_hash", "build_time"},
	)

	daqReceivedPackets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "daq_received_packets_total",
			Help:      "DAQ received packets total",
		},
		[]string{"iface"},
	)

	daqDroppedPackets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "daq_dropped_packets_total",
			Help:      "DAQ dropped packets total",
		},
		[]string{"iface"},
	)

	decodedPackets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "decoded_packets_total",
			Help:      "Decoded packets total",
		},
	)

	droppedFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "dropped_frames_total",
			Help:      "Frames dropped because worker queues were full",
		},
	)

	handledEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "handled_events_total",
			Help:      "Handled telemetry events total",
		},
	)

	activeFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "active_flows",
			Help:      "Active flow entries",
		},
	)
)
