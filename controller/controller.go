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
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common"
	"github.com/sensord/sensord/confengine"
	"github.com/sensord/sensord/daq"
	"github.com/sensord/sensord/exporter"
	"github.com/sensord/sensord/flowcache"
	"github.com/sensord/sensord/internal/json"
	"github.com/sensord/sensord/internal/metricstorage"
	"github.com/sensord/sensord/internal/pubsub"
	"github.com/sensord/sensord/internal/rescue"
	"github.com/sensord/sensord/internal/sigs"
	"github.com/sensord/sensord/logger"
	"github.com/sensord/sensord/pipeline"
	"github.com/sensord/sensord/pktmgr"
	"github.com/sensord/sensord/server"
	"github.com/sensord/sensord/stream/tcp"
	"github.com/sensord/sensord/telemetry"
)

// Controller 组合捕获源 解码流水线与 TCP 会话追踪
type Controller struct {
	cfg       Config
	tcpConfig tcp.Config
	buildInfo common.BuildInfo

	mgr    *pktmgr.Manager
	source daq.Source
	flows  *flowcache.Cache

	pl  *pipeline.Pipeline
	exp *exporter.Exporter
	svr *server.Server

	storage *metricstorage.Storage
	ps      *pubsub.PubSub[telemetry.Record]
	sinks   telemetry.Sinks

	workers   []*worker
	wgWorkers sync.WaitGroup
	events    chan telemetry.Record
	done      chan struct{}
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChildOr("logger", &opts); err != nil {
		return err
	}

	if opts.Filename == "" {
		opts.Filename = "sensord.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

// lookupDefaultAPI 在已注册插件中检索默认 codec 描述符
func lookupDefaultAPI(name string) (*codec.API, error) {
	for _, api := range codec.Registered() {
		if strings.EqualFold(api.Name, name) {
			return api, nil
		}
	}
	return nil, errors.Errorf("default codec (%s) not registered", name)
}

func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChildOr("controller", &cfg); err != nil {
		return nil, err
	}
	if cfg.DefaultCodec == "" {
		cfg.DefaultCodec = "raw"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = common.Concurrency()
	}

	var tcpConfig tcp.Config
	if err := conf.UnpackChildOr("stream", &tcpConfig); err != nil {
		return nil, err
	}
	tcpConfig.Validate()

	storage, err := metricstorage.New(conf)
	if err != nil {
		return nil, err
	}

	exp, err := exporter.New(conf, storage)
	if err != nil {
		return nil, err
	}

	pl, err := pipeline.New(conf)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	source, err := daq.New(conf)
	if err != nil {
		return nil, err
	}

	ps := pubsub.New[telemetry.Record]()
	events := make(chan telemetry.Record, common.Concurrency()*64)
	sinks := telemetry.Sinks{
		telemetry.NewMetricsSink(storage),
		telemetry.NewPublishSink(ps),
		telemetry.LogSink{},
		chanSink(events),
	}

	var decodeCfg pktmgr.Config
	if err := conf.UnpackChildOr("decode", &decodeCfg); err != nil {
		return nil, err
	}

	defaultAPI, err := lookupDefaultAPI(cfg.DefaultCodec)
	if err != nil {
		return nil, err
	}

	mgr, err := pktmgr.New(decodeCfg, defaultAPI, sinks)
	if err != nil {
		return nil, err
	}
	for _, api := range codec.Registered() {
		if api == defaultAPI {
			continue
		}
		if err := mgr.Register(api); err != nil {
			return nil, err
		}
	}
	if err := mgr.InstantiateAll(); err != nil {
		return nil, err
	}

	return &Controller{
		cfg:       cfg,
		tcpConfig: tcpConfig,
		buildInfo: buildInfo,
		mgr:       mgr,
		source:    source,
		flows:     flowcache.New(cfg.GetFlowExpired()),
		pl:        pl,
		exp:       exp,
		svr:       svr,
		storage:   storage,
		ps:        ps,
		sinks:     sinks,
		events:    events,
		done:      make(chan struct{}),
	}, nil
}

// chanSink 将事件写入 channel 的 telemetry.Sink 实现
//
// channel 写满时丢弃 绝不阻塞热路径
type chanSink chan telemetry.Record

func (cs chanSink) Emit(rec telemetry.Record) {
	select {
	case cs <- rec:
	default:
	}
}

func (c *Controller) Start() error {
	c.setupServer()

	if err := c.startWorkers(); err != nil {
		return err
	}
	rescue.Go("controller/events", c.consumeEvents)
	rescue.Go("controller/flow-gc", c.removeExpiredFlows)
	rescue.Go("controller/dump", c.watchDumpSignal)

	if c.svr != nil {
		rescue.Go("controller/server", func() {
			err := c.svr.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("failed to start server: %v", err)
			}
		})
	}

	c.exp.Start()
	c.source.SetOnFrame(c.dispatchFrame)
	return nil
}

// watchDumpSignal 响应 SIGUSR1 将 codec 统计写入日志
func (c *Controller) watchDumpSignal() {
	ch := sigs.DumpStats()
	for {
		select {
		case <-ch:
			b, err := json.Marshal(c.mgr.DumpStats())
			if err != nil {
				continue
			}
			logger.Infof("codec stats: %s", b)

		case <-c.done:
			return
		}
	}
}

func (c *Controller) removeExpiredFlows() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.flows.RemoveExpired(); n > 0 {
				logger.Debugf("flowcache removed %d expired entries", n)
			}

		case <-c.done:
			return
		}
	}
}

// consumeEvents 将事件送入 exporter 与 pipeline
func (c *Controller) consumeEvents() {
	for {
		select {
		case rec := <-c.events:
			handledEvents.Inc()
			record := common.NewRecord(common.RecordEvents, &common.EventsData{Data: []telemetry.Record{rec}})
			c.exp.Export(record)
			c.pl.Range(record, func(dst *common.Record) {
				c.exp.Export(dst)
			})

		case <-c.done:
			return
		}
	}
}

func (c *Controller) recordMetrics() {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Inc()
	for _, s := range c.source.Stats() {
		daqReceivedPackets.WithLabelValues(s.Name).Set(float64(s.Packets))
		daqDroppedPackets.WithLabelValues(s.Name).Set(float64(s.Drops))
	}
	activeFlows.Set(float64(c.flows.Count()))
}

func (c *Controller) setupServer() {
	if c.svr == nil {
		return
	}

	// Metric Routes
	c.svr.RegisterGetRoute("/metrics", func(w http.ResponseWriter, r *http.Request) {
		c.recordMetrics()
		promhttp.Handler().ServeHTTP(w, r)
	})
	c.svr.RegisterGetRoute("/telemetry/metrics", func(w http.ResponseWriter, r *http.Request) {
		if c.storage == nil {
			return
		}
		c.storage.WritePrometheus(w)
	})
	c.svr.RegisterGetRoute("/codec/stats", func(w http.ResponseWriter, r *http.Request) {
		if err := c.mgr.WriteStats(w); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	// Watch Routes
	c.svr.RegisterGetRoute("/-/watch", func(w http.ResponseWriter, r *http.Request) {
		q := c.ps.Subscribe(128)
		defer c.ps.Unsubscribe(q)

		flusher, _ := w.(http.Flusher)
		encoder := json.NewEncoder(w)
		for {
			select {
			case <-r.Context().Done():
				return
			default:
			}

			data, ok := q.PopTimeout(time.Second)
			if !ok {
				continue
			}
			if err := encoder.Encode(data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	})

	// Admin Routes
	c.svr.RegisterPostRoute("/-/logger", func(w http.ResponseWriter, r *http.Request) {
		level := r.FormValue("level")
		logger.SetLoggerLevel(level)
		w.Write([]byte(`{"status": "success"}`))
	})
	c.svr.RegisterPostRoute("/-/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := sigs.SelfReload(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
	})
}

// Reload 重载配置
//
// 仅支持重载捕获源的过滤参数
func (c *Controller) Reload(conf *confengine.Config) error {
	var cfg daq.Config
	if err := conf.UnpackChildOr("daq", &cfg); err != nil {
		return err
	}
	return c.source.Reload(&cfg)
}

func (c *Controller) Stop() {
	c.source.Close()
	c.stopWorkers()
	if c.svr != nil {
		if err := c.svr.Shutdown(); err != nil {
			logger.Warnf("server shutdown: %v", err)
		}
	}
	c.exp.Close()
	c.pl.Clean()
	c.flows.Close()
	c.mgr.ReleaseAll()
	close(c.done)
	logger.Sync()
}
