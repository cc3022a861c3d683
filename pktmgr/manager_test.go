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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensord/sensord/codec"
	"github.com/sensord/sensord/common"
)

func TestRegisterValidation(t *testing.T) {
	defaultAPI := simpleAPI("eth", ethCodec{})
	mgr, err := New(Config{}, defaultAPI, nil)
	require.NoError(t, err)

	err = mgr.Register(&codec.API{Name: "noctor", Dtor: func(codec.Codec) {}})
	assert.Error(t, err)

	err = mgr.Register(&codec.API{
		Name: "nodtor",
		Ctor: func(opts common.Options) codec.Codec { return udpCodec{} },
	})
	assert.Error(t, err)

	// 名称大小写不敏感唯一
	err = mgr.Register(simpleAPI("ETH", udpCodec{}))
	assert.Error(t, err)
}

func TestRegisterTooManyCodecs(t *testing.T) {
	defaultAPI := simpleAPI("eth", ethCodec{})
	mgr, err := New(Config{}, defaultAPI, nil)
	require.NoError(t, err)

	for i := 0; i < maxCodecs; i++ {
		err := mgr.Register(simpleAPI(fmt.Sprintf("codec-%d", i), udpCodec{}))
		require.NoError(t, err)
	}

	assert.Error(t, mgr.InstantiateAll())
}

func TestProtoMapLastWriterWins(t *testing.T) {
	defaultAPI := simpleAPI("eth", ethCodec{})
	mgr, err := New(Config{}, defaultAPI, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Register(simpleAPI("udp-a", udpCodec{})))
	require.NoError(t, mgr.Register(simpleAPI("udp-b", udpCodec{})))
	require.NoError(t, mgr.InstantiateAll())

	// 后注册者赢得协议号
	idx := mgr.MappedCodec(codec.ProtoUDP)
	assert.Equal(t, "udp-b", mgr.protocols[idx].Name())

	// 0 号槽位恒指向默认 codec
	assert.Equal(t, "eth", mgr.protocols[0].Name())
	assert.Equal(t, uint8(0), mgr.MappedCodec(codec.ProtoFinished))
}

func TestInstantiateLifecycleHooks(t *testing.T) {
	var pinit, pterm, tinit, tterm int

	api := &codec.API{
		Name:  "hooked",
		PInit: func() { pinit++ },
		PTerm: func() { pterm++ },
		TInit: func() { tinit++ },
		TTerm: func() { tterm++ },
		Ctor:  func(opts common.Options) codec.Codec { return udpCodec{} },
		Dtor:  func(codec.Codec) {},
	}

	defaultAPI := simpleAPI("eth", ethCodec{})
	mgr, err := New(Config{}, defaultAPI, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Register(api))
	require.NoError(t, mgr.InstantiateAll())
	assert.Equal(t, 1, pinit)

	tctx, err := mgr.ThreadInit(dltEther)
	require.NoError(t, err)
	assert.Equal(t, 1, tinit)

	tctx.Term()
	assert.Equal(t, 1, tterm)

	mgr.ReleaseAll()
	assert.Equal(t, 1, pterm)
	assert.False(t, mgr.HasCodec(0))
}

func TestThreadInitNoGrinder(t *testing.T) {
	mgr, _ := newTestManager(Config{}, nil)

	_, err := mgr.ThreadInit(testDLTRaw)
	assert.Error(t, err)
}

func TestCodecOptionsPlumbing(t *testing.T) {
	var got common.Options

	api := &codec.API{
		Name: "opted",
		Ctor: func(opts common.Options) codec.Codec {
			got = opts
			return udpCodec{}
		},
		Dtor: func(codec.Codec) {},
	}

	cfg := Config{
		CodecOptions: map[string]map[string]any{
			"opted": {"mtu": 1500},
		},
	}
	defaultAPI := simpleAPI("eth", ethCodec{})
	mgr, err := New(cfg, defaultAPI, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Register(api))
	require.NoError(t, mgr.InstantiateAll())

	v, err := got.GetInt("mtu")
	require.NoError(t, err)
	assert.Equal(t, 1500, v)
}
