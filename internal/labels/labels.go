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

// Package labels 指标与事件的维度标签
package labels

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/bytebufferpool"
)

type Label struct {
	Name  string
	Value string
}

type Labels []Label

// New 以 name/value 交替的参数构造标签集
//
// 参数个数为奇数时 落单的尾项被忽略
func New(pairs ...string) Labels {
	lbs := make(Labels, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		lbs = append(lbs, Label{Name: pairs[i], Value: pairs[i+1]})
	}
	return lbs
}

// With 追加一个标签 返回新的标签集
func (ls Labels) With(name, value string) Labels {
	return append(ls, Label{Name: name, Value: value})
}

// Sort 按标签名排序 保证同一集合哈希稳定
func (ls Labels) Sort() Labels {
	sort.Slice(ls, func(i, j int) bool {
		return ls[i].Name < ls[j].Name
	})
	return ls
}

var seps = []byte{'\xff'}

// Hash returns a hash value for the label set.
func (ls Labels) Hash() uint64 {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, v := range ls {
		buf.WriteString(v.Name)
		buf.Write(seps)
		buf.WriteString(v.Value)
		buf.Write(seps)
	}
	return xxhash.Sum64(buf.Bytes())
}
