package message

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/rtti"

	"google.golang.org/protobuf/proto"
)

// block 消息的堆块：引用计数 + 类型标识 + 字段存储
type block struct {
	rc   atomic.Int32
	id   rtti.Identity
	data payload
}

// Envelope 引用计数的消息句柄
//
// 对持有者只读。复制句柄必须用 Share，直接赋值不会增加引用计数，
// 写时复制也就无从判断是否共享。零值为空消息。
type Envelope struct {
	b *block
}

func newEnvelope(id rtti.Identity, data payload) Envelope {
	b := &block{id: id, data: data}
	b.rc.Store(1)
	return Envelope{b: b}
}

// Empty 空消息
func Empty() Envelope {
	return Envelope{}
}

func (e Envelope) IsEmpty() bool {
	return e.b == nil
}

// Identity O(1)，空消息返回空标识
func (e Envelope) Identity() rtti.Identity {
	if e.b == nil {
		return rtti.Identity{}
	}
	return e.b.id
}

// Len 字段个数
func (e Envelope) Len() int {
	if e.b == nil {
		return 0
	}
	return e.b.id.Len()
}

// At 第 i 个字段的值（只读）
func (e Envelope) At(i int) any {
	if i < 0 || i >= e.Len() {
		panic(errIndex(i, e.Len()))
	}
	return e.b.data.get(i)
}

// Get 按类型读取第 i 个字段
func Get[T any](e Envelope, i int) (T, bool) {
	if i < 0 || i >= e.Len() {
		var zero T
		return zero, false
	}
	if p, ok := e.b.data.ptr(i).(*T); ok {
		return *p, true
	}
	var zero T
	return zero, false
}

// Values 所有字段值
func (e Envelope) Values() []any {
	values := make([]any, e.Len())
	for i := range values {
		values[i] = e.b.data.get(i)
	}
	return values
}

// Share 共享存储，引用计数加一
func (e Envelope) Share() Envelope {
	if e.b != nil {
		e.b.rc.Add(1)
	}
	return e
}

// Release 释放句柄，引用计数归零时按声明顺序销毁字段
func (e *Envelope) Release() {
	b := e.b
	if b == nil {
		return
	}
	e.b = nil
	if b.rc.Load() == 1 || b.rc.Add(-1) == 0 {
		destroyFields(b.data)
		b.data = nil
	}
}

// Unique 是否独占存储
func (e Envelope) Unique() bool {
	return e.b != nil && e.b.rc.Load() == 1
}

// RefCount 当前引用计数
func (e Envelope) RefCount() int {
	if e.b == nil {
		return 0
	}
	return int(e.b.rc.Load())
}

// Mutable 获取独占的可写存储
//
// 引用计数大于一时先逐字段拷贝出新存储，再释放旧块并把句柄指向新块。
// 其他持有者看到的仍是旧值。空消息返回 nil。
func (e *Envelope) Mutable() Storage {
	if e.b == nil {
		return nil
	}
	if e.b.rc.Load() != 1 {
		old := e.b
		b := &block{id: old.id, data: old.data.clone()}
		b.rc.Store(1)
		e.Release()
		e.b = b
	}
	return storage{b: e.b}
}

// MutableAt 独占后返回第 i 个字段的指针，类型不符返回 nil
func MutableAt[T any](e *Envelope, i int) *T {
	s := e.Mutable()
	if s == nil || i < 0 || i >= s.Len() {
		return nil
	}
	p, _ := s.Ptr(i).(*T)
	return p
}

// Equal 标识相同且逐字段相等
func Equal(a, b Envelope) bool {
	if !a.Identity().Equal(b.Identity()) {
		return false
	}
	if a.b == b.b {
		return true
	}
	for i := 0; i < a.Len(); i++ {
		x, y := a.b.data.get(i), b.b.data.get(i)
		if px, ok := x.(proto.Message); ok {
			py, _ := y.(proto.Message)
			if !proto.Equal(px, py) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(x, y) {
			return false
		}
	}
	return true
}

func (e Envelope) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < e.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", e.b.data.get(i))
	}
	sb.WriteByte(')')
	return sb.String()
}

func errIndex(i, size int) error {
	return errs.ErrFieldIndex(i, size)
}
