package message

import (
	"reflect"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/glog"
	"github.com/dzm2020/gasmsg/pkg/rtti"

	"go.uber.org/zap"
)

// Tuple 作为 Make 的唯一参数时被展开成多个字段
type Tuple []any

// Builder 动态路径的消息构造器，字段类型在运行时逐个追加
// 追加的字段先暂存，Build 时按布局移入一整块存储
type Builder struct {
	reg   *rtti.Registry
	ids   []rtti.TypeID
	cells []any
}

func NewBuilder(r *rtti.Registry) *Builder {
	return &Builder{reg: r}
}

// Append 追加一个字段，类型按 v 的动态类型查找，未注册直接 panic
func (b *Builder) Append(v any) *Builder {
	if v == nil {
		err := errs.ErrTypeNotRegisteredFor("nil")
		glog.Error("message: 追加空值", zap.Error(err))
		panic(err)
	}
	b.append(b.reg.MustMetaOf(reflect.TypeOf(v)), v)
	return b
}

// AppendAll 依次追加
func (b *Builder) AppendAll(vs ...any) *Builder {
	for _, v := range vs {
		b.Append(v)
	}
	return b
}

// AppendAs 按静态类型 T 追加，用于接口类型的字段
func AppendAs[T any](b *Builder, v T) *Builder {
	m := b.reg.MustMetaOf(rtti.TypeOf[T]())
	p := m.New()
	*p.(*T) = v
	b.ids = append(b.ids, m.ID)
	b.cells = append(b.cells, p)
	return b
}

// AppendTyped 按给定类型追加，v 为 nil 时追加零值
func (b *Builder) AppendTyped(typ reflect.Type, v any) *Builder {
	m := b.reg.MustMetaOf(typ)
	if v == nil {
		b.ids = append(b.ids, m.ID)
		b.cells = append(b.cells, m.New())
		return b
	}
	b.append(m, v)
	return b
}

func (b *Builder) append(m *rtti.Meta, v any) {
	p := m.New()
	if !m.Assign(p, v) {
		panic(errs.ErrFieldType(len(b.cells), m.Name, typeName(v)))
	}
	b.ids = append(b.ids, m.ID)
	b.cells = append(b.cells, p)
}

// Len 已追加的字段个数
func (b *Builder) Len() int {
	return len(b.cells)
}

// Build 生成消息，字段所有权转移给消息，构造器清空后可复用
func (b *Builder) Build() Envelope {
	if len(b.cells) == 0 {
		return Empty()
	}
	id, err := b.reg.Intern(b.ids...)
	if err != nil {
		panic(err)
	}
	d := newDynamic(id.Layout())
	for i, m := range d.l.Metas {
		m.Move(d.ptr(i), b.cells[i])
	}
	b.ids = nil
	b.cells = nil
	return newEnvelope(id, d)
}

// Reset 丢弃已追加的字段
func (b *Builder) Reset() {
	for i, id := range b.ids {
		b.reg.Meta(id).Destroy(b.cells[i])
	}
	b.ids = b.ids[:0]
	b.cells = nil
}

// Make 动态路径构造消息，单个 Tuple 参数会被展开
func Make(r *rtti.Registry, xs ...any) Envelope {
	if len(xs) == 1 {
		if t, ok := xs[0].(Tuple); ok {
			xs = t
		}
	}
	return NewBuilder(r).AppendAll(xs...).Build()
}
