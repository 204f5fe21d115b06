package message

import (
	"reflect"

	"github.com/dzm2020/gasmsg/pkg/rtti"
	"github.com/dzm2020/gasmsg/pkg/serializer"
)

// payload 消息的字段存储及其虚表
// 静态路径每个具体元组类型一份实现；动态路径共用 dynamic，靠注册表元数据逐字段操作
type payload interface {
	layout() *rtti.Layout
	// get 返回第 i 个字段的值
	get(i int) any
	// ptr 返回第 i 个字段的地址（*T）
	ptr(i int) any
	// clone 逐字段拷贝构造出一份新存储
	clone() payload
}

func destroyFields(p payload) {
	for i, m := range p.layout().Metas {
		m.Destroy(p.ptr(i))
	}
}

func saveFields(p payload, sink serializer.Sink) error {
	for i, m := range p.layout().Metas {
		if err := m.Save(sink, p.ptr(i)); err != nil {
			return err
		}
	}
	return nil
}

// dynamic 动态路径的存储，全部字段内联在按布局生成的一个结构体里
type dynamic struct {
	l *rtti.Layout
	v reflect.Value
}

func newDynamic(l *rtti.Layout) *dynamic {
	return &dynamic{l: l, v: l.Alloc()}
}

func (d *dynamic) layout() *rtti.Layout {
	return d.l
}

func (d *dynamic) get(i int) any {
	return d.l.Metas[i].Value(d.ptr(i))
}

func (d *dynamic) ptr(i int) any {
	return d.l.Field(d.v, i)
}

func (d *dynamic) clone() payload {
	c := newDynamic(d.l)
	for i, m := range d.l.Metas {
		m.CloneTo(c.ptr(i), d.ptr(i))
	}
	return c
}
