package message

import (
	"github.com/dzm2020/gasmsg/pkg/rtti"
)

// 静态路径：字段直接内联在一个泛型结构体里，一次分配

type tuple1[A any] struct {
	l *rtti.Layout
	a A
}

func (t *tuple1[A]) layout() *rtti.Layout { return t.l }

func (t *tuple1[A]) get(i int) any {
	if i == 0 {
		return t.a
	}
	panic(errIndex(i, 1))
}

func (t *tuple1[A]) ptr(i int) any {
	if i == 0 {
		return &t.a
	}
	panic(errIndex(i, 1))
}

func (t *tuple1[A]) clone() payload {
	return &tuple1[A]{l: t.l, a: cloneField(t.l, 0, &t.a)}
}

type tuple2[A, B any] struct {
	l *rtti.Layout
	a A
	b B
}

func (t *tuple2[A, B]) layout() *rtti.Layout { return t.l }

func (t *tuple2[A, B]) get(i int) any {
	switch i {
	case 0:
		return t.a
	case 1:
		return t.b
	}
	panic(errIndex(i, 2))
}

func (t *tuple2[A, B]) ptr(i int) any {
	switch i {
	case 0:
		return &t.a
	case 1:
		return &t.b
	}
	panic(errIndex(i, 2))
}

func (t *tuple2[A, B]) clone() payload {
	return &tuple2[A, B]{
		l: t.l,
		a: cloneField(t.l, 0, &t.a),
		b: cloneField(t.l, 1, &t.b),
	}
}

type tuple3[A, B, C any] struct {
	l *rtti.Layout
	a A
	b B
	c C
}

func (t *tuple3[A, B, C]) layout() *rtti.Layout { return t.l }

func (t *tuple3[A, B, C]) get(i int) any {
	switch i {
	case 0:
		return t.a
	case 1:
		return t.b
	case 2:
		return t.c
	}
	panic(errIndex(i, 3))
}

func (t *tuple3[A, B, C]) ptr(i int) any {
	switch i {
	case 0:
		return &t.a
	case 1:
		return &t.b
	case 2:
		return &t.c
	}
	panic(errIndex(i, 3))
}

func (t *tuple3[A, B, C]) clone() payload {
	return &tuple3[A, B, C]{
		l: t.l,
		a: cloneField(t.l, 0, &t.a),
		b: cloneField(t.l, 1, &t.b),
		c: cloneField(t.l, 2, &t.c),
	}
}

type tuple4[A, B, C, D any] struct {
	l *rtti.Layout
	a A
	b B
	c C
	d D
}

func (t *tuple4[A, B, C, D]) layout() *rtti.Layout { return t.l }

func (t *tuple4[A, B, C, D]) get(i int) any {
	switch i {
	case 0:
		return t.a
	case 1:
		return t.b
	case 2:
		return t.c
	case 3:
		return t.d
	}
	panic(errIndex(i, 4))
}

func (t *tuple4[A, B, C, D]) ptr(i int) any {
	switch i {
	case 0:
		return &t.a
	case 1:
		return &t.b
	case 2:
		return &t.c
	case 3:
		return &t.d
	}
	panic(errIndex(i, 4))
}

func (t *tuple4[A, B, C, D]) clone() payload {
	return &tuple4[A, B, C, D]{
		l: t.l,
		a: cloneField(t.l, 0, &t.a),
		b: cloneField(t.l, 1, &t.b),
		c: cloneField(t.l, 2, &t.c),
		d: cloneField(t.l, 3, &t.d),
	}
}

func cloneField[T any](l *rtti.Layout, i int, p *T) T {
	return *l.Metas[i].Clone(p).(*T)
}

// Make1 静态路径构造单字段消息
func Make1[A any](r *rtti.Registry, a A) Envelope {
	id := rtti.Identity1[A](r)
	return newEnvelope(id, &tuple1[A]{l: id.Layout(), a: a})
}

func Make2[A, B any](r *rtti.Registry, a A, b B) Envelope {
	id := rtti.Identity2[A, B](r)
	return newEnvelope(id, &tuple2[A, B]{l: id.Layout(), a: a, b: b})
}

func Make3[A, B, C any](r *rtti.Registry, a A, b B, c C) Envelope {
	id := rtti.Identity3[A, B, C](r)
	return newEnvelope(id, &tuple3[A, B, C]{l: id.Layout(), a: a, b: b, c: c})
}

func Make4[A, B, C, D any](r *rtti.Registry, a A, b B, c C, d D) Envelope {
	id := rtti.Identity4[A, B, C, D](r)
	return newEnvelope(id, &tuple4[A, B, C, D]{l: id.Layout(), a: a, b: b, c: c, d: d})
}

// Unpack1 读取单字段消息，静态存储直接取值，动态存储逐个断言
func Unpack1[A any](e Envelope) (a A, ok bool) {
	if e.Len() != 1 {
		return
	}
	if t, is := e.b.data.(*tuple1[A]); is {
		return t.a, true
	}
	return cast[A](e.b.data.get(0))
}

func Unpack2[A, B any](e Envelope) (a A, b B, ok bool) {
	if e.Len() != 2 {
		return
	}
	if t, is := e.b.data.(*tuple2[A, B]); is {
		return t.a, t.b, true
	}
	var ok1, ok2 bool
	a, ok1 = cast[A](e.b.data.get(0))
	b, ok2 = cast[B](e.b.data.get(1))
	return a, b, ok1 && ok2
}

func Unpack3[A, B, C any](e Envelope) (a A, b B, c C, ok bool) {
	if e.Len() != 3 {
		return
	}
	if t, is := e.b.data.(*tuple3[A, B, C]); is {
		return t.a, t.b, t.c, true
	}
	var ok1, ok2, ok3 bool
	a, ok1 = cast[A](e.b.data.get(0))
	b, ok2 = cast[B](e.b.data.get(1))
	c, ok3 = cast[C](e.b.data.get(2))
	return a, b, c, ok1 && ok2 && ok3
}

func cast[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}
