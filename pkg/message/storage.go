package message

import (
	"reflect"

	"github.com/dzm2020/gasmsg/internal/errs"
)

// Storage 独占状态下的字段存储视图
// 不要跨越可能触发写时复制的调用保存字段指针
type Storage interface {
	Len() int
	Get(i int) any
	Set(i int, v any) error
	// Ptr 第 i 个字段的地址（*T）
	Ptr(i int) any
}

type storage struct {
	b *block
}

func (s storage) Len() int {
	return s.b.id.Len()
}

func (s storage) Get(i int) any {
	s.check(i)
	return s.b.data.get(i)
}

func (s storage) Ptr(i int) any {
	s.check(i)
	return s.b.data.ptr(i)
}

func (s storage) Set(i int, v any) error {
	if i < 0 || i >= s.Len() {
		return errs.ErrFieldIndex(i, s.Len())
	}
	m := s.b.id.Layout().Metas[i]
	if !m.Assign(s.b.data.ptr(i), v) {
		return errs.ErrFieldType(i, m.Name, typeName(v))
	}
	return nil
}

func (s storage) check(i int) {
	if i < 0 || i >= s.Len() {
		panic(errIndex(i, s.Len()))
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
