package rtti

import (
	"reflect"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/lib"
	"github.com/dzm2020/gasmsg/pkg/serializer"
	"google.golang.org/protobuf/proto"
)

// TypeID 类型的运行时编号，从 1 开始单调递增，0 表示无效
type TypeID uint16

const (
	InvalidTypeID TypeID = 0
	MaxTypeID     TypeID = 1<<16 - 1
)

// Destroyer 字段在所属消息销毁时回调（按声明顺序）
// 在 *T 上实现
type Destroyer interface {
	Destroy()
}

// Meta 单个类型的元数据，注册时生成一次
// 动态路径在调用点不知道具体类型，全部操作都通过这里的函数完成
// 所有 ptr/dst/src 参数都是 *T
type Meta struct {
	ID    TypeID
	Name  string
	Type  reflect.Type
	Size  uintptr
	Align uintptr

	New   func() any
	Value func(ptr any) any
	Clone func(ptr any) any
	// Init 在已分配的位置上默认构造
	Init func(ptr any)
	// CloneTo 把 src 拷贝构造到 dst
	CloneTo func(dst, src any)
	// Move 把 src 的所有权转移到 dst，src 之后不再销毁
	Move    func(dst, src any)
	Destroy func(ptr any)
	Save    func(sink serializer.Sink, ptr any) error
	Load    func(src serializer.Source, ptr any) error
	// Assign 把 v 写入 ptr，类型不符返回 false；v 为 nil 时可为 nil 的类型写入零值
	Assign func(ptr any, v any) bool
}

func (m *Meta) String() string {
	return m.Name
}

type options[T any] struct {
	name  string
	save  func(serializer.Sink, *T) error
	load  func(serializer.Source, *T) error
	clone func(T) T
}

// Option 注册选项
type Option[T any] func(*options[T])

// WithName 指定类型名，默认使用 reflect 的类型名
func WithName[T any](name string) Option[T] {
	return func(o *options[T]) {
		o.name = name
	}
}

// WithCodec 指定类型的编解码函数
func WithCodec[T any](save func(serializer.Sink, *T) error, load func(serializer.Source, *T) error) Option[T] {
	return func(o *options[T]) {
		o.save = save
		o.load = load
	}
}

// WithClone 指定深拷贝函数，写时复制时使用
func WithClone[T any](clone func(T) T) Option[T] {
	return func(o *options[T]) {
		o.clone = clone
	}
}

// TypeOf 返回 T 的 reflect.Type，T 为接口类型时也有效
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func makeMeta[T any](o *options[T]) *Meta {
	var zero T
	typ := TypeOf[T]()
	name := o.name
	if name == "" {
		name = typ.String()
	}

	construct := func() T {
		var v T
		return v
	}
	_, isProto := any(zero).(proto.Message)
	if isProto && typ.Kind() == reflect.Pointer {
		elem := typ.Elem()
		construct = func() T {
			return reflect.New(elem).Interface().(T)
		}
	}

	save, load := o.save, o.load
	if save == nil || load == nil {
		save, load = defaultCodec[T](isProto)
	}

	clone := o.clone
	if clone == nil {
		clone = defaultClone(name, isProto, construct, save, load)
	}

	_, hasDestroy := any(&zero).(Destroyer)
	nilable := false
	switch typ.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		nilable = true
	}

	return &Meta{
		Name:  name,
		Type:  typ,
		Size:  typ.Size(),
		Align: uintptr(typ.Align()),
		New: func() any {
			p := new(T)
			*p = construct()
			return p
		},
		Value: func(ptr any) any {
			return *ptr.(*T)
		},
		Clone: func(ptr any) any {
			p := new(T)
			*p = clone(*ptr.(*T))
			return p
		},
		Init: func(ptr any) {
			*ptr.(*T) = construct()
		},
		CloneTo: func(dst, src any) {
			*dst.(*T) = clone(*src.(*T))
		},
		Move: func(dst, src any) {
			*dst.(*T) = *src.(*T)
			*src.(*T) = zero
		},
		Destroy: func(ptr any) {
			if hasDestroy {
				ptr.(Destroyer).Destroy()
			}
		},
		Save: func(sink serializer.Sink, ptr any) error {
			return save(sink, ptr.(*T))
		},
		Load: func(src serializer.Source, ptr any) error {
			return load(src, ptr.(*T))
		},
		Assign: func(ptr any, v any) bool {
			if v == nil {
				if nilable {
					*ptr.(*T) = zero
				}
				return nilable
			}
			tv, ok := v.(T)
			if !ok {
				return false
			}
			*ptr.(*T) = tv
			return true
		},
	}
}

func defaultCodec[T any](isProto bool) (func(serializer.Sink, *T) error, func(serializer.Source, *T) error) {
	if isProto {
		return func(sink serializer.Sink, p *T) error {
				return serializer.WriteProto(sink, any(*p).(proto.Message))
			}, func(src serializer.Source, p *T) error {
				return serializer.ReadProto(src, any(*p).(proto.Message))
			}
	}
	return func(sink serializer.Sink, p *T) error {
			return sink.WriteValue(*p)
		}, func(src serializer.Source, p *T) error {
			return src.ReadValue(p)
		}
}

// defaultClone 选择写时复制用的拷贝函数
// 优先 Clone() T 方法，其次 proto.Clone；含切片、映射或指针的类型经自身编解码往返深拷贝，
// 其余按值拷贝。编解码无法还原的类型（如结构体内的接口字段）需用 WithClone 指定。
func defaultClone[T any](name string, isProto bool, construct func() T,
	save func(serializer.Sink, *T) error, load func(serializer.Source, *T) error) func(T) T {
	var zero T
	if _, ok := any(zero).(interface{ Clone() T }); ok {
		return func(v T) T {
			return any(v).(interface{ Clone() T }).Clone()
		}
	}
	if isProto {
		return func(v T) T {
			return proto.Clone(any(v).(proto.Message)).(T)
		}
	}
	if !holdsReference(TypeOf[T]()) {
		return func(v T) T {
			return v
		}
	}
	return func(v T) T {
		buf := lib.NewBuffer(0)
		enc := serializer.NewEncoder(buf)
		err := save(enc, &v)
		enc.Release()
		if err != nil {
			panic(errs.ErrCloneFailed(name, err))
		}
		dec := serializer.NewDecoder(buf)
		defer dec.Release()
		out := construct()
		if err = load(dec, &out); err != nil {
			panic(errs.ErrCloneFailed(name, err))
		}
		return out
	}
}

// holdsReference 值拷贝后是否仍与原值共享可变数据
// 顶层接口按不可变值处理
func holdsReference(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return true
	case reflect.Array:
		return typ.Len() > 0 && holdsReference(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if holdsReference(typ.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
