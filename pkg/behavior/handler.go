package behavior

import (
	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/message"
	"github.com/dzm2020/gasmsg/pkg/rtti"
)

// wrap 把处理函数的返回值包成消息
// message.Envelope 原样转发，message.Tuple 展开为多字段，其他类型走静态路径
func wrap[R any](r *rtti.Registry, v R) Result {
	switch x := any(v).(type) {
	case message.Envelope:
		return replied(x)
	case message.Tuple:
		return replied(message.Make(r, x))
	}
	return replied(message.Make1(r, v))
}

// checkResult 构造时检查返回类型已注册
func checkResult[R any](r *rtti.Registry) {
	switch rtti.TypeOf[R]() {
	case typeOfEnvelope, typeOfTuple:
		return
	}
	rtti.Identity1[R](r)
}

func unpackFailed(e *message.Envelope) (Result, error) {
	return Result{}, errs.ErrFieldType(0, e.Identity().String(), "unpack")
}

func Case0[R any](r *rtti.Registry, f func() R) Handler {
	checkResult[R](r)
	return Handler{
		invoke: func(*message.Envelope) (Result, error) {
			return wrap(r, f()), nil
		},
	}
}

func Case1[A, R any](r *rtti.Registry, f func(A) R) Handler {
	checkResult[R](r)
	return Handler{
		id: rtti.Identity1[A](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, ok := message.Unpack1[A](*e)
			if !ok {
				return unpackFailed(e)
			}
			return wrap(r, f(a)), nil
		},
	}
}

func Case2[A, B, R any](r *rtti.Registry, f func(A, B) R) Handler {
	checkResult[R](r)
	return Handler{
		id: rtti.Identity2[A, B](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, b, ok := message.Unpack2[A, B](*e)
			if !ok {
				return unpackFailed(e)
			}
			return wrap(r, f(a, b)), nil
		},
	}
}

func Case3[A, B, C, R any](r *rtti.Registry, f func(A, B, C) R) Handler {
	checkResult[R](r)
	return Handler{
		id: rtti.Identity3[A, B, C](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, b, c, ok := message.Unpack3[A, B, C](*e)
			if !ok {
				return unpackFailed(e)
			}
			return wrap(r, f(a, b, c)), nil
		},
	}
}

func Do0(f func()) Handler {
	return Handler{
		invoke: func(*message.Envelope) (Result, error) {
			f()
			return matched(), nil
		},
	}
}

func Do1[A any](r *rtti.Registry, f func(A)) Handler {
	return Handler{
		id: rtti.Identity1[A](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, ok := message.Unpack1[A](*e)
			if !ok {
				return unpackFailed(e)
			}
			f(a)
			return matched(), nil
		},
	}
}

func Do2[A, B any](r *rtti.Registry, f func(A, B)) Handler {
	return Handler{
		id: rtti.Identity2[A, B](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, b, ok := message.Unpack2[A, B](*e)
			if !ok {
				return unpackFailed(e)
			}
			f(a, b)
			return matched(), nil
		},
	}
}

func Do3[A, B, C any](r *rtti.Registry, f func(A, B, C)) Handler {
	return Handler{
		id: rtti.Identity3[A, B, C](r),
		invoke: func(e *message.Envelope) (Result, error) {
			a, b, c, ok := message.Unpack3[A, B, C](*e)
			if !ok {
				return unpackFailed(e)
			}
			f(a, b, c)
			return matched(), nil
		},
	}
}

// Raw 直接拿到消息句柄，可以经 Mutable 原地修改后转发
// 返回空消息视为没有返回值
func Raw(id rtti.Identity, f func(e *message.Envelope) (message.Envelope, error)) Handler {
	return Handler{
		id: id,
		invoke: func(e *message.Envelope) (Result, error) {
			out, err := f(e)
			if err != nil {
				return matched(), err
			}
			return replied(out), nil
		},
	}
}

// Others 匹配任意消息，放在最后作为默认处理
func Others(f func(e *message.Envelope) (message.Envelope, error)) Handler {
	h := Raw(rtti.Identity{}, f)
	h.wildcard = true
	return h
}
