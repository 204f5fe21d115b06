package behavior

import (
	"reflect"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/message"
	"github.com/dzm2020/gasmsg/pkg/rtti"
)

var (
	typeOfError    = reflect.TypeOf((*error)(nil)).Elem()
	typeOfEnvelope = reflect.TypeOf(message.Envelope{})
	typeOfTuple    = reflect.TypeOf(message.Tuple(nil))
)

// funcEntry 反射解析出的处理函数信息
type funcEntry struct {
	fn         reflect.Value
	params     []reflect.Type
	results    []reflect.Type // 不含末尾的 error
	returnsErr bool           // 最后一个返回值是 error
}

// Func 通过反射解析任意参数个数的处理函数
// 参数类型按顺序组成期望标识；返回值可以为空、若干已注册类型，末尾可以带 error
func Func(r *rtti.Registry, fn any) (Handler, error) {
	if fn == nil {
		return Handler{}, errs.ErrHandlerIsNil
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return Handler{}, errs.ErrHandlerMustBeFunction(ft.Kind().String())
	}
	if ft.IsVariadic() {
		return Handler{}, errs.ErrHandlerVariadic()
	}

	entry, err := parseFunc(r, fv, ft)
	if err != nil {
		return Handler{}, err
	}
	id, err := r.IdentityFor(entry.params...)
	if err != nil {
		return Handler{}, err
	}
	return Handler{
		id: id,
		invoke: func(e *message.Envelope) (Result, error) {
			return entry.call(r, e)
		},
	}, nil
}

// MustFunc 解析失败直接 panic，用于初始化阶段
func MustFunc(r *rtti.Registry, fn any) Handler {
	h, err := Func(r, fn)
	if err != nil {
		panic(err)
	}
	return h
}

func parseFunc(r *rtti.Registry, fv reflect.Value, ft reflect.Type) (*funcEntry, error) {
	entry := &funcEntry{fn: fv}
	for i := 0; i < ft.NumIn(); i++ {
		in := ft.In(i)
		if _, ok := r.MetaOf(in); !ok {
			return nil, errs.ErrHandlerParameter(i, errs.ErrTypeNotRegisteredFor(in.String()))
		}
		entry.params = append(entry.params, in)
	}

	numOut := ft.NumOut()
	if numOut > 0 && ft.Out(numOut-1) == typeOfError {
		entry.returnsErr = true
		numOut--
	}
	for i := 0; i < numOut; i++ {
		out := ft.Out(i)
		entry.results = append(entry.results, out)
		if numOut == 1 && (out == typeOfEnvelope || out == typeOfTuple) {
			break
		}
		if _, ok := r.MetaOf(out); !ok {
			return nil, errs.ErrHandlerResult(i, errs.ErrTypeNotRegisteredFor(out.String()))
		}
	}
	return entry, nil
}

func (f *funcEntry) call(r *rtti.Registry, e *message.Envelope) (Result, error) {
	args := make([]reflect.Value, len(f.params))
	for i, typ := range f.params {
		if v := e.At(i); v != nil {
			args[i] = reflect.ValueOf(v)
		} else {
			args[i] = reflect.Zero(typ)
		}
	}
	outs := f.fn.Call(args)

	if f.returnsErr {
		if errV := outs[len(outs)-1]; !errV.IsNil() {
			return matched(), errV.Interface().(error)
		}
	}

	if len(f.results) == 0 {
		return matched(), nil
	}
	if len(f.results) == 1 {
		switch x := outs[0].Interface().(type) {
		case message.Envelope:
			return replied(x), nil
		case message.Tuple:
			return replied(message.Make(r, x)), nil
		}
	}
	b := message.NewBuilder(r)
	for i, typ := range f.results {
		b.AppendTyped(typ, outs[i].Interface())
	}
	return replied(b.Build()), nil
}
