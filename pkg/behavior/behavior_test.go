package behavior

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/lib/workers"
	"github.com/dzm2020/gasmsg/pkg/message"
	"github.com/dzm2020/gasmsg/pkg/rtti"
)

type order struct {
	ID    int64
	Price float64
}

func newRegistry(t *testing.T) *rtti.Registry {
	t.Helper()
	r := rtti.New()
	if err := rtti.RegisterBuiltins(r); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	rtti.MustRegister[order](r)
	return r
}

func TestDispatchExample(t *testing.T) {
	r := newRegistry(t)
	b := New(
		Case2(r, func(int32, string) bool { return true }),
		Case1(r, func(float64) bool { return false }),
	)
	e := message.Make2(r, int32(42), "hello")
	defer e.Release()

	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Kind() != Replied {
		t.Fatalf("应为 replied，实际 %v", res.Kind())
	}
	reply := res.Message()
	defer reply.Release()
	v, ok := message.Unpack1[bool](reply)
	if !ok || !v {
		t.Errorf("回复应为 true: %v %v", v, ok)
	}
}

func TestFirstMatchWins(t *testing.T) {
	r := newRegistry(t)
	var calls []int
	b := New(
		Do1(r, func(int32) { calls = append(calls, 1) }),
		Do1(r, func(int32) { calls = append(calls, 2) }),
	)
	e := message.Make1(r, int32(1))
	defer e.Release()

	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Kind() != Matched {
		t.Errorf("无返回值的处理函数应为 matched，实际 %v", res.Kind())
	}
	if len(calls) != 1 || calls[0] != 1 {
		t.Errorf("只有第一个处理函数应被调用: %v", calls)
	}
}

func TestUnmatched(t *testing.T) {
	r := newRegistry(t)
	called := false
	b := New(Do1(r, func(int32) { called = true }))
	e := message.Make1(r, "x")
	defer e.Release()

	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("没有匹配不应报错: %v", err)
	}
	if res.Matched() || res.Kind() != Unmatched {
		t.Errorf("应为 unmatched，实际 %v", res.Kind())
	}
	if called {
		t.Error("处理函数不应被调用")
	}
	if !res.Message().IsEmpty() {
		t.Error("unmatched 不应带消息")
	}
}

func TestEmptyBehavior(t *testing.T) {
	var b Behavior
	e := message.Empty()
	res, err := b.Dispatch(&e)
	if err != nil || res.Kind() != Unmatched {
		t.Errorf("零值 Behavior 应为 unmatched: %v %v", res.Kind(), err)
	}
	if b.Len() != 0 {
		t.Errorf("零值 Behavior 长度应为 0: %d", b.Len())
	}
}

func TestZeroArgHandler(t *testing.T) {
	r := newRegistry(t)
	b := New(
		Do1(r, func(int32) {}),
		Case0(r, func() string { return "pong" }),
	)
	e := message.Empty()
	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.Message()
	defer reply.Release()
	if v, ok := message.Unpack1[string](reply); !ok || v != "pong" {
		t.Errorf("空消息应匹配无参处理函数: %v %v", v, ok)
	}

	// 非空消息不匹配无参处理函数
	one := message.Make1(r, "x")
	defer one.Release()
	res, _ = b.Dispatch(&one)
	if res.Kind() != Unmatched {
		t.Errorf("(string) 不应匹配 (): %v", res.Kind())
	}
}

func TestStructAndThreeFields(t *testing.T) {
	r := newRegistry(t)
	var got order
	b := New(
		Case3(r, func(id int64, price float64, note string) order {
			return order{ID: id, Price: price}
		}),
		Do1(r, func(o order) { got = o }),
	)
	e := message.Make3(r, int64(9), 1.5, "note")
	defer e.Release()

	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.Message()
	defer reply.Release()

	if _, err := b.Dispatch(&reply); err != nil {
		t.Fatalf("Dispatch reply: %v", err)
	}
	if got.ID != 9 || got.Price != 1.5 {
		t.Errorf("回复应被第二个处理函数接收: %+v", got)
	}
}

func TestRawMutateAndForward(t *testing.T) {
	r := newRegistry(t)
	b := New(Raw(rtti.Identity1[int32](r), func(e *message.Envelope) (message.Envelope, error) {
		if err := e.Mutable().Set(0, int32(7)); err != nil {
			return message.Empty(), err
		}
		return e.Share(), nil
	}))

	orig := message.Make1(r, int32(1))
	defer orig.Release()
	alias := orig.Share()
	defer alias.Release()

	res, err := b.Dispatch(&alias)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.Message()
	defer reply.Release()

	if v, _ := message.Unpack1[int32](reply); v != 7 {
		t.Errorf("转发的消息应为修改后的值: %d", v)
	}
	if v, _ := message.Unpack1[int32](orig); v != 1 {
		t.Errorf("共享的原消息不应被修改: %d", v)
	}
}

func TestRawError(t *testing.T) {
	r := newRegistry(t)
	boom := errors.New("boom")
	b := New(Raw(rtti.Identity1[int32](r), func(*message.Envelope) (message.Envelope, error) {
		return message.Empty(), boom
	}))
	e := message.Make1(r, int32(1))
	defer e.Release()

	res, err := b.Dispatch(&e)
	if !errors.Is(err, boom) {
		t.Fatalf("应返回处理函数的错误: %v", err)
	}
	if !res.Matched() {
		t.Error("出错时仍视为已匹配")
	}
}

func TestOthers(t *testing.T) {
	r := newRegistry(t)
	var seen []string
	b := New(
		Do1(r, func(int32) { seen = append(seen, "int32") }),
		Others(func(e *message.Envelope) (message.Envelope, error) {
			seen = append(seen, e.Identity().String())
			return message.Empty(), nil
		}),
	)
	for _, e := range []message.Envelope{
		message.Make1(r, int32(1)),
		message.Make2(r, "a", true),
		message.Empty(),
	} {
		res, err := b.Dispatch(&e)
		if err != nil || res.Kind() != Matched {
			t.Errorf("Others 应匹配所有消息: %v %v", res.Kind(), err)
		}
		e.Release()
	}
	want := []string{"int32", "(string,bool)", "()"}
	if len(seen) != len(want) {
		t.Fatalf("调用次数错误: %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("第 %d 次调用: 期望 %s, 实际 %s", i, want[i], seen[i])
		}
	}
}

func TestOr(t *testing.T) {
	r := newRegistry(t)
	var hit string
	a := New(Do1(r, func(int32) { hit = "a" }))
	b := New(Do1(r, func(int32) { hit = "b" }), Do1(r, func(string) { hit = "b-string" }))
	ab := a.Or(b)

	if a.Len() != 1 || b.Len() != 2 || ab.Len() != 3 {
		t.Fatalf("Or 不应修改原 Behavior: %d %d %d", a.Len(), b.Len(), ab.Len())
	}

	e := message.Make1(r, int32(1))
	defer e.Release()
	_, _ = ab.Dispatch(&e)
	if hit != "a" {
		t.Errorf("左侧优先: %s", hit)
	}

	s := message.Make1(r, "x")
	defer s.Release()
	_, _ = ab.Dispatch(&s)
	if hit != "b-string" {
		t.Errorf("左侧不匹配时应落到右侧: %s", hit)
	}

	ids := ab.Identities()
	if !ids[0].Same(rtti.Identity1[int32](r)) || !ids[2].Same(rtti.Identity1[string](r)) {
		t.Errorf("Identities 顺序错误: %v", ids)
	}
}

func TestTupleAndEnvelopeResults(t *testing.T) {
	r := newRegistry(t)
	fwd := message.Make1(r, uint8(3))
	b := New(
		Case1(r, func(int32) message.Tuple { return message.Tuple{"a", int64(2)} }),
		Case1(r, func(string) message.Envelope { return fwd.Share() }),
	)
	defer fwd.Release()

	e := message.Make1(r, int32(1))
	defer e.Release()
	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.Message()
	if !reply.Identity().Same(rtti.Identity2[string, int64](r)) {
		t.Errorf("Tuple 应展开为 (string,int64): %v", reply.Identity())
	}
	reply.Release()

	s := message.Make1(r, "x")
	defer s.Release()
	res, _ = b.Dispatch(&s)
	reply = res.Message()
	defer reply.Release()
	if v, ok := message.Unpack1[uint8](reply); !ok || v != 3 {
		t.Errorf("Envelope 应原样转发: %v %v", v, ok)
	}
	if fwd.RefCount() != 2 {
		t.Errorf("转发后引用计数应为 2: %d", fwd.RefCount())
	}
}

func TestUnregisteredPanics(t *testing.T) {
	r := newRegistry(t)
	type secret struct{}
	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, errs.ErrTypeNotRegistered) {
			t.Errorf("未注册的类型应在构造时 panic: %v", err)
		}
	}()
	Case1(r, func(secret) bool { return true })
}

func TestFunc(t *testing.T) {
	r := newRegistry(t)
	h, err := Func(r, func(id int64, name string) (string, int64) {
		return name + "!", id * 2
	})
	if err != nil {
		t.Fatalf("Func: %v", err)
	}
	if !h.Identity().Same(rtti.Identity2[int64, string](r)) {
		t.Errorf("标识应为 (int64,string): %v", h.Identity())
	}

	b := New(h)
	e := message.Make2(r, int64(21), "hi")
	defer e.Release()
	res, err := b.Dispatch(&e)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.Message()
	defer reply.Release()
	name, id, ok := message.Unpack2[string, int64](reply)
	if !ok || name != "hi!" || id != 42 {
		t.Errorf("多返回值应组成消息: %v %v %v", name, id, ok)
	}
}

func TestFuncVoidAndError(t *testing.T) {
	r := newRegistry(t)
	boom := errors.New("boom")
	var sum atomic.Int64
	b := New(
		MustFunc(r, func(v int32) error {
			if v < 0 {
				return boom
			}
			sum.Add(int64(v))
			return nil
		}),
		MustFunc(r, func(s string) (bool, error) { return s != "", nil }),
	)

	pos := message.Make1(r, int32(5))
	defer pos.Release()
	res, err := b.Dispatch(&pos)
	if err != nil || res.Kind() != Matched || sum.Load() != 5 {
		t.Errorf("只返回 error 的处理函数应为 matched: %v %v %d", res.Kind(), err, sum.Load())
	}

	neg := message.Make1(r, int32(-1))
	defer neg.Release()
	if _, err := b.Dispatch(&neg); !errors.Is(err, boom) {
		t.Errorf("应返回处理函数的错误: %v", err)
	}

	s := message.Make1(r, "x")
	defer s.Release()
	res, err = b.Dispatch(&s)
	if err != nil || res.Kind() != Replied {
		t.Fatalf("应为 replied: %v %v", res.Kind(), err)
	}
	reply := res.Message()
	defer reply.Release()
	if v, _ := message.Unpack1[bool](reply); !v {
		t.Error("回复应为 true")
	}
}

func TestFuncInvalid(t *testing.T) {
	r := newRegistry(t)
	type secret struct{}

	cases := []struct {
		name string
		fn   any
		want error
	}{
		{"nil", nil, errs.ErrHandlerIsNil},
		{"参数未注册", func(secret) {}, errs.ErrTypeNotRegistered},
		{"返回值未注册", func(int32) secret { return secret{} }, errs.ErrTypeNotRegistered},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Func(r, c.fn); !errors.Is(err, c.want) {
				t.Errorf("期望 %v, 实际 %v", c.want, err)
			}
		})
	}

	if _, err := Func(r, 42); err == nil {
		t.Error("非函数应报错")
	}
	if _, err := Func(r, func(...int32) {}); err == nil {
		t.Error("可变参数应报错")
	}
}

func TestConcurrentDispatch(t *testing.T) {
	r := newRegistry(t)
	var total atomic.Int64
	b := New(Do2(r, func(a int32, s string) { total.Add(int64(a) + int64(len(s))) }))

	pool, err := workers.NewPool(8)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Release()

	src := message.Make2(r, int32(1), "ab")
	const n = 200
	for i := 0; i < n; i++ {
		e := src.Share()
		if err := pool.Submit(func() {
			defer e.Release()
			if _, err := b.Dispatch(&e); err != nil {
				t.Errorf("Dispatch: %v", err)
			}
		}, nil); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Wait()
	src.Release()

	if total.Load() != n*3 {
		t.Errorf("并发派发结果错误: %d", total.Load())
	}
	if pool.PanicCount() != 0 {
		t.Errorf("不应有 panic: %d", pool.PanicCount())
	}
}
