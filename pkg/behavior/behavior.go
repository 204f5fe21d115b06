package behavior

import (
	"github.com/dzm2020/gasmsg/pkg/glog"
	"github.com/dzm2020/gasmsg/pkg/message"
	"github.com/dzm2020/gasmsg/pkg/rtti"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/slices"
)

// Kind 派发结果
type Kind int

const (
	// Unmatched 没有处理函数匹配，由调用方决定跳过、记录还是上报
	Unmatched Kind = iota
	// Matched 匹配且处理函数没有返回值
	Matched
	// Replied 匹配且处理函数返回了新消息
	Replied
)

func (k Kind) String() string {
	switch k {
	case Unmatched:
		return "unmatched"
	case Matched:
		return "matched"
	case Replied:
		return "replied"
	}
	return "unknown"
}

// Result 一次派发的结果
type Result struct {
	kind Kind
	msg  message.Envelope
}

func (r Result) Kind() Kind {
	return r.kind
}

// Matched 是否有处理函数被调用
func (r Result) Matched() bool {
	return r.kind != Unmatched
}

// Message 处理函数返回的消息，Matched/Unmatched 时为空消息
func (r Result) Message() message.Envelope {
	return r.msg
}

func matched() Result {
	return Result{kind: Matched}
}

func replied(e message.Envelope) Result {
	if e.IsEmpty() {
		return matched()
	}
	return Result{kind: Replied, msg: e}
}

// Handler 带期望参数标识的处理函数
type Handler struct {
	id       rtti.Identity
	wildcard bool
	invoke   func(e *message.Envelope) (Result, error)
}

// Identity 期望的参数标识
func (h Handler) Identity() rtti.Identity {
	return h.id
}

func (h Handler) matches(id rtti.Identity) bool {
	return h.wildcard || h.id.Equal(id)
}

// Behavior 有序的处理函数列表，构造后不可变，复制只复制句柄
//
// 按顺序首个匹配生效：两个处理函数标识相同时后者永远不会被调用。
type Behavior struct {
	impl *behaviorImpl
}

type behaviorImpl struct {
	handlers []Handler
}

func New(handlers ...Handler) Behavior {
	hs := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h.invoke != nil {
			hs = append(hs, h)
		}
	}
	return Behavior{impl: &behaviorImpl{handlers: hs}}
}

// Or 追加 other 的处理函数，生成新的 Behavior，原有的不受影响
func (b Behavior) Or(other Behavior) Behavior {
	var hs []Handler
	if b.impl != nil {
		hs = slices.Clone(b.impl.handlers)
	}
	if other.impl != nil {
		hs = append(hs, other.impl.handlers...)
	}
	return Behavior{impl: &behaviorImpl{handlers: hs}}
}

// Len 处理函数个数
func (b Behavior) Len() int {
	if b.impl == nil {
		return 0
	}
	return len(b.impl.handlers)
}

// Identities 各处理函数期望的标识，顺序与注册顺序一致
func (b Behavior) Identities() []rtti.Identity {
	ids := make([]rtti.Identity, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		ids = append(ids, b.impl.handlers[i].id)
	}
	return ids
}

// Dispatch 按顺序匹配并调用第一个标识相同的处理函数
// 同步执行，返回前处理已经完成；没有匹配不是错误
func (b Behavior) Dispatch(e *message.Envelope) (Result, error) {
	id := e.Identity()
	if b.impl != nil {
		for i := range b.impl.handlers {
			if h := &b.impl.handlers[i]; h.matches(id) {
				return h.invoke(e)
			}
		}
	}
	if glog.Enabled(zapcore.DebugLevel) {
		glog.Debug("behavior: 没有匹配的处理函数", zap.Stringer("identity", id))
	}
	return Result{}, nil
}
