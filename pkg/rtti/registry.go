package rtti

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/glog"

	"github.com/duke-git/lancet/v2/maputil"
	"go.uber.org/zap"
)

// Registry 类型注册表
//
// 生命周期：启动阶段注册全部类型，Seal 之后只读。
// 注册由互斥锁串行化；读取走原子发布的快照，不加锁。
// 注册与派发之间的 happens-before 由使用方保证。
type Registry struct {
	mu     sync.Mutex
	state  atomic.Pointer[registryState]
	cache  *maputil.ConcurrentMap[string, *identity]
	sealed atomic.Bool
}

type registryState struct {
	metas  []*Meta // 下标即 TypeID，0 号位为空
	byType map[reflect.Type]*Meta
}

// New 创建一个空注册表
func New() *Registry {
	r := &Registry{
		cache: maputil.NewConcurrentMap[string, *identity](16),
	}
	r.state.Store(&registryState{
		metas:  []*Meta{nil},
		byType: map[reflect.Type]*Meta{},
	})
	return r
}

// Register 为 T 分配类型ID，重复注册返回已有的ID
func Register[T any](r *Registry, opts ...Option[T]) (TypeID, error) {
	if r == nil {
		return InvalidTypeID, errs.ErrRegistryIsNil
	}
	typ := TypeOf[T]()
	if m, ok := r.state.Load().byType[typ]; ok {
		return m.ID, nil
	}

	o := &options[T]{}
	for _, opt := range opts {
		opt(o)
	}
	return r.add(typ, func() *Meta { return makeMeta(o) })
}

// MustRegister 注册失败直接 panic，用于初始化阶段
func MustRegister[T any](r *Registry, opts ...Option[T]) TypeID {
	id, err := Register(r, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

func (r *Registry) add(typ reflect.Type, build func() *Meta) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.state.Load()
	if m, ok := old.byType[typ]; ok {
		return m.ID, nil
	}
	if r.sealed.Load() {
		return InvalidTypeID, errs.ErrRegisterAfterSeal(typ.String())
	}
	if len(old.metas) > int(MaxTypeID) {
		return InvalidTypeID, errs.ErrTooManyTypes
	}

	meta := build()
	meta.ID = TypeID(len(old.metas))

	next := &registryState{
		metas:  make([]*Meta, len(old.metas), len(old.metas)+1),
		byType: make(map[reflect.Type]*Meta, len(old.byType)+1),
	}
	copy(next.metas, old.metas)
	next.metas = append(next.metas, meta)
	for k, v := range old.byType {
		next.byType[k] = v
	}
	next.byType[typ] = meta
	r.state.Store(next)

	glog.Debug("rtti: 注册类型", zap.Uint16("id", uint16(meta.ID)), zap.String("name", meta.Name), zap.Uintptr("size", meta.Size))
	return meta.ID, nil
}

// Seal 封存注册表，之后不能再注册新类型
func (r *Registry) Seal() {
	if r.sealed.CompareAndSwap(false, true) {
		glog.Info("rtti: 注册表已封存", zap.Int("types", r.Len()))
	}
}

// Sealed 是否已封存
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Len 已注册类型个数
func (r *Registry) Len() int {
	return len(r.state.Load().metas) - 1
}

// LookupMeta 按ID查找元数据，解码路径使用
func (r *Registry) LookupMeta(id TypeID) (*Meta, bool) {
	metas := r.state.Load().metas
	if id == InvalidTypeID || int(id) >= len(metas) {
		return nil, false
	}
	return metas[id], true
}

// Meta 按ID查找元数据，未注册视为编程错误
func (r *Registry) Meta(id TypeID) *Meta {
	m, ok := r.LookupMeta(id)
	if !ok {
		err := errs.ErrTypeIDNotRegistered(uint16(id))
		glog.Error("rtti: 查询未注册的类型", zap.Error(err))
		panic(err)
	}
	return m
}

// MetaOf 按 reflect.Type 查找元数据
func (r *Registry) MetaOf(typ reflect.Type) (*Meta, bool) {
	m, ok := r.state.Load().byType[typ]
	return m, ok
}

// IDOf 按 reflect.Type 查找类型ID
func (r *Registry) IDOf(typ reflect.Type) (TypeID, bool) {
	if m, ok := r.MetaOf(typ); ok {
		return m.ID, true
	}
	return InvalidTypeID, false
}

// MustMetaOf 未注册直接 panic
func (r *Registry) MustMetaOf(typ reflect.Type) *Meta {
	m, ok := r.MetaOf(typ)
	if !ok {
		err := errs.ErrTypeNotRegisteredFor(typ.String())
		glog.Error("rtti: 使用未注册的类型", zap.Error(err))
		panic(err)
	}
	return m
}

// IDFor 返回 T 的类型ID，未注册直接 panic
func IDFor[T any](r *Registry) TypeID {
	return r.MustMetaOf(TypeOf[T]()).ID
}

// Intern 返回 ids 对应的唯一 Identity，空列表返回空标识
func (r *Registry) Intern(ids ...TypeID) (Identity, error) {
	if len(ids) == 0 {
		return Identity{}, nil
	}
	if len(ids) > int(MaxTypeID) {
		return Identity{}, errs.ErrTooManyFields(len(ids))
	}
	key := identityKey(ids)
	if rep, ok := r.cache.Get(key); ok {
		return Identity{rep: rep}, nil
	}
	metas := make([]*Meta, len(ids))
	for i, id := range ids {
		m, ok := r.LookupMeta(id)
		if !ok {
			return Identity{}, errs.ErrTypeIDNotRegistered(uint16(id))
		}
		metas[i] = m
	}
	rep, _ := r.cache.GetOrSet(key, newIdentity(key, ids, metas))
	return Identity{rep: rep}, nil
}

// IdentityFor 按有序类型列表构造 Identity
func (r *Registry) IdentityFor(types ...reflect.Type) (Identity, error) {
	if len(types) == 0 {
		return Identity{}, nil
	}
	ids := make([]TypeID, len(types))
	for i, typ := range types {
		m, ok := r.MetaOf(typ)
		if !ok {
			return Identity{}, errs.ErrTypeNotRegisteredFor(typ.String())
		}
		ids[i] = m.ID
	}
	return r.Intern(ids...)
}

// MustIdentityFor 类型未注册时 panic
func (r *Registry) MustIdentityFor(types ...reflect.Type) Identity {
	id, err := r.IdentityFor(types...)
	if err != nil {
		glog.Error("rtti: 构造标识失败", zap.Error(err))
		panic(err)
	}
	return id
}

func Identity1[A any](r *Registry) Identity {
	return r.MustIdentityFor(TypeOf[A]())
}

func Identity2[A, B any](r *Registry) Identity {
	return r.MustIdentityFor(TypeOf[A](), TypeOf[B]())
}

func Identity3[A, B, C any](r *Registry) Identity {
	return r.MustIdentityFor(TypeOf[A](), TypeOf[B](), TypeOf[C]())
}

func Identity4[A, B, C, D any](r *Registry) Identity {
	return r.MustIdentityFor(TypeOf[A](), TypeOf[B](), TypeOf[C](), TypeOf[D]())
}
