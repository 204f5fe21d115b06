package message

import (
	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/glog"
	"github.com/dzm2020/gasmsg/pkg/lib"
	"github.com/dzm2020/gasmsg/pkg/rtti"
	"github.com/dzm2020/gasmsg/pkg/serializer"

	"go.uber.org/zap"
)

// Save 先写标识（计数 + 各字段类型ID），再按声明顺序写字段
// 空消息只写一个 0
func (e Envelope) Save(sink serializer.Sink) error {
	if e.b == nil {
		return sink.WriteUint16(0)
	}
	for _, id := range e.b.id.Vector() {
		if err := sink.WriteUint16(uint16(id)); err != nil {
			return err
		}
	}
	return saveFields(e.b.data, sink)
}

// Load 从 src 读出一条消息替换 e
//
// e 独占且标识与线上一致时原地解码；否则按注册表里的布局新建存储。
// 失败时 e 变为空消息，已构造的字段全部销毁。
func (e *Envelope) Load(r *rtti.Registry, src serializer.Source) error {
	id, err := readIdentity(r, src)
	if err != nil {
		e.Release()
		return err
	}
	if id.IsEmpty() {
		e.Release()
		return nil
	}
	if e.Unique() && e.b.id.Equal(id) {
		if err = loadInPlace(e.b.data, src); err != nil {
			// 字段已在 loadInPlace 里销毁，直接丢弃块
			e.b.data = nil
			e.b = nil
			logDecodeFailure(id, err)
			return err
		}
		return nil
	}
	data, err := loadFresh(id, src)
	e.Release()
	if err != nil {
		logDecodeFailure(id, err)
		return err
	}
	*e = newEnvelope(id, data)
	return nil
}

// Load 不带任何静态类型信息解码一条消息
func Load(r *rtti.Registry, src serializer.Source) (Envelope, error) {
	var e Envelope
	err := e.Load(r, src)
	return e, err
}

func readIdentity(r *rtti.Registry, src serializer.Source) (rtti.Identity, error) {
	n, err := src.ReadUint16()
	if err != nil {
		return rtti.Identity{}, errs.ErrDecodeIdentity(err)
	}
	if n == 0 {
		return rtti.Identity{}, nil
	}
	ids := make([]rtti.TypeID, n)
	for i := range ids {
		v, err := src.ReadUint16()
		if err != nil {
			return rtti.Identity{}, errs.ErrDecodeIdentity(err)
		}
		if _, ok := r.LookupMeta(rtti.TypeID(v)); !ok {
			return rtti.Identity{}, errs.ErrUnresolvedTypeID(v)
		}
		ids[i] = rtti.TypeID(v)
	}
	id, err := r.Intern(ids...)
	if err != nil {
		return rtti.Identity{}, errs.ErrDecodeIdentity(err)
	}
	return id, nil
}

// loadFresh 一次分配整块存储，逐个默认构造字段后解码
// 失败时逆序销毁已构造的字段（含解码失败的那个）
func loadFresh(id rtti.Identity, src serializer.Source) (payload, error) {
	d := newDynamic(id.Layout())
	for i, m := range d.l.Metas {
		ptr := d.ptr(i)
		m.Init(ptr)
		if err := m.Load(src, ptr); err != nil {
			for j := i; j >= 0; j-- {
				d.l.Metas[j].Destroy(d.ptr(j))
			}
			return nil, errs.ErrDecodeField(i, m.Name, err)
		}
	}
	return d, nil
}

// loadInPlace 逐个销毁旧字段、默认构造后解码
// 失败时整块按逆序销毁：先是尚未触及的旧字段，再是已重建的字段
func loadInPlace(p payload, src serializer.Source) error {
	metas := p.layout().Metas
	for i, m := range metas {
		ptr := p.ptr(i)
		m.Destroy(ptr)
		m.Init(ptr)
		if err := m.Load(src, ptr); err != nil {
			for j := len(metas) - 1; j >= 0; j-- {
				metas[j].Destroy(p.ptr(j))
			}
			return errs.ErrDecodeField(i, m.Name, err)
		}
	}
	return nil
}

func logDecodeFailure(id rtti.Identity, err error) {
	glog.Debug("message: 解码失败", zap.Stringer("identity", id), zap.Error(err))
}

// Marshal 序列化为字节
func Marshal(e Envelope) ([]byte, error) {
	buf := lib.NewBuffer(0)
	enc := serializer.NewEncoder(buf)
	defer enc.Release()
	if err := e.Save(enc); err != nil {
		return nil, err
	}
	return buf.Readable(), nil
}

// Unmarshal 从字节反序列化
func Unmarshal(r *rtti.Registry, data []byte) (Envelope, error) {
	dec := serializer.NewDecoder(lib.NewBufferFrom(data))
	defer dec.Release()
	return Load(r, dec)
}
