package rtti

import (
	"encoding/binary"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Identity 元组的结构化类型标识：{n, id1, ..., idn}
// 同一个注册表内，相同的有序类型列表共享同一个 identity 对象，比较时先比指针
// 零值表示空消息
type Identity struct {
	rep *identity
}

type identity struct {
	vec    []TypeID // vec[0] 为字段个数
	key    string
	layout Layout
}

// Layout 由 Identity 唯一决定的存储布局，intern 时计算一次
// 各字段按声明顺序内联在一个结构体里，偏移和对齐由 reflect.StructOf 决定
type Layout struct {
	Metas   []*Meta
	Offsets []uintptr
	Size    uintptr
	// Type 承载全部字段的结构体类型，字段名为 F0..Fn-1
	Type reflect.Type
}

// Alloc 一次分配整块存储，返回可寻址的结构体值，字段均为零值未构造
func (l *Layout) Alloc() reflect.Value {
	return reflect.New(l.Type).Elem()
}

// Field 返回块内第 i 个字段的地址（*T）
func (l *Layout) Field(block reflect.Value, i int) any {
	return block.Field(i).Addr().Interface()
}

func newIdentity(key string, ids []TypeID, metas []*Meta) *identity {
	vec := make([]TypeID, 0, len(ids)+1)
	vec = append(vec, TypeID(len(ids)))
	vec = append(vec, ids...)

	fields := make([]reflect.StructField, len(metas))
	for i, m := range metas {
		fields[i] = reflect.StructField{Name: "F" + strconv.Itoa(i), Type: m.Type}
	}
	st := reflect.StructOf(fields)
	rep := &identity{
		vec: vec,
		key: key,
		layout: Layout{
			Metas:   metas,
			Offsets: make([]uintptr, len(metas)),
			Size:    st.Size(),
			Type:    st,
		},
	}
	for i := range metas {
		rep.layout.Offsets[i] = st.Field(i).Offset
	}
	return rep
}

func identityKey(ids []TypeID) string {
	buf := make([]byte, 0, 2*len(ids))
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(id))
	}
	return string(buf)
}

// IsEmpty 是否为空标识
func (i Identity) IsEmpty() bool {
	return i.rep == nil
}

// Len 字段个数
func (i Identity) Len() int {
	if i.rep == nil {
		return 0
	}
	return int(i.rep.vec[0])
}

// At 第 k 个字段的类型ID
func (i Identity) At(k int) TypeID {
	return i.rep.vec[k+1]
}

// IDs 返回字段类型ID的拷贝（不含计数前缀）
func (i Identity) IDs() []TypeID {
	if i.rep == nil {
		return nil
	}
	return slices.Clone(i.rep.vec[1:])
}

// Vector 返回带计数前缀的完整序列（只读，不要修改）
func (i Identity) Vector() []TypeID {
	if i.rep == nil {
		return []TypeID{0}
	}
	return i.rep.vec
}

// Layout 返回存储布局，空标识返回 nil
func (i Identity) Layout() *Layout {
	if i.rep == nil {
		return nil
	}
	return &i.rep.layout
}

// Same 是否为同一个 intern 对象
func (i Identity) Same(o Identity) bool {
	return i.rep == o.rep
}

// Equal 结构相等：先比指针，再逐个比较
func (i Identity) Equal(o Identity) bool {
	if i.rep == o.rep {
		return true
	}
	if i.rep == nil || o.rep == nil {
		return i.Len() == o.Len()
	}
	return slices.Equal(i.rep.vec, o.rep.vec)
}

func (i Identity) String() string {
	if i.rep == nil {
		return "()"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for k, m := range i.rep.layout.Metas {
		if k > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(m.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}
