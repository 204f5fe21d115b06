package serializer

// Sink 序列化输出端
// 消息核心只依赖这个接口，具体的字节格式由实现决定
type Sink interface {
	WriteUint16(v uint16) error
	WriteBool(v bool) error
	WriteInt(v int64) error
	WriteUint(v uint64) error
	WriteFloat32(v float32) error
	WriteFloat64(v float64) error
	WriteString(v string) error
	WriteBytes(v []byte) error
	// WriteValue 写入任意值，用于没有专用编解码的类型
	WriteValue(v any) error
}

// Source 反序列化输入端，与 Sink 一一对应
type Source interface {
	ReadUint16() (uint16, error)
	ReadBool() (bool, error)
	ReadInt() (int64, error)
	ReadUint() (uint64, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
	ReadString() (string, error)
	ReadBytes() ([]byte, error)
	// ReadValue 读入任意值，ptr 必须是指针
	ReadValue(ptr any) error
}
