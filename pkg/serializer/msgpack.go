package serializer

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoder 基于 msgpack 的 Sink 实现
type Encoder struct {
	enc *msgpack.Encoder
}

// NewEncoder 从池中取一个 msgpack 编码器，用完调用 Release 归还
func NewEncoder(w io.Writer) *Encoder {
	enc := msgpack.GetEncoder()
	enc.Reset(w)
	return &Encoder{enc: enc}
}

// Release 归还内部编码器，之后不可再使用
func (e *Encoder) Release() {
	if e.enc != nil {
		msgpack.PutEncoder(e.enc)
		e.enc = nil
	}
}

func (e *Encoder) WriteUint16(v uint16) error {
	return e.enc.EncodeUint(uint64(v))
}

func (e *Encoder) WriteBool(v bool) error {
	return e.enc.EncodeBool(v)
}

func (e *Encoder) WriteInt(v int64) error {
	return e.enc.EncodeInt(v)
}

func (e *Encoder) WriteUint(v uint64) error {
	return e.enc.EncodeUint(v)
}

func (e *Encoder) WriteFloat32(v float32) error {
	return e.enc.EncodeFloat32(v)
}

func (e *Encoder) WriteFloat64(v float64) error {
	return e.enc.EncodeFloat64(v)
}

func (e *Encoder) WriteString(v string) error {
	return e.enc.EncodeString(v)
}

func (e *Encoder) WriteBytes(v []byte) error {
	return e.enc.EncodeBytes(v)
}

func (e *Encoder) WriteValue(v any) error {
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMsgPackPack, err)
	}
	return nil
}

// Decoder 基于 msgpack 的 Source 实现
type Decoder struct {
	dec *msgpack.Decoder
}

// NewDecoder 从池中取一个 msgpack 解码器
// r 实现 io.ByteScanner 时不会额外缓冲，读完一条消息后 r 的位置是准确的
func NewDecoder(r io.Reader) *Decoder {
	dec := msgpack.GetDecoder()
	dec.Reset(r)
	return &Decoder{dec: dec}
}

// Release 归还内部解码器
func (d *Decoder) Release() {
	if d.dec != nil {
		msgpack.PutDecoder(d.dec)
		d.dec = nil
	}
}

func (d *Decoder) ReadUint16() (uint16, error) {
	return d.dec.DecodeUint16()
}

func (d *Decoder) ReadBool() (bool, error) {
	return d.dec.DecodeBool()
}

func (d *Decoder) ReadInt() (int64, error) {
	return d.dec.DecodeInt64()
}

func (d *Decoder) ReadUint() (uint64, error) {
	return d.dec.DecodeUint64()
}

func (d *Decoder) ReadFloat32() (float32, error) {
	return d.dec.DecodeFloat32()
}

func (d *Decoder) ReadFloat64() (float64, error) {
	return d.dec.DecodeFloat64()
}

func (d *Decoder) ReadString() (string, error) {
	return d.dec.DecodeString()
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	return d.dec.DecodeBytes()
}

func (d *Decoder) ReadValue(ptr any) error {
	if err := d.dec.Decode(ptr); err != nil {
		return fmt.Errorf("%w: %w", ErrMsgPackUnPack, err)
	}
	return nil
}
