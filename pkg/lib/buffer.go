package lib

import (
	"errors"
	"io"
)

var (
	ErrInsufficientData = errors.New("buffer: insufficient data")
	ErrUnreadByte       = errors.New("buffer: unread byte before read")
)

const (
	defaultBufferCap = 512
	maxBufferGrow    = 1024 * 1024 * 10
)

// Buffer 序列化缓冲区，读写指针分离
// 实现 io.Writer / io.Reader / io.ByteScanner，可直接交给 msgpack 编解码器
type Buffer struct {
	buf []byte
	r   int // 读指针
	w   int // 写指针
}

// NewBuffer 创建一个指定初始容量的缓冲区
func NewBuffer(initialCap int) *Buffer {
	if initialCap <= 0 {
		initialCap = defaultBufferCap
	}
	return &Buffer{buf: make([]byte, initialCap)}
}

// NewBufferFrom 以已有数据创建只读缓冲区（不复制）
func NewBufferFrom(data []byte) *Buffer {
	return &Buffer{buf: data, w: len(data)}
}

// Len 可读取的字节数
func (b *Buffer) Len() int {
	return b.w - b.r
}

// Cap 缓冲区总容量
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Reset 清空数据，指针归零
func (b *Buffer) Reset() {
	b.r = 0
	b.w = 0
}

// Bytes 返回可读数据切片（不复制）
func (b *Buffer) Bytes() []byte {
	return b.buf[b.r:b.w]
}

// Readable 返回可读数据的拷贝
func (b *Buffer) Readable() []byte {
	data := make([]byte, b.Len())
	copy(data, b.buf[b.r:b.w])
	return data
}

// ensureSpace 确保有 n 字节写入空间，不够先压缩再扩容
func (b *Buffer) ensureSpace(n int) {
	if len(b.buf)-b.w >= n {
		return
	}
	if b.r > 0 {
		copy(b.buf, b.buf[b.r:b.w])
		b.w -= b.r
		b.r = 0
	}
	if len(b.buf)-b.w >= n {
		return
	}
	newCap := len(b.buf)
	if newCap == 0 {
		newCap = defaultBufferCap
	}
	for newCap-b.w < n {
		newCap *= 2
		if newCap > maxBufferGrow {
			newCap = b.w + n + maxBufferGrow
		}
	}
	newBuf := make([]byte, newCap)
	copy(newBuf, b.buf[:b.w])
	b.buf = newBuf
}

func (b *Buffer) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	b.ensureSpace(len(data))
	n := copy(b.buf[b.w:], data)
	b.w += n
	return n, nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.ensureSpace(1)
	b.buf[b.w] = c
	b.w++
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	b.ensureSpace(len(s))
	n := copy(b.buf[b.w:], s)
	b.w += n
	return n, nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// UnreadByte 回退一个字节，只能紧跟在读取之后调用
func (b *Buffer) UnreadByte() error {
	if b.r == 0 {
		return ErrUnreadByte
	}
	b.r--
	return nil
}

// Peek 查看前 n 个字节（不移动读指针）
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	if b.Len() < n {
		return nil, ErrInsufficientData
	}
	return b.buf[b.r : b.r+n], nil
}

// Skip 跳过 n 个字节
func (b *Buffer) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	if b.Len() < n {
		return ErrInsufficientData
	}
	b.r += n
	return nil
}

func (b *Buffer) String() string {
	return string(b.buf[b.r:b.w])
}
