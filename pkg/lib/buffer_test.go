package lib

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBufferGrow(t *testing.T) {
	b := NewBuffer(4)
	data := bytes.Repeat([]byte("ab"), 100)
	if n, err := b.Write(data); err != nil || n != len(data) {
		t.Fatalf("Write: %d %v", n, err)
	}
	if b.Len() != len(data) || b.Cap() < len(data) {
		t.Errorf("扩容错误: len=%d cap=%d", b.Len(), b.Cap())
	}
	if !bytes.Equal(b.Bytes(), data) {
		t.Error("数据不一致")
	}
}

func TestBufferCompact(t *testing.T) {
	b := NewBuffer(8)
	_, _ = b.WriteString("12345678")
	if err := b.Skip(6); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	// 剩余空间不够时先压缩，不扩容
	_, _ = b.WriteString("abcd")
	if b.Cap() != 8 {
		t.Errorf("应压缩而不是扩容: cap=%d", b.Cap())
	}
	if b.String() != "78abcd" {
		t.Errorf("压缩后数据错误: %s", b.String())
	}
}

func TestBufferByteScanner(t *testing.T) {
	b := NewBufferFrom([]byte{1, 2})
	var _ io.ByteScanner = b

	c, err := b.ReadByte()
	if err != nil || c != 1 {
		t.Fatalf("ReadByte: %d %v", c, err)
	}
	if err = b.UnreadByte(); err != nil {
		t.Fatalf("UnreadByte: %v", err)
	}
	p := make([]byte, 4)
	n, err := b.Read(p)
	if err != nil || n != 2 || p[0] != 1 || p[1] != 2 {
		t.Errorf("Read: %d %v %v", n, err, p)
	}
	if _, err = b.ReadByte(); err != io.EOF {
		t.Errorf("读空应返回 EOF: %v", err)
	}
	if _, err = b.Read(p); err != io.EOF {
		t.Errorf("读空应返回 EOF: %v", err)
	}
}

func TestBufferPeekSkip(t *testing.T) {
	b := NewBufferFrom([]byte("hello"))
	if p, err := b.Peek(2); err != nil || string(p) != "he" {
		t.Errorf("Peek: %s %v", p, err)
	}
	if b.Len() != 5 {
		t.Error("Peek 不应移动读指针")
	}
	if _, err := b.Peek(6); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("数据不足应报错: %v", err)
	}
	if err := b.Skip(6); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("数据不足应报错: %v", err)
	}
	if err := NewBuffer(0).UnreadByte(); !errors.Is(err, ErrUnreadByte) {
		t.Errorf("未读取时回退应报错: %v", err)
	}

	r := b.Readable()
	r[0] = 'X'
	if b.String() != "hello" {
		t.Error("Readable 应返回拷贝")
	}
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Reset 后长度应为 0: %d", b.Len())
	}
}
