package rtti

import (
	"math"

	"github.com/dzm2020/gasmsg/internal/errs"
	"github.com/dzm2020/gasmsg/pkg/serializer"
)

// RegisterBuiltins 按固定顺序注册内置类型，保证不同进程的ID一致
// bool=1 int=2 int8=3 int16=4 int32=5 int64=6 uint=7 uint8=8 uint16=9
// uint32=10 uint64=11 float32=12 float64=13 string=14 []byte=15
func RegisterBuiltins(r *Registry) error {
	regs := []func(*Registry) error{
		register(WithCodec(
			func(s serializer.Sink, v *bool) error { return s.WriteBool(*v) },
			func(s serializer.Source, v *bool) (err error) { *v, err = s.ReadBool(); return })),
		registerInt[int](math.MinInt, math.MaxInt),
		registerInt[int8](math.MinInt8, math.MaxInt8),
		registerInt[int16](math.MinInt16, math.MaxInt16),
		registerInt[int32](math.MinInt32, math.MaxInt32),
		registerInt[int64](math.MinInt64, math.MaxInt64),
		registerUint[uint](math.MaxUint),
		registerUint[uint8](math.MaxUint8),
		registerUint[uint16](math.MaxUint16),
		registerUint[uint32](math.MaxUint32),
		registerUint[uint64](math.MaxUint64),
		register(WithCodec(
			func(s serializer.Sink, v *float32) error { return s.WriteFloat32(*v) },
			func(s serializer.Source, v *float32) (err error) { *v, err = s.ReadFloat32(); return })),
		register(WithCodec(
			func(s serializer.Sink, v *float64) error { return s.WriteFloat64(*v) },
			func(s serializer.Source, v *float64) (err error) { *v, err = s.ReadFloat64(); return })),
		register(WithCodec(
			func(s serializer.Sink, v *string) error { return s.WriteString(*v) },
			func(s serializer.Source, v *string) (err error) { *v, err = s.ReadString(); return })),
		register(WithCodec(
			func(s serializer.Sink, v *[]byte) error { return s.WriteBytes(*v) },
			func(s serializer.Source, v *[]byte) (err error) { *v, err = s.ReadBytes(); return }),
			WithClone(func(b []byte) []byte { return append([]byte(nil), b...) }),
			WithName[[]byte]("bytes")),
	}
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

func register[T any](opts ...Option[T]) func(*Registry) error {
	return func(r *Registry) error {
		_, err := Register(r, opts...)
		return err
	}
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func registerInt[T signed](lo, hi int64) func(*Registry) error {
	return register(WithCodec(
		func(s serializer.Sink, v *T) error { return s.WriteInt(int64(*v)) },
		func(s serializer.Source, v *T) error {
			n, err := s.ReadInt()
			if err != nil {
				return err
			}
			if n < lo || n > hi {
				return errs.ErrUnexpectedValue(TypeOf[T]().String(), "out of range integer")
			}
			*v = T(n)
			return nil
		}))
}

func registerUint[T unsigned](hi uint64) func(*Registry) error {
	return register(WithCodec(
		func(s serializer.Sink, v *T) error { return s.WriteUint(uint64(*v)) },
		func(s serializer.Source, v *T) error {
			n, err := s.ReadUint()
			if err != nil {
				return err
			}
			if n > hi {
				return errs.ErrUnexpectedValue(TypeOf[T]().String(), "out of range integer")
			}
			*v = T(n)
			return nil
		}))
}
