package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ========== 类型注册相关错误 ==========

var (
	// ErrTypeNotRegistered 类型未注册（编程错误，查找时直接 panic）
	ErrTypeNotRegistered = errors.New("rtti: type not registered")
	// ErrRegistrySealed 注册表已封存，不允许继续注册
	ErrRegistrySealed = errors.New("rtti: registry is sealed")
	// ErrTooManyTypes 类型ID用尽
	ErrTooManyTypes = errors.New("rtti: too many types")
	// ErrIdentityTooLong 字段个数超出标识计数的表示范围
	ErrIdentityTooLong = errors.New("rtti: too many fields")
	// ErrRegistryIsNil 注册表为空
	ErrRegistryIsNil = errors.New("rtti: registry is nil")
)

func ErrTypeNotRegisteredFor(name string) error {
	return errors.Wrapf(ErrTypeNotRegistered, "type=%s", name)
}

func ErrTypeIDNotRegistered(id uint16) error {
	return errors.Wrapf(ErrTypeNotRegistered, "id=%d", id)
}

func ErrRegisterAfterSeal(name string) error {
	return errors.Wrapf(ErrRegistrySealed, "register %s", name)
}

func ErrTooManyFields(n int) error {
	return errors.Wrapf(ErrIdentityTooLong, "fields=%d", n)
}

func ErrCloneFailed(name string, err error) error {
	return fmt.Errorf("rtti: clone %s (use WithClone): %w", name, err)
}

// ========== 解码相关错误 ==========

var (
	// ErrDecode 解码失败，所有解码错误都包装此错误
	ErrDecode = errors.New("message: decode failed")
	// ErrUnknownTypeID 线上的类型ID无法在注册表中解析
	ErrUnknownTypeID = errors.Wrap(ErrDecode, "unknown type id")
)

func ErrDecodeIdentity(err error) error {
	return fmt.Errorf("%w: read identity: %w", ErrDecode, err)
}

func ErrUnresolvedTypeID(id uint16) error {
	return errors.Wrapf(ErrUnknownTypeID, "id=%d", id)
}

func ErrDecodeField(index int, name string, err error) error {
	return fmt.Errorf("%w: field %d (%s): %w", ErrDecode, index, name, err)
}

func ErrUnexpectedValue(want, got string) error {
	return fmt.Errorf("codec: expected %s, got %s", want, got)
}

// ========== 消息相关错误 ==========

var (
	// ErrFieldIndexOutOfRange 字段下标越界
	ErrFieldIndexOutOfRange = errors.New("message: field index out of range")
	// ErrFieldTypeMismatch 字段类型不匹配
	ErrFieldTypeMismatch = errors.New("message: field type mismatch")
)

func ErrFieldIndex(index, size int) error {
	return errors.Wrapf(ErrFieldIndexOutOfRange, "index=%d len=%d", index, size)
}

func ErrFieldType(index int, want, got string) error {
	return errors.Wrapf(ErrFieldTypeMismatch, "field %d want %s got %s", index, want, got)
}

// ========== 行为相关错误 ==========

// ErrHandlerIsNil 处理函数为空
var ErrHandlerIsNil = errors.New("behavior: handler is nil")

func ErrHandlerMustBeFunction(got string) error {
	return fmt.Errorf("behavior: handler must be a function, got %s", got)
}

func ErrHandlerVariadic() error {
	return fmt.Errorf("behavior: variadic handlers are not supported")
}

func ErrHandlerParameter(index int, err error) error {
	return fmt.Errorf("behavior: handler parameter %d: %w", index, err)
}

func ErrHandlerResult(index int, err error) error {
	return fmt.Errorf("behavior: handler result %d: %w", index, err)
}

// ========== Config 相关错误 ==========

func ErrReadConfigFileFailed(err error) error {
	return fmt.Errorf("read config file failed: %w", err)
}

func ErrUnmarshalConfigFailed(err error) error {
	return fmt.Errorf("unmarshal config failed: %w", err)
}

func ErrWriteConfigFileFailed(err error) error {
	return fmt.Errorf("write config file failed: %w", err)
}
