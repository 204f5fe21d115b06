package serializer

import (
	"google.golang.org/protobuf/proto"
)

// WriteProto 以 bytes 形式写入一个 pb 消息
func WriteProto(sink Sink, msg proto.Message) error {
	if msg == nil {
		return ErrPBPack
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return sink.WriteBytes(data)
}

// ReadProto 读取 bytes 并解析到 msg
func ReadProto(src Source, msg proto.Message) error {
	if msg == nil {
		return ErrPBUnPack
	}
	data, err := src.ReadBytes()
	if err != nil {
		return err
	}
	return proto.Unmarshal(data, msg)
}

// AsProto 判断值是否为 pb 消息
func AsProto(v any) (proto.Message, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, ErrNotPBMsg
	}
	return msg, nil
}
