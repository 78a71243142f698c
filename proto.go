package gojacomplate

import (
	"encoding/base64"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

type protoPrototype struct{}

// ProtoPrototype returns a prototype matching any [proto.Message].
//
// Fields are named by their JSON name, in descriptor order. Enums marshal
// as their value names, bytes as standard base64, and 64-bit integers as
// numbers. Unset singular message fields are null, and unset oneof members
// are omitted.
func ProtoPrototype() Prototype { return protoPrototype{} }

func (protoPrototype) Name() string { return "proto" }

func (protoPrototype) Extract(v any) ([]Field, bool) {
	m, ok := v.(proto.Message)
	if !ok || m == nil {
		return nil, false
	}
	msg := m.ProtoReflect()
	if !msg.IsValid() {
		return nil, false
	}
	fds := msg.Descriptor().Fields()
	fields := make([]Field, 0, fds.Len())
	for i := 0; i < fds.Len(); i++ {
		fd := fds.Get(i)
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() && !msg.Has(fd) {
			continue
		}
		var val any
		switch {
		case fd.IsList():
			list := msg.Get(fd).List()
			items := make([]any, list.Len())
			for j := range items {
				items[j] = protoFieldValue(fd, list.Get(j))
			}
			val = items
		case fd.IsMap():
			entries := make(map[string]any)
			msg.Get(fd).Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
				entries[k.String()] = protoFieldValue(fd.MapValue(), v)
				return true
			})
			val = entries
		case fd.Message() != nil && !msg.Has(fd):
			val = nil
		default:
			val = protoFieldValue(fd, msg.Get(fd))
		}
		fields = append(fields, Field{Name: fd.JSONName(), Value: val})
	}
	return fields, true
}

func protoFieldValue(fd protoreflect.FieldDescriptor, val protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return val.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return val.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return val.Uint()
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return val.Float()
	case protoreflect.StringKind:
		return val.String()
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(val.Bytes())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(val.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int32(val.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return val.Message().Interface()
	default:
		return nil
	}
}
