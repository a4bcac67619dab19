package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
)

// JSONValue returns a collections value codec backed by encoding/json. The
// module ships no protobuf-generated types, so collection values round-trip
// through their JSON representation instead; math.Int and math.LegacyDec
// marshal themselves deterministically.
func JSONValue[T any]() collcodec.ValueCodec[T] {
	return jsonValueCodec[T]{}
}

type jsonValueCodec[T any] struct{}

func (jsonValueCodec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonValueCodec[T]) Decode(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (c jsonValueCodec[T]) EncodeJSON(value T) ([]byte, error) {
	return c.Encode(value)
}

func (c jsonValueCodec[T]) DecodeJSON(b []byte) (T, error) {
	return c.Decode(b)
}

func (jsonValueCodec[T]) Stringify(value T) string {
	return fmt.Sprintf("%v", value)
}

func (jsonValueCodec[T]) ValueType() string {
	var value T
	return fmt.Sprintf("json(%T)", value)
}
