package session

import (
	"github.com/go-faster/errors"

	"github.com/TFMV/deltabox/pkg/proto"
)

// wireCodec lets gRPC carry the hand-maintained wire types directly.
// It registers under the standard proto content subtype so engines built
// from generated stubs interoperate.
type wireCodec struct{}

func (wireCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, errors.Errorf("codec: %T does not implement proto.Message", v)
	}
	return m.Marshal()
}

func (wireCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(proto.Message)
	if !ok {
		return errors.Errorf("codec: %T does not implement proto.Message", v)
	}
	return m.Unmarshal(data)
}

func (wireCodec) Name() string {
	return "proto"
}
