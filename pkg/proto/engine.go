package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every wire type in this package. The gRPC
// codec in pkg/session marshals through it.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(b []byte) error
}

// ExecuteRequest asks the engine to evaluate a plan within a session.
type ExecuteRequest struct {
	SessionID string    // field 1
	Plan      *Relation // field 2
}

// ExecuteResponse is one chunk of the result stream. Data chunks
// concatenate into a single Arrow IPC stream.
type ExecuteResponse struct {
	Data []byte // field 1
}

func (m *ExecuteRequest) Marshal() ([]byte, error) {
	var b []byte
	if m.SessionID != "" {
		b = appendStringField(b, 1, m.SessionID)
	}
	if m.Plan != nil {
		child, err := m.Plan.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 2, child)
	}
	return b, nil
}

func (m *ExecuteRequest) Unmarshal(b []byte) error {
	*m = ExecuteRequest{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return err
			}
			m.SessionID, b = v, b[n:]
		case 2:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Plan = &Relation{}
			if err := m.Plan.Unmarshal(child); err != nil {
				return err
			}
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *ExecuteResponse) Marshal() ([]byte, error) {
	var b []byte
	if len(m.Data) > 0 {
		b = appendBytesField(b, 1, m.Data)
	}
	return b, nil
}

func (m *ExecuteResponse) Unmarshal(b []byte) error {
	*m = ExecuteResponse{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Data = append([]byte(nil), v...)
		default:
			n, err := skipField(num, typ, b)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}
