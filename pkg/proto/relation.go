package proto

import (
	"github.com/go-faster/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ExtensionFieldNumber is the slot the host protocol reserves for opaque
// extension relations inside its generic plan-node message.
const ExtensionFieldNumber = 998

// DeltaRelationTypeURL identifies DeltaRelation payloads inside the
// Any-shaped extension slot.
const DeltaRelationTypeURL = "type.googleapis.com/delta.connect.DeltaRelation"

// Relation is the host protocol's generic query-plan node, reduced to the
// surface this client needs: plan identity plus the extension slot.
type Relation struct {
	Common    *RelationCommon // field 1
	Extension *Any            // field 998
}

// RelationCommon carries plan identity shared by all relation kinds.
type RelationCommon struct {
	PlanID int64 // field 1
}

// Any mirrors google.protobuf.Any on the wire.
type Any struct {
	TypeURL string // field 1
	Value   []byte // field 2
}

// PackExtension serializes d into r's extension slot.
func (r *Relation) PackExtension(d *DeltaRelation) error {
	if d.variantCount() != 1 {
		return errors.New("delta relation: exactly one variant must be set")
	}
	value, err := d.Marshal()
	if err != nil {
		return err
	}
	r.Extension = &Any{TypeURL: DeltaRelationTypeURL, Value: value}
	return nil
}

// UnpackExtension decodes the extension slot back into a DeltaRelation.
func (r *Relation) UnpackExtension() (*DeltaRelation, error) {
	if r.Extension == nil {
		return nil, errors.New("relation: no extension present")
	}
	if r.Extension.TypeURL != DeltaRelationTypeURL {
		return nil, errors.Errorf("relation: unexpected extension type %q", r.Extension.TypeURL)
	}
	d := &DeltaRelation{}
	if err := d.Unmarshal(r.Extension.Value); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Relation) Marshal() ([]byte, error) {
	var b []byte
	if r.Common != nil {
		child, err := r.Common.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, 1, child)
	}
	if r.Extension != nil {
		child, err := r.Extension.Marshal()
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, ExtensionFieldNumber, child)
	}
	return b, nil
}

func (r *Relation) Unmarshal(b []byte) error {
	*r = Relation{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			r.Common = &RelationCommon{}
			if err := r.Common.Unmarshal(child); err != nil {
				return err
			}
		case ExtensionFieldNumber:
			child, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			r.Extension = &Any{}
			if err := r.Extension.Unmarshal(child); err != nil {
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

func (m *RelationCommon) Marshal() ([]byte, error) {
	var b []byte
	if m.PlanID != 0 {
		b = appendVarintField(b, 1, uint64(m.PlanID))
	}
	return b, nil
}

func (m *RelationCommon) Unmarshal(b []byte) error {
	*m = RelationCommon{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case 1:
			v, n, err := consumeVarint(b)
			if err != nil {
				return err
			}
			m.PlanID, b = int64(v), b[n:]
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

func (m *Any) Marshal() ([]byte, error) {
	var b []byte
	if m.TypeURL != "" {
		b = appendStringField(b, 1, m.TypeURL)
	}
	if len(m.Value) > 0 {
		b = appendBytesField(b, 2, m.Value)
	}
	return b, nil
}

func (m *Any) Unmarshal(b []byte) error {
	*m = Any{}
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
			m.TypeURL, b = v, b[n:]
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return err
			}
			b = b[n:]
			m.Value = append([]byte(nil), v...)
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
