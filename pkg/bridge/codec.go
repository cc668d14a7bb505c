package bridge

// Binary codec for cross-chain action payloads. Every value is written as a
// one-byte length followed by its bytes, except RawMessage which consumes the
// remainder and therefore must come last. Integers are big-endian fixed
// width, uuids are their 16 raw bytes, decimals travel as strings.

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// RawMessage trailing opaque bytes of a payload
type RawMessage []byte

var errShortPayload = errors.New("bridge: payload too short")

// Encode packs values into a payload.
func Encode(values ...interface{}) ([]byte, error) {
	var out []byte

	for idx, v := range values {
		switch v := v.(type) {
		case RawMessage:
			if idx != len(values)-1 {
				return nil, errors.New("bridge: RawMessage must be the last value")
			}
			out = append(out, v...)
			continue
		case int8:
			out = appendPacket(out, []byte{byte(v)})
		case uint8:
			out = appendPacket(out, []byte{v})
		case int16:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(v))
			out = appendPacket(out, b[:])
		case uint16:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], v)
			out = appendPacket(out, b[:])
		case int32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(v))
			out = appendPacket(out, b[:])
		case uint32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], v)
			out = appendPacket(out, b[:])
		case int64:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v))
			out = appendPacket(out, b[:])
		case uint64:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], v)
			out = appendPacket(out, b[:])
		case bool:
			if v {
				out = appendPacket(out, []byte{1})
			} else {
				out = appendPacket(out, []byte{0})
			}
		case string:
			if len(v) > 255 {
				return nil, fmt.Errorf("bridge: string too long: %d", len(v))
			}
			out = appendPacket(out, []byte(v))
		case uuid.UUID:
			out = appendPacket(out, v.Bytes())
		case decimal.Decimal:
			out = appendPacket(out, []byte(v.String()))
		default:
			return nil, fmt.Errorf("bridge: cannot encode %T", v)
		}
	}

	return out, nil
}

// Scan unpacks values from data into the given pointers, returning the
// unconsumed remainder.
func Scan(data []byte, dest ...interface{}) ([]byte, error) {
	for _, d := range dest {
		if raw, ok := d.(*RawMessage); ok {
			*raw = append(RawMessage{}, data...)
			data = nil
			continue
		}

		body, remain, err := readPacket(data)
		if err != nil {
			return nil, err
		}
		data = remain

		switch d := d.(type) {
		case *int8:
			if len(body) != 1 {
				return nil, errShortPayload
			}
			*d = int8(body[0])
		case *uint8:
			if len(body) != 1 {
				return nil, errShortPayload
			}
			*d = body[0]
		case *int16:
			if len(body) != 2 {
				return nil, errShortPayload
			}
			*d = int16(binary.BigEndian.Uint16(body))
		case *uint16:
			if len(body) != 2 {
				return nil, errShortPayload
			}
			*d = binary.BigEndian.Uint16(body)
		case *int32:
			if len(body) != 4 {
				return nil, errShortPayload
			}
			*d = int32(binary.BigEndian.Uint32(body))
		case *uint32:
			if len(body) != 4 {
				return nil, errShortPayload
			}
			*d = binary.BigEndian.Uint32(body)
		case *int64:
			if len(body) != 8 {
				return nil, errShortPayload
			}
			*d = int64(binary.BigEndian.Uint64(body))
		case *uint64:
			if len(body) != 8 {
				return nil, errShortPayload
			}
			*d = binary.BigEndian.Uint64(body)
		case *bool:
			if len(body) != 1 {
				return nil, errShortPayload
			}
			*d = body[0] != 0
		case *string:
			*d = string(body)
		case *uuid.UUID:
			id, err := uuid.FromBytes(body)
			if err != nil {
				return nil, err
			}
			*d = id
		case *decimal.Decimal:
			v, err := decimal.NewFromString(string(body))
			if err != nil {
				return nil, err
			}
			*d = v
		default:
			return nil, fmt.Errorf("bridge: cannot scan into %T", d)
		}
	}

	return data, nil
}

func appendPacket(out, body []byte) []byte {
	out = append(out, byte(len(body)))
	return append(out, body...)
}

func readPacket(data []byte) (body, remain []byte, err error) {
	if len(data) < 1 {
		return nil, nil, errShortPayload
	}

	n := int(data[0])
	if len(data) < 1+n {
		return nil, nil, errShortPayload
	}

	return data[1 : 1+n], data[1+n:], nil
}
