package changemap

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pulsewire/pulseview/pkg/pool"
)

// Encode serializes a change map's wire form as JSON, reusing a pooled
// buffer for the encoder's output allocation.
func Encode(m *Map) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	enc := json.NewEncoder(buf)
	if err := enc.Encode(m.Wire()); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// EncodeMsgpack serializes a change map's wire form as MessagePack, for
// transports that negotiate a binary sub-protocol instead of JSON.
func EncodeMsgpack(m *Map) ([]byte, error) {
	return msgpack.Marshal(m.Wire())
}
