package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"deaddrop/internal/domain"
)

const (
	// Size is the length of every encoded frame.
	Size = 1024
	// Version is the only frame version this package writes or reads.
	Version = 1

	headerLen = 4 + 1 + 2
	// MaxBody is the largest CBOR body that fits in a frame.
	MaxBody = Size - headerLen
)

var magic = []byte("DDRP")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 256,
		MaxMapPairs:      64,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode serialises msg into a Size-byte frame. Bodies longer than MaxBody
// fail with domain.ErrMessageTooLarge.
func Encode(msg domain.Message) ([]byte, error) {
	body, err := encMode.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBody {
		return nil, fmt.Errorf("%w: body is %d bytes, limit %d", domain.ErrMessageTooLarge, len(body), MaxBody)
	}
	frame := make([]byte, Size)
	copy(frame, magic)
	frame[4] = Version
	binary.BigEndian.PutUint16(frame[5:7], uint16(len(body)))
	copy(frame[headerLen:], body)
	return frame, nil
}

// Decode parses a frame produced by Encode.
func Decode(frame []byte) (domain.Message, error) {
	if len(frame) != Size {
		return domain.Message{}, fmt.Errorf("%w: frame is %d bytes", domain.ErrMalformed, len(frame))
	}
	if !bytes.Equal(frame[:4], magic) {
		return domain.Message{}, fmt.Errorf("%w: bad magic", domain.ErrMalformed)
	}
	if frame[4] != Version {
		return domain.Message{}, fmt.Errorf("%w: unsupported frame version %d", domain.ErrMalformed, frame[4])
	}
	n := int(binary.BigEndian.Uint16(frame[5:7]))
	if n > MaxBody {
		return domain.Message{}, fmt.Errorf("%w: body length %d", domain.ErrMalformed, n)
	}
	var msg domain.Message
	if err := decMode.Unmarshal(frame[headerLen:headerLen+n], &msg); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return msg, nil
}
