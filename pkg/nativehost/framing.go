// Package nativehost speaks the browser native-messaging protocol: each
// message is UTF-8 JSON preceded by its length as a 32-bit little-endian
// integer.
package nativehost

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxInboundMessageSize is the largest message a browser will send.
	MaxInboundMessageSize = 64 << 20
	// MaxOutboundMessageSize is the largest message a browser will accept.
	MaxOutboundMessageSize = 1 << 20
)

var ErrMessageTooLarge = errors.New("native message exceeds size limit")

// ReadMessage returns io.EOF only when the stream ends cleanly between messages.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxInboundMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

func WriteMessage(w io.Writer, payload []byte) error {
	if len(payload) > MaxOutboundMessageSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(payload))
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
