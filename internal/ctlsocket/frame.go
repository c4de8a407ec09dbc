package ctlsocket

import (
	"encoding/binary"
	"fmt"
	"io"

	"neighbord/internal/marshal"
)

var (
	_ = marshal.Register("ctlsocket.GetInterfaceRequest", &GetInterfaceRequest{}, &marshal.Info{})
	_ = marshal.Register("ctlsocket.SetPortRequest", &SetPortRequest{}, &marshal.Info{})
	_ = marshal.Register("ctlsocket.InterfaceNames", &InterfaceNames{}, &marshal.Info{})
	_ = marshal.Register("ctlsocket.Ack", &Ack{}, &marshal.Info{})
	_ = marshal.Register("ctlsocket.ErrorPayload", &ErrorPayload{}, &marshal.Info{})
	_ = marshal.Register("ctlsocket.InterfaceView", &InterfaceView{}, &marshal.Info{})
)

// byteOrder matches internal/marshal's fixed wire order; the header is
// encoded independently of the payload codec since it must be readable
// before any schema lookup happens.
var byteOrder = binary.LittleEndian

// frameHeader is {type: u32, length: u32}, exactly as ctl.h's message
// header is described in spec.md §6.
type frameHeader struct {
	Type   MessageType
	Length uint32
}

func writeFrame(w io.Writer, msgType MessageType, payload []byte) error {
	var hdr [8]byte
	byteOrder.PutUint32(hdr[0:4], uint32(msgType))
	byteOrder.PutUint32(hdr[4:8], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("ctlsocket: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("ctlsocket: write payload: %w", err)
	}
	return nil
}

const maxFrameLength = 4 << 20

func readFrame(r io.Reader) (frameHeader, []byte, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return frameHeader{}, nil, fmt.Errorf("ctlsocket: read header: %w", err)
	}
	h := frameHeader{
		Type:   MessageType(byteOrder.Uint32(hdr[0:4])),
		Length: byteOrder.Uint32(hdr[4:8]),
	}
	if h.Length > maxFrameLength {
		return h, nil, fmt.Errorf("ctlsocket: frame length %d exceeds limit", h.Length)
	}
	payload := make([]byte, h.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, fmt.Errorf("ctlsocket: read payload: %w", err)
	}
	return h, payload, nil
}
