package privsep

import (
	"encoding/binary"
	"fmt"
	"io"

	"neighbord/internal/marshal"
)

var (
	_ = marshal.Register("privsep.Request", &Request{}, &marshal.Info{})
	_ = marshal.Register("privsep.Response", &Response{}, &marshal.Info{})
)

// writeFrame writes a {length:u32}{payload} frame to w, matching the
// length-prefixed framing used on the control socket (internal/ctlsocket),
// since both are local, single-host channels with no reason to diverge.
func writeFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("privsep: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("privsep: write frame body: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("privsep: read frame header: %w", err)
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	const maxFrame = 1 << 20
	if n > maxFrame {
		return nil, fmt.Errorf("privsep: frame too large: %d bytes", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("privsep: read frame body: %w", err)
	}
	return buf, nil
}

func writeRequest(w io.Writer, req *Request) error {
	data, err := marshal.Serialize("privsep.Request", req)
	if err != nil {
		return err
	}
	return writeFrame(w, data)
}

func readRequest(r io.Reader) (*Request, error) {
	data, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	var req *Request
	if err := marshal.Deserialize("privsep.Request", data, &req); err != nil {
		return nil, err
	}
	return req, nil
}

func writeResponse(w io.Writer, resp *Response) error {
	data, err := marshal.Serialize("privsep.Response", resp)
	if err != nil {
		return err
	}
	return writeFrame(w, data)
}

func readResponse(r io.Reader) (*Response, error) {
	data, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	var resp *Response
	if err := marshal.Deserialize("privsep.Response", data, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
