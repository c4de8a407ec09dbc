package ctlsocket

import (
	"fmt"
	"net"

	"neighbord/internal/marshal"
)

// Client is a connection to a running daemon's control socket, used by
// neighborctl and by any other process that only needs read (and,
// occasionally, SET_PORT) access.
type Client struct {
	conn net.Conn
}

// Dial connects to the control socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ctlsocket: dial %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// GetInterfaces lists every interface name the daemon currently tracks.
func (c *Client) GetInterfaces() ([]string, error) {
	if err := writeFrame(c.conn, MsgGetInterfaces, nil); err != nil {
		return nil, err
	}
	hdr, payload, err := readFrame(c.conn)
	if err != nil {
		return nil, err
	}
	if hdr.Type == MsgNone {
		return nil, decodeError(payload)
	}
	var names *InterfaceNames
	if err := marshal.Deserialize("ctlsocket.InterfaceNames", payload, &names); err != nil {
		return nil, err
	}
	return names.Names, nil
}

// GetInterface fetches the full view (local port plus neighbor table) of
// one interface.
func (c *Client) GetInterface(ifName string) (*InterfaceView, error) {
	reqPayload, err := marshal.Serialize("ctlsocket.GetInterfaceRequest", &GetInterfaceRequest{IfName: ifName})
	if err != nil {
		return nil, err
	}
	if err := writeFrame(c.conn, MsgGetInterface, reqPayload); err != nil {
		return nil, err
	}
	hdr, payload, err := readFrame(c.conn)
	if err != nil {
		return nil, err
	}
	if hdr.Type == MsgNone {
		return nil, decodeError(payload)
	}
	var view *InterfaceView
	if err := marshal.Deserialize("ctlsocket.InterfaceView", payload, &view); err != nil {
		return nil, err
	}
	return view, nil
}

// SetPort applies a runtime configuration change to a local port.
func (c *Client) SetPort(ifName, description string, disabled bool) error {
	reqPayload, err := marshal.Serialize("ctlsocket.SetPortRequest", &SetPortRequest{
		IfName:      ifName,
		Description: description,
		Disabled:    disabled,
	})
	if err != nil {
		return err
	}
	if err := writeFrame(c.conn, MsgSetPort, reqPayload); err != nil {
		return err
	}
	hdr, payload, err := readFrame(c.conn)
	if err != nil {
		return err
	}
	if hdr.Type == MsgNone {
		return decodeError(payload)
	}
	return nil
}

func decodeError(payload []byte) error {
	var errPayload *ErrorPayload
	if err := marshal.Deserialize("ctlsocket.ErrorPayload", payload, &errPayload); err != nil {
		return fmt.Errorf("ctlsocket: request failed and error payload was unreadable: %w", err)
	}
	return fmt.Errorf("ctlsocket: %s", errPayload.Message)
}
