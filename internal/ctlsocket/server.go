package ctlsocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"golang.org/x/time/rate"

	"neighbord/internal/marshal"
	"neighbord/internal/model"
)

// Registry is the subset of daemon state the control socket server needs:
// looking up interfaces by name and listing every tracked interface name.
// A narrow interface rather than *model.Table directly, so tests can serve
// requests against a fake without building a real Table.
type Registry interface {
	Get(name string) *model.Hardware
	All() []*model.Hardware
}

// PortConfigurer applies a SET_PORT request. Kept separate from Registry
// since not every caller of this package needs write access.
type PortConfigurer interface {
	ConfigurePort(ifName, description string, disabled bool) error
}

// Server listens on a UNIX stream socket and answers control messages. It
// is rate-limited per spec.md's "abusive local clients must not be able to
// starve the daemon of CPU" requirement, using golang.org/x/time/rate the
// way a network-facing service would, even though every caller here is
// necessarily local.
type Server struct {
	path       string
	registry   Registry
	configurer PortConfigurer
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewServer builds a Server that will listen on path once Serve is called.
func NewServer(path string, registry Registry, configurer PortConfigurer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		path:       path,
		registry:   registry,
		configurer: configurer,
		limiter:    rate.NewLimiter(rate.Limit(50), 100),
		log:        log.With("component", "ctlsocket-server"),
	}
}

// Serve listens on s.path until ctx is cancelled, removing any stale
// socket file left behind by a previous, uncleanly-terminated run.
func (s *Server) Serve(ctx context.Context) error {
	_ = os.Remove(s.path)
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("ctlsocket: listen on %s: %w", s.path, err)
	}
	defer ln.Close()
	defer os.Remove(s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ctlsocket: accept: %w", err)
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		if !s.limiter.Allow() {
			s.writeError(conn, fmt.Errorf("rate limit exceeded"))
			return
		}
		hdr, payload, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, os.ErrClosed) {
				s.log.Debug("closing connection", "error", err)
			}
			return
		}
		if err := s.dispatch(conn, hdr.Type, payload); err != nil {
			s.log.Warn("request failed", "type", hdr.Type, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(conn net.Conn, msgType MessageType, payload []byte) error {
	switch msgType {
	case MsgGetInterfaces:
		return s.handleGetInterfaces(conn)
	case MsgGetInterface:
		return s.handleGetInterface(conn, payload)
	case MsgSetPort:
		return s.handleSetPort(conn, payload)
	default:
		return s.writeError(conn, fmt.Errorf("unsupported message type %s", msgType))
	}
}

func (s *Server) handleGetInterfaces(conn net.Conn) error {
	all := s.registry.All()
	names := make([]string, len(all))
	for i, hw := range all {
		names[i] = hw.IfName
	}
	return s.writePayload(conn, MsgGetInterfaces, "ctlsocket.InterfaceNames", &InterfaceNames{Names: names})
}

func (s *Server) handleGetInterface(conn net.Conn, payload []byte) error {
	var req *GetInterfaceRequest
	if err := marshal.Deserialize("ctlsocket.GetInterfaceRequest", payload, &req); err != nil {
		return s.writeError(conn, err)
	}
	hw := s.registry.Get(req.IfName)
	if hw == nil {
		return s.writeError(conn, fmt.Errorf("unknown interface %q", req.IfName))
	}
	view := NewInterfaceView(hw)
	return s.writePayload(conn, MsgGetInterface, "ctlsocket.InterfaceView", &view)
}

func (s *Server) handleSetPort(conn net.Conn, payload []byte) error {
	var req *SetPortRequest
	if err := marshal.Deserialize("ctlsocket.SetPortRequest", payload, &req); err != nil {
		return s.writeError(conn, err)
	}
	if s.configurer == nil {
		return s.writeError(conn, fmt.Errorf("SET_PORT not supported by this daemon instance"))
	}
	if err := s.configurer.ConfigurePort(req.IfName, req.Description, req.Disabled); err != nil {
		return s.writeError(conn, err)
	}
	return s.writePayload(conn, MsgSetPort, "ctlsocket.Ack", &Ack{})
}

func (s *Server) writePayload(conn net.Conn, msgType MessageType, schema string, v interface{}) error {
	data, err := marshal.Serialize(schema, v)
	if err != nil {
		return fmt.Errorf("ctlsocket: serialize %s: %w", schema, err)
	}
	return writeFrame(conn, msgType, data)
}

func (s *Server) writeError(conn net.Conn, cause error) error {
	data, err := marshal.Serialize("ctlsocket.ErrorPayload", &ErrorPayload{Message: cause.Error()})
	if err != nil {
		return err
	}
	return writeFrame(conn, MsgNone, data)
}
