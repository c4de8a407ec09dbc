package main

import (
	"fmt"

	"neighbord/internal/model"
)

// tableRegistry adapts *model.Table to ctlsocket.Registry and
// ctlsocket.PortConfigurer, the two narrow interfaces the control socket
// server needs, without ctlsocket importing internal/model's full surface.
type tableRegistry struct {
	table *model.Table
}

func (r *tableRegistry) Get(name string) *model.Hardware { return r.table.Get(name) }

func (r *tableRegistry) All() []*model.Hardware { return r.table.All() }

func (r *tableRegistry) ConfigurePort(ifName, description string, disabled bool) error {
	hw := r.table.Get(ifName)
	if hw == nil {
		return fmt.Errorf("unknown interface %q", ifName)
	}
	hw.LocalPort.Descr = description
	if disabled {
		hw.Close()
	}
	return nil
}
