// Package discovery runs the periodic interface scan and announcement
// loop that ties internal/iface, internal/rawio and internal/model
// together: discovering interfaces, sending this host's own announcement
// on each, and pruning stale neighbor entries. Grounded on the Supervisor
// pattern in internal/daemon/convergence/loop.go, generalized from peer
// reconciliation to link-layer neighbor discovery, including its
// fullSyncInterval constant and injected-dependency shape.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"neighbord/internal/iface"
	"neighbord/internal/model"
	"neighbord/internal/privsep"
	"neighbord/internal/rawio"
	"neighbord/internal/telemetry"
)

// scanInterval is 30s: long enough to avoid hammering netlink on every
// tick, short enough that an interface coming up or going down is picked
// up well within a typical neighbor TTL. Matches convergence/loop.go's
// fullSyncInterval, which the spec's own periodic-announcement figure
// (~30s) independently agrees with.
const scanInterval = 30 * time.Second

// Loop owns the periodic scan-and-announce cycle for the daemon's
// lifetime. Its dependencies are injected, following convergence/loop.go's
// Supervisor shape, so tests can substitute fakes for the worker and clock
// without a real privileged process or kernel interfaces.
type Loop struct {
	Worker   *privsep.Worker
	Table    *model.Table
	Announce Announcer
	Clock    func() time.Time
	OnScan   func(added, removed []string)

	// ScanInterval overrides scanInterval when non-zero, set from the
	// daemon's own DaemonConfig.ScanInterval.
	ScanInterval time.Duration

	// Disabled names interfaces config.DaemonConfig.DisabledInterfaces
	// excludes from discovery entirely: never classified as acceptable,
	// never announced on, never opened for receive, regardless of what
	// internal/iface's own classification would otherwise allow.
	Disabled map[string]bool

	// Classify defaults to iface.ClassifyAll; tests substitute a fixed
	// interface set instead of depending on the host's real netlink state.
	Classify func() ([]*iface.Classification, error)

	log *slog.Logger

	// receivers tracks the running receiver goroutine for each interface
	// currently open for receive, keyed by interface name, so tick can stop
	// it the moment the interface disappears from classification.
	receivers map[string]context.CancelFunc
}

// Announcer sends this host's own announcement frame on one Hardware
// entry. A separate interface from *Loop's own methods so announce.go's
// frame construction can be tested independently of the scan cycle.
type Announcer interface {
	Announce(ctx context.Context, hw *model.Hardware) error
}

// NewLoop builds a Loop with sensible defaults for Clock and log when not
// overridden by the caller (tests set Clock to a fixed function).
func NewLoop(w *privsep.Worker, table *model.Table, announcer Announcer, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		Worker:    w,
		Table:     table,
		Announce:  announcer,
		Clock:     time.Now,
		Classify:  iface.ClassifyAll,
		log:       log.With("component", "discovery-loop"),
		receivers: make(map[string]context.CancelFunc),
	}
}

// Run blocks, scanning and announcing every scanInterval until ctx is
// cancelled. It scans once immediately on entry so a freshly started
// daemon doesn't wait a full interval before its first announcement.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.tick(ctx); err != nil {
		l.log.Error("initial scan failed", "error", err)
	}

	interval := scanInterval
	if l.ScanInterval > 0 {
		interval = l.ScanInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.tick(ctx); err != nil {
				l.log.Error("scan failed", "error", err)
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context) (err error) {
	ctx, end := telemetry.StartSpan(ctx, "discovery.tick")
	defer func() { end(err) }()

	classes, err := l.Classify()
	if err != nil {
		return fmt.Errorf("discovery: classify interfaces: %w", err)
	}

	seen := make(map[string]bool, len(classes))
	var added, removed []string
	for _, c := range classes {
		seen[c.Name] = true
		if !c.Accept || l.Disabled[c.Name] {
			continue
		}
		hw := l.Table.Get(c.Name)
		if hw == nil {
			hw = model.NewHardware(c.Name, c.IfIndex)
			l.populateHardware(ctx, hw, c)
			l.Table.Put(hw)
			added = append(added, c.Name)
		}
		if l.Announce != nil {
			if err := l.Announce.Announce(ctx, hw); err != nil {
				l.log.Warn("announce failed", "interface", c.Name, "error", err)
			}
		}
	}

	for _, hw := range l.Table.All() {
		if !seen[hw.IfName] {
			l.stopReceiver(hw.IfName)
			l.leaveMulticast(hw)
			hw.Close()
			l.Table.Remove(hw.IfName)
			removed = append(removed, hw.IfName)
		}
	}

	// VLAN descriptors are rebuilt from scratch every scan (mirroring the
	// ifa_flags intra-pass-only mutation policy in spec.md §5): a VLAN
	// that disappears or is renumbered between ticks must not leave a
	// stale descriptor behind on the physical interface it used to ride.
	for _, hw := range l.Table.All() {
		hw.LocalPort.VLANs = nil
	}
	attachments := iface.ResolveVLANAttachments(classes)
	for vlan, names := range attachments {
		for _, name := range names {
			hw := l.Table.Get(name)
			if hw == nil {
				continue
			}
			hw.LocalPort.VLANs = append(hw.LocalPort.VLANs, model.VLAN{
				VID:  uint16(vlan.VLANID),
				Name: vlan.Name,
			})
		}
	}

	now := l.Clock()
	l.Table.PruneAll(now)

	if l.OnScan != nil && (len(added) > 0 || len(removed) > 0) {
		l.OnScan(added, removed)
	}
	return nil
}

// defaultMTU is the fallback spec.md §4.3 names for when the MTU can't be
// read: "an unprivileged ioctl; fallback default of 1500 on failure".
const defaultMTU = 1500

// populateHardware fills in a freshly-created Hardware entry's link-layer
// identity, following iface_portid/iface_macphy/iface_mtu in
// interfaces.c: LLAddr from the kernel's own report (overridden by the
// slave's permanent MAC for a bond slave per scenario B), MTU with its
// 1500 fallback, MediaKind/MasterName for the bond send/receive path, and
// the local Port's identity/MAU fields. Per-interface failures here
// (an ethtool or permanent-MAC read failing) are logged and skipped,
// never fatal — spec.md §7's "Per-interface error" classification.
func (l *Loop) populateHardware(ctx context.Context, hw *model.Hardware, c *iface.Classification) {
	hw.MTU = c.MTU
	if hw.MTU == 0 {
		hw.MTU = defaultMTU
	}

	isBondSlave := c.Class == iface.ClassBondSlave

	lladdr := c.LLAddr
	if isBondSlave && c.MasterName != "" && l.Worker != nil {
		if mac, err := iface.PermanentMAC(l.Worker, c.MasterName, c.Name); err != nil {
			l.log.Info("permanent MAC lookup failed, using kernel-reported MAC", "interface", c.Name, "bond", c.MasterName, "error", err)
		} else {
			lladdr = mac
		}
	}
	copy(hw.LLAddr[:], lladdr)

	if isBondSlave {
		hw.MediaKind = model.MediaBondSlave
		hw.MasterName = c.MasterName
	} else {
		hw.MediaKind = model.MediaEthernet
	}

	hw.LocalPort.IDSubtype = model.PortIDLinkLayerAddr
	hw.LocalPort.ID = append([]byte(nil), hw.LLAddr[:]...)
	hw.LocalPort.Descr = c.Name
	if isBondSlave {
		hw.LocalPort.AggregationID = c.MasterIndex
	}

	if l.Worker == nil {
		return
	}
	li, err := iface.QueryLinkInfo(l.Worker, c.Name)
	if err != nil {
		l.log.Info("ethtool query failed", "interface", c.Name, "error", err)
	} else {
		hw.LocalPort.MAUType = uint16(li.MAUType)
		hw.LocalPort.AutoNegSupported = li.AutoNegSupported
		hw.LocalPort.AutoNegEnabled = li.AutoNegEnabled
		hw.LocalPort.AutoNegAdvertise = li.AutoNegAdvertise
	}

	fd, err := l.Worker.IfaceInit(c.Name, c.IfIndex)
	if err != nil {
		l.log.Warn("open raw socket failed, interface will not be announced or monitored", "interface", c.Name, "error", err)
		return
	}
	l.joinMulticast(c.Name)

	if isBondSlave && c.MasterName != "" {
		// spec.md §4.4: a bond slave's receive path holds two descriptors,
		// one on the slave (fd, above) and one on the bond master, so
		// receive.go's BondReceiver can disambiguate which delivered a
		// given frame. The master also needs the same multicast
		// memberships joined, or frames delivered there never arrive.
		l.joinMulticast(c.MasterName)
		masterFD, err := l.Worker.IfaceInit(c.MasterName, c.MasterIndex)
		if err != nil {
			l.log.Info("bond master raw socket open failed, falling back to slave-only receive", "interface", c.Name, "master", c.MasterName, "error", err)
			hw.SetFDs(fd, fd)
		} else {
			hw.SetBondFDs(fd, fd, masterFD)
		}
	} else {
		hw.SetFDs(fd, fd)
	}
	l.startReceiver(ctx, hw, c, isBondSlave)
}

// joinMulticast adds this daemon's discovery-protocol multicast
// memberships on ifName, per spec.md §4.4. Failures are logged and
// non-fatal: a missing membership means that protocol's announcements
// won't be delivered on this interface, not that discovery as a whole
// should stop.
func (l *Loop) joinMulticast(ifName string) {
	for _, addr := range rawio.MulticastAddresses {
		if err := l.Worker.SetMulticast(ifName, addr, true); err != nil {
			l.log.Info("multicast join failed", "interface", ifName, "error", err)
		}
	}
}

// leaveMulticast removes hw's discovery-protocol multicast memberships
// (and its bond master's, if any) as part of cleanup, per spec.md §4.4:
// "Cleanup removes multicast memberships (for both slave and master on
// bonds) and closes the descriptor(s)."
func (l *Loop) leaveMulticast(hw *model.Hardware) {
	if l.Worker == nil {
		return
	}
	for _, addr := range rawio.MulticastAddresses {
		if err := l.Worker.SetMulticast(hw.IfName, addr, false); err != nil {
			l.log.Info("multicast leave failed", "interface", hw.IfName, "error", err)
		}
	}
	if hw.MediaKind == model.MediaBondSlave && hw.MasterName != "" {
		for _, addr := range rawio.MulticastAddresses {
			if err := l.Worker.SetMulticast(hw.MasterName, addr, false); err != nil {
				l.log.Info("multicast leave failed", "interface", hw.MasterName, "error", err)
			}
		}
	}
}

// startReceiver launches and tracks the background goroutine reading
// neighbor announcements on hw's freshly opened receive descriptor.
func (l *Loop) startReceiver(ctx context.Context, hw *model.Hardware, c *iface.Classification, isBondSlave bool) {
	var bond *rawio.BondReceiver
	if isBondSlave {
		bond = &rawio.BondReceiver{
			MasterIfIndex:      c.MasterIndex,
			SlaveIfIndex:       c.IfIndex,
			LegacyIfindexMatch: true,
		}
	}
	rctx, cancel := context.WithCancel(ctx)
	l.receivers[c.Name] = cancel
	r := &receiver{hw: hw, bond: bond, clock: l.Clock, log: l.log}
	go r.run(rctx)
}

// stopReceiver cancels and forgets the running receiver for ifName, if any.
// Called when an interface no longer appears in the link list at all (a
// link that is still listed keeps its entry and receiver, whatever its
// classification) so its goroutine doesn't linger reading from a
// descriptor belonging to a Hardware entry that no longer exists.
func (l *Loop) stopReceiver(ifName string) {
	if cancel, ok := l.receivers[ifName]; ok {
		cancel()
		delete(l.receivers, ifName)
	}
}
