package ctlsocket

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"neighbord/internal/model"
)

// fakeRegistry is a hand-written test double in the style of
// status_test.go's fakeStatusRegistry, rather than a mocking library.
type fakeRegistry struct {
	byName map[string]*model.Hardware
}

func (f *fakeRegistry) Get(name string) *model.Hardware { return f.byName[name] }

func (f *fakeRegistry) All() []*model.Hardware {
	out := make([]*model.Hardware, 0, len(f.byName))
	for _, hw := range f.byName {
		out = append(out, hw)
	}
	return out
}

type fakeConfigurer struct {
	calledWith string
}

func (f *fakeConfigurer) ConfigurePort(ifName, description string, disabled bool) error {
	f.calledWith = ifName
	return nil
}

func startTestServer(t *testing.T, reg Registry, cfg PortConfigurer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "neighbord.sock")
	srv := NewServer(path, reg, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	for i := 0; i < 100; i++ {
		if _, err := os.Stat(path); err == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	return path
}

func TestGetInterfacesListsTrackedNames(t *testing.T) {
	reg := &fakeRegistry{byName: map[string]*model.Hardware{
		"eth0": model.NewHardware("eth0", 2),
		"eth1": model.NewHardware("eth1", 3),
	}}
	path := startTestServer(t, reg, nil)

	client, err := Dial(path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	names, err := client.GetInterfaces()
	if err != nil {
		t.Fatalf("GetInterfaces: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
}

func TestGetInterfaceUnknownNameReturnsError(t *testing.T) {
	reg := &fakeRegistry{byName: map[string]*model.Hardware{}}
	path := startTestServer(t, reg, nil)

	client, err := Dial(path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.GetInterface("nope0"); err == nil {
		t.Fatal("GetInterface on unknown name: want error, got nil")
	}
}

func TestSetPortAppliesChange(t *testing.T) {
	reg := &fakeRegistry{byName: map[string]*model.Hardware{
		"eth0": model.NewHardware("eth0", 2),
	}}
	cfg := &fakeConfigurer{}
	path := startTestServer(t, reg, cfg)

	client, err := Dial(path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := client.SetPort("eth0", "uplink", false); err != nil {
		t.Fatalf("SetPort: %v", err)
	}
	if cfg.calledWith != "eth0" {
		t.Errorf("configurer called with %q, want eth0", cfg.calledWith)
	}
}
