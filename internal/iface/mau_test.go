package iface

import (
	"encoding/binary"
	"testing"

	"neighbord/internal/model"
)

// ethtoolCmdBuf builds a synthetic struct ethtool_cmd response buffer with
// just the fields decodeLinkInfo reads, leaving everything else zero.
func ethtoolCmdBuf(supported, advertising uint32, speed uint16, duplex, port, autoneg byte) []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[offSupported:], supported)
	binary.LittleEndian.PutUint32(buf[offAdvertising:], advertising)
	binary.LittleEndian.PutUint16(buf[offSpeed:], speed)
	buf[offDuplex] = duplex
	buf[offPort] = port
	buf[18] = autoneg
	return buf
}

func TestDecodeLinkInfoGigabitCopperFullDuplex(t *testing.T) {
	raw := ethtoolCmdBuf(supportedAutoneg, advertised1000baseTFull, speed1000, duplexFull, portTP, 1)

	li, err := decodeLinkInfo(raw)
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if li.MAUType != MAU1000BaseTFull {
		t.Errorf("MAUType = %v, want MAU1000BaseTFull", li.MAUType)
	}
	if !li.AutoNegSupported {
		t.Error("expected AutoNegSupported")
	}
	if !li.AutoNegEnabled {
		t.Error("expected AutoNegEnabled")
	}
	if li.AutoNegAdvertise&model.AutoNeg1000BaseTFull == 0 {
		t.Errorf("AutoNegAdvertise = %v, want 1000baseT-Full bit set", li.AutoNegAdvertise)
	}
}

func TestDecodeLinkInfoFastEthernetHalfDuplex(t *testing.T) {
	raw := ethtoolCmdBuf(0, advertised100baseTHalf, speed100, duplexHalf, portTP, 0)

	li, err := decodeLinkInfo(raw)
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if li.MAUType != MAU100BaseTXHalf {
		t.Errorf("MAUType = %v, want MAU100BaseTXHalf", li.MAUType)
	}
	if li.AutoNegSupported {
		t.Error("expected AutoNegSupported false")
	}
	if li.AutoNegEnabled {
		t.Error("expected AutoNegEnabled false")
	}
}

func TestDecodeLinkInfoFibreOverridesCopperGuess(t *testing.T) {
	raw := ethtoolCmdBuf(0, 0, speed1000, duplexFull, portFibre, 0)

	li, err := decodeLinkInfo(raw)
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if li.MAUType != MAU1000BaseXFull {
		t.Errorf("MAUType = %v, want MAU1000BaseXFull for a fibre port", li.MAUType)
	}
}

func TestDecodeLinkInfo10Base2BNC(t *testing.T) {
	raw := ethtoolCmdBuf(0, 0, speed10, duplexHalf, portBNC, 0)

	li, err := decodeLinkInfo(raw)
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if li.MAUType != MAU10Base2 {
		t.Errorf("MAUType = %v, want MAU10Base2", li.MAUType)
	}
}

func TestDecodeLinkInfoAUIOverridesEverything(t *testing.T) {
	raw := ethtoolCmdBuf(0, 0, speed10000, duplexFull, portAUI, 0)

	li, err := decodeLinkInfo(raw)
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if li.MAUType != MAUAUI {
		t.Errorf("MAUType = %v, want MAUAUI regardless of speed", li.MAUType)
	}
}

func TestDecodeLinkInfo10GigFibreVsCopper(t *testing.T) {
	fibre, err := decodeLinkInfo(ethtoolCmdBuf(0, 0, speed10000, duplexFull, portFibre, 0))
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if fibre.MAUType != MAU10GigBaseX {
		t.Errorf("fibre 10G MAUType = %v, want MAU10GigBaseX", fibre.MAUType)
	}

	copperLike, err := decodeLinkInfo(ethtoolCmdBuf(0, 0, speed10000, duplexFull, portTP, 0))
	if err != nil {
		t.Fatalf("decodeLinkInfo: %v", err)
	}
	if copperLike.MAUType != MAU10GigBaseR {
		t.Errorf("non-fibre 10G MAUType = %v, want MAU10GigBaseR", copperLike.MAUType)
	}
}

func TestDecodeLinkInfoShortBufferErrors(t *testing.T) {
	if _, err := decodeLinkInfo(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for a truncated ethtool_cmd buffer")
	}
}
