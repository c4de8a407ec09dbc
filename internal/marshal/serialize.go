package marshal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// Wire tags for a pointer frame.
const (
	tagNil     byte = 0
	tagBody    byte = 1
	tagBackref byte = 2
)

// byteOrder is the fixed on-wire integer encoding. The protocol never
// crosses hosts (it is the local control socket / privsep pair), so this
// is the "host byte order" the design calls for; it is pinned to
// LittleEndian rather than a true native-order helper so the encoder is
// deterministic across the little- and big-endian hosts lldpd itself
// supports, and trivially swapped for BigEndian if that ever matters.
var byteOrder = binary.LittleEndian

// Serialize produces a self-contained byte buffer from which Deserialize
// reconstructs an isomorphic graph rooted at v, which must be a non-nil
// pointer to a type registered under typeName.
func Serialize(typeName string, v interface{}) ([]byte, error) {
	if _, ok := Lookup(typeName); !ok {
		return nil, fmt.Errorf("marshal: unknown schema %q", typeName)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("marshal: root value for %q must be a pointer, got %s", typeName, rv.Kind())
	}

	e := &encoder{buf: &bytes.Buffer{}, seen: map[uintptr]uint32{}}
	if err := e.encodePointer(rv); err != nil {
		return nil, fmt.Errorf("marshal: serialize %s: %w", typeName, err)
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf  *bytes.Buffer
	seen map[uintptr]uint32
	next uint32
}

func (e *encoder) encodePointer(rv reflect.Value) error {
	if rv.IsNil() {
		return e.buf.WriteByte(tagNil)
	}
	addr := rv.Pointer()
	if idx, ok := e.seen[addr]; ok {
		if err := e.buf.WriteByte(tagBackref); err != nil {
			return err
		}
		return binary.Write(e.buf, byteOrder, idx)
	}

	idx := e.next
	e.next++
	e.seen[addr] = idx

	if err := e.buf.WriteByte(tagBody); err != nil {
		return err
	}
	if err := binary.Write(e.buf, byteOrder, idx); err != nil {
		return err
	}
	return e.encodeValue(rv.Elem())
}

func (e *encoder) encodeValue(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Struct:
		return e.encodeStruct(rv)
	case reflect.Slice:
		return e.encodeSlice(rv)
	case reflect.Array:
		return e.encodeArray(rv)
	case reflect.String:
		b := []byte(rv.String())
		if err := binary.Write(e.buf, byteOrder, uint32(len(b))); err != nil {
			return err
		}
		_, err := e.buf.Write(b)
		return err
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return writeScalar(e.buf, rv)
	case reflect.Ptr:
		return e.encodePointer(rv)
	default:
		return fmt.Errorf("unsupported field kind %s", rv.Kind())
	}
}

func (e *encoder) encodeStruct(rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue // unexported, not part of the wire schema
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if err := e.encodePointer(fv); err != nil {
				return fmt.Errorf("field %s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
			continue
		}
		if err := e.encodeValue(fv); err != nil {
			return fmt.Errorf("field %s.%s: %w", t.Name(), t.Field(i).Name, err)
		}
	}
	return nil
}

func (e *encoder) encodeSlice(rv reflect.Value) error {
	if rv.IsNil() {
		return binary.Write(e.buf, byteOrder, uint32(0))
	}
	n := rv.Len()
	if err := binary.Write(e.buf, byteOrder, uint32(n)); err != nil {
		return err
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		_, err := e.buf.Write(rv.Bytes())
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encodeValue(rv.Index(i)); err != nil {
			return fmt.Errorf("elem %d: %w", i, err)
		}
	}
	return nil
}

func (e *encoder) encodeArray(rv reflect.Value) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		tmp := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(tmp), rv)
		_, err := e.buf.Write(tmp)
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := e.encodeValue(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		v := byte(0)
		if rv.Bool() {
			v = 1
		}
		return buf.WriteByte(v)
	case reflect.Int, reflect.Int64:
		return binary.Write(buf, byteOrder, rv.Int())
	case reflect.Int8:
		return binary.Write(buf, byteOrder, int8(rv.Int()))
	case reflect.Int16:
		return binary.Write(buf, byteOrder, int16(rv.Int()))
	case reflect.Int32:
		return binary.Write(buf, byteOrder, int32(rv.Int()))
	case reflect.Uint, reflect.Uint64:
		return binary.Write(buf, byteOrder, rv.Uint())
	case reflect.Uint8:
		return buf.WriteByte(byte(rv.Uint()))
	case reflect.Uint16:
		return binary.Write(buf, byteOrder, uint16(rv.Uint()))
	case reflect.Uint32:
		return binary.Write(buf, byteOrder, uint32(rv.Uint()))
	default:
		return fmt.Errorf("unsupported scalar kind %s", rv.Kind())
	}
}
