package marshal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Deserialize is the symmetric inverse of Serialize: it allocates fresh
// storage for each first-seen pointer, records the allocation in an
// index-to-pointer map, and resolves back-references through that map.
// out must be a non-nil pointer to the same pointer type Serialize was
// given (e.g. **Chassis for a root serialized as *Chassis).
func Deserialize(typeName string, data []byte, out interface{}) error {
	if _, ok := Lookup(typeName); !ok {
		return fmt.Errorf("marshal: unknown schema %q", typeName)
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Ptr {
		return fmt.Errorf("marshal: out for %q must be a pointer to a pointer", typeName)
	}

	d := &decoder{r: bytes.NewReader(data), seen: map[uint32]reflect.Value{}}
	if err := d.decodePointer(rv.Elem()); err != nil {
		return fmt.Errorf("marshal: deserialize %s: %w", typeName, err)
	}
	return nil
}

type decoder struct {
	r    *bytes.Reader
	seen map[uint32]reflect.Value
}

func (d *decoder) decodePointer(rv reflect.Value) error {
	tag, err := d.r.ReadByte()
	if err != nil {
		return fmt.Errorf("truncated input reading frame tag: %w", err)
	}
	switch tag {
	case tagNil:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case tagBackref:
		idx, err := readUint32(d.r)
		if err != nil {
			return err
		}
		existing, ok := d.seen[idx]
		if !ok {
			return fmt.Errorf("back-reference to unseen index %d", idx)
		}
		rv.Set(existing)
		return nil
	case tagBody:
		idx, err := readUint32(d.r)
		if err != nil {
			return err
		}
		newObj := reflect.New(rv.Type().Elem())
		d.seen[idx] = newObj
		rv.Set(newObj)
		return d.decodeValue(newObj.Elem())
	default:
		return fmt.Errorf("unknown frame tag %d", tag)
	}
}

func (d *decoder) decodeValue(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Struct:
		return d.decodeStruct(rv)
	case reflect.Slice:
		return d.decodeSlice(rv)
	case reflect.Array:
		return d.decodeArray(rv)
	case reflect.String:
		n, err := readUint32(d.r)
		if err != nil {
			return err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(d.r, b); err != nil {
			return fmt.Errorf("truncated string: %w", err)
		}
		rv.SetString(string(b))
		return nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return readScalar(d.r, rv)
	case reflect.Ptr:
		return d.decodePointer(rv)
	default:
		return fmt.Errorf("unsupported field kind %s", rv.Kind())
	}
}

func (d *decoder) decodeStruct(rv reflect.Value) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if err := d.decodePointer(fv); err != nil {
				return fmt.Errorf("field %s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
			continue
		}
		if err := d.decodeValue(fv); err != nil {
			return fmt.Errorf("field %s.%s: %w", t.Name(), t.Field(i).Name, err)
		}
	}
	return nil
}

func (d *decoder) decodeSlice(rv reflect.Value) error {
	n, err := readUint32(d.r)
	if err != nil {
		return err
	}
	if n == 0 {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, n)
		if _, err := io.ReadFull(d.r, b); err != nil {
			return fmt.Errorf("truncated byte slice: %w", err)
		}
		rv.SetBytes(b)
		return nil
	}
	out := reflect.MakeSlice(rv.Type(), int(n), int(n))
	for i := 0; i < int(n); i++ {
		if err := d.decodeValue(out.Index(i)); err != nil {
			return fmt.Errorf("elem %d: %w", i, err)
		}
	}
	rv.Set(out)
	return nil
}

func (d *decoder) decodeArray(rv reflect.Value) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		if _, err := io.ReadFull(d.r, b); err != nil {
			return fmt.Errorf("truncated byte array: %w", err)
		}
		reflect.Copy(rv, reflect.ValueOf(b))
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := d.decodeValue(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, byteOrder, &v); err != nil {
		return 0, fmt.Errorf("truncated input reading index: %w", err)
	}
	return v, nil
}

func readScalar(r *bytes.Reader, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		rv.SetBool(b != 0)
		return nil
	case reflect.Int, reflect.Int64:
		var v int64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetInt(v)
		return nil
	case reflect.Int8:
		var v int8
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Int16:
		var v int16
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Int32:
		var v int32
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetInt(int64(v))
		return nil
	case reflect.Uint, reflect.Uint64:
		var v uint64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetUint(v)
		return nil
	case reflect.Uint8:
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		rv.SetUint(uint64(b))
		return nil
	case reflect.Uint16:
		var v uint16
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	case reflect.Uint32:
		var v uint32
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	default:
		return fmt.Errorf("unsupported scalar kind %s", rv.Kind())
	}
}
