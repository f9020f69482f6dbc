package nbt

import (
	"fmt"
	"reflect"
	"sort"
)

var tagInterface = reflect.TypeOf((*Tag)(nil)).Elem()

// ValueOf converts a Go value into a tag tree. Structs become compounds using
// the `nbt` field tag for names ("-" skips a field, ",omitempty" skips zero
// values); string-keyed maps become compounds in sorted key order; []byte,
// []int32 and []int64 become arrays; other slices become lists. Values that
// already implement Tag are used as they are.
func ValueOf(v interface{}) (Tag, error) {
	return marshal(reflect.ValueOf(v), "")
}

func marshal(val reflect.Value, tagName string) (Tag, error) {
	if !val.IsValid() {
		return nil, fmt.Errorf("%w: nil value whilst converting %s", ErrFormat, describe(tagName))
	}
	if val.Type().Implements(tagInterface) {
		if (val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface) && val.IsNil() {
			return nil, fmt.Errorf("%w: nil tag whilst converting %s", ErrFormat, describe(tagName))
		}
		return val.Interface().(Tag), nil
	}

	switch vk := val.Kind(); vk {
	default:
		return nil, fmt.Errorf("%w: unknown type %s whilst converting %s", ErrFormat, vk, describe(tagName))

	case reflect.Bool:
		if val.Bool() {
			return Byte(1), nil
		}
		return Byte(0), nil

	case reflect.Int8:
		return Byte(val.Int()), nil

	case reflect.Uint8:
		return Byte(int8(val.Uint())), nil

	case reflect.Int16:
		return Short(val.Int()), nil

	case reflect.Uint16:
		return Short(int16(val.Uint())), nil

	case reflect.Int32:
		return Int(val.Int()), nil

	case reflect.Uint32:
		return Int(int32(val.Uint())), nil

	case reflect.Int, reflect.Int64:
		return Long(val.Int()), nil

	case reflect.Uint64:
		return Long(int64(val.Uint())), nil

	case reflect.Float32:
		return Float(val.Float()), nil

	case reflect.Float64:
		return Double(val.Float()), nil

	case reflect.String:
		return String(val.String()), nil

	case reflect.Array, reflect.Slice:
		return marshalArray(val, tagName)

	case reflect.Struct:
		return marshalStruct(val)

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: unknown key type %s for map %s", ErrFormat, val.Type(), describe(tagName))
		}
		return marshalMap(val)

	case reflect.Ptr, reflect.Interface:
		return marshal(val.Elem(), tagName)
	}
}

func marshalArray(val reflect.Value, tagName string) (Tag, error) {
	n := val.Len()
	switch val.Type().Elem().Kind() {
	case reflect.Uint8: // []byte
		out := make(ByteArray, n)
		reflect.Copy(reflect.ValueOf([]byte(out)), val)
		return out, nil

	case reflect.Int32:
		out := make(IntArray, n)
		for i := 0; i < n; i++ {
			out[i] = int32(val.Index(i).Int())
		}
		return out, nil

	case reflect.Int64:
		out := make(LongArray, n)
		for i := 0; i < n; i++ {
			out[i] = val.Index(i).Int()
		}
		return out, nil
	}

	l := NewList(TagEnd)
	for i := 0; i < n; i++ {
		item, err := marshal(val.Index(i), tagName)
		if err != nil {
			return nil, err
		}
		if err := l.Add(item); err != nil {
			return nil, fmt.Errorf("mixed types in %s: %w", describe(tagName), err)
		}
	}
	return l, nil
}

func marshalStruct(val reflect.Value) (*Compound, error) {
	c := NewCompound()
	n := val.NumField()
	for i := 0; i < n; i++ {
		f := val.Type().Field(i)
		name, omitEmpty, skip := parseFieldTag(f)
		if skip {
			continue
		}
		fv := val.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}

		tag, err := marshal(fv, name)
		if err != nil {
			return nil, err
		}
		c.Set(name, tag)
	}
	return c, nil
}

func parseFieldTag(f reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := f.Tag.Get("nbt")
	if (f.PkgPath != "" && !f.Anonymous) || tag == "-" {
		return "", false, true // Private field
	}
	name = f.Name
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			omitEmpty = tag[i+1:] == "omitempty"
			tag = tag[:i]
			break
		}
	}
	if tag != "" {
		name = tag
	}
	return name, omitEmpty, false
}

func marshalMap(val reflect.Value) (*Compound, error) {
	keys := make([]string, 0, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	c := NewCompound()
	for _, key := range keys {
		tag, err := marshal(val.MapIndex(reflect.ValueOf(key).Convert(val.Type().Key())), key)
		if err != nil {
			return nil, err
		}
		c.Set(key, tag)
	}
	return c, nil
}
