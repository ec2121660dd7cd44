// internal/status/decode.go
package status

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrKeyMissing       = errors.New("key missing")
	ErrInvalidBoolean   = errors.New("invalid boolean value")
	ErrParseFailed      = errors.New("failed to parse")
	ErrInvalidEnumValue = errors.New("invalid enum value")
)

// ConversionError reports why a field could not be decoded.
// Target holds the wanted type for ErrParseFailed and the enum name for
// ErrInvalidEnumValue.
type ConversionError struct {
	Reason error
	Key    string
	Value  string
	Target string
}

func (e *ConversionError) Error() string {
	switch e.Reason {
	case ErrKeyMissing:
		return fmt.Sprintf("%v: %s", e.Reason, e.Key)
	case ErrInvalidBoolean:
		return fmt.Sprintf("%v for %s: %q", e.Reason, e.Key, e.Value)
	default:
		return fmt.Sprintf("%v for %s: %q -> %s", e.Reason, e.Key, e.Value, e.Target)
	}
}

func (e *ConversionError) Unwrap() error {
	return e.Reason
}

// Raw returns the untouched value of key.
func Raw(fields map[string]string, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", &ConversionError{Reason: ErrKeyMissing, Key: key}
	}
	return v, nil
}

// Bool accepts only "0" and "1".
func Bool(fields map[string]string, key string) (bool, error) {
	v, err := Raw(fields, key)
	if err != nil {
		return false, err
	}
	switch v {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, &ConversionError{Reason: ErrInvalidBoolean, Key: key, Value: v}
}

func Uint(fields map[string]string, key string) (uint32, error) {
	v, err := Raw(fields, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, &ConversionError{Reason: ErrParseFailed, Key: key, Value: v, Target: "uint32"}
	}
	return uint32(n), nil
}

func Float(fields map[string]string, key string) (float64, error) {
	v, err := Raw(fields, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &ConversionError{Reason: ErrParseFailed, Key: key, Value: v, Target: "float64"}
	}
	return f, nil
}

// Timestamp decodes UNIX seconds in UTC. "0" means never and yields nil.
func Timestamp(fields map[string]string, key string) (*time.Time, error) {
	v, err := Raw(fields, key)
	if err != nil {
		return nil, err
	}
	if v == "0" {
		return nil, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, &ConversionError{Reason: ErrParseFailed, Key: key, Value: v, Target: "timestamp"}
	}
	t := time.Unix(secs, 0).UTC()
	return &t, nil
}

func enumOf[T any](fields map[string]string, key, kind string, table map[string]T) (T, error) {
	var zero T
	v, err := Raw(fields, key)
	if err != nil {
		return zero, err
	}
	e, ok := table[v]
	if !ok {
		return zero, &ConversionError{Reason: ErrInvalidEnumValue, Key: key, Value: v, Target: kind}
	}
	return e, nil
}

func HostStateOf(fields map[string]string, key string) (HostState, error) {
	return enumOf(fields, key, "host state", hostStates)
}

func ServiceStateOf(fields map[string]string, key string) (ServiceState, error) {
	return enumOf(fields, key, "service state", serviceStates)
}

func CheckTypeOf(fields map[string]string, key string) (CheckType, error) {
	return enumOf(fields, key, "check type", checkTypes)
}

func AcknowledgementTypeOf(fields map[string]string, key string) (AcknowledgementType, error) {
	return enumOf(fields, key, "acknowledgement type", acknowledgementTypes)
}

func StateTypeOf(fields map[string]string, key string) (StateType, error) {
	return enumOf(fields, key, "state type", stateTypes)
}

// fieldDecoder runs a sequence of decoders and keeps the first error.
// Once err is set every further call is a no-op returning the zero value.
// Required fields fail with ErrKeyMissing; optional ones fall back to the
// zero value when absent but are still decoded strictly when present.
type fieldDecoder struct {
	fields map[string]string
	err    error
}

func (d *fieldDecoder) skip(key string, required bool) bool {
	if d.err != nil {
		return true
	}
	if required {
		return false
	}
	_, ok := d.fields[key]
	return !ok
}

func decodeField[T any](d *fieldDecoder, key string, required bool, fn func(map[string]string, string) (T, error)) T {
	var zero T
	if d.skip(key, required) {
		return zero
	}
	v, err := fn(d.fields, key)
	if err != nil {
		d.err = err
		return zero
	}
	return v
}

func (d *fieldDecoder) str(key string) string    { return decodeField(d, key, true, Raw) }
func (d *fieldDecoder) optStr(key string) string { return decodeField(d, key, false, Raw) }
func (d *fieldDecoder) boolean(key string) bool  { return decodeField(d, key, true, Bool) }
func (d *fieldDecoder) optBool(key string) bool  { return decodeField(d, key, false, Bool) }
func (d *fieldDecoder) optUint(key string) uint32 {
	return decodeField(d, key, false, Uint)
}
func (d *fieldDecoder) optFloat(key string) float64 {
	return decodeField(d, key, false, Float)
}
func (d *fieldDecoder) optTime(key string) *time.Time {
	return decodeField(d, key, false, Timestamp)
}
