package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func one(value string) map[string]string {
	return map[string]string{"key": value}
}

func TestRaw(t *testing.T) {
	v, err := Raw(one("value"), "key")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = Raw(one("value"), "other")
	assert.ErrorIs(t, err, ErrKeyMissing)
	var cerr *ConversionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "other", cerr.Key)
}

func TestBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
		ok   bool
	}{
		{"0", false, true},
		{"1", true, true},
		{"2", false, false},
		{"true", false, false},
		{"hoge", false, false},
		{"", false, false},
		{" 1", false, false},
	}
	for _, tt := range tests {
		got, err := Bool(one(tt.in), "key")
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got, tt.in)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidBoolean, tt.in)
		var cerr *ConversionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, tt.in, cerr.Value)
	}
}

func TestUint(t *testing.T) {
	n, err := Uint(one("10"), "key")
	require.NoError(t, err)
	assert.Equal(t, uint32(10), n)

	for _, bad := range []string{"hoge", "-1", "1.5", "4294967296"} {
		_, err := Uint(one(bad), "key")
		assert.ErrorIs(t, err, ErrParseFailed, bad)
		var cerr *ConversionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "uint32", cerr.Target)
		assert.Equal(t, bad, cerr.Value)
	}
}

func TestFloat(t *testing.T) {
	tests := map[string]float64{"1.000000": 1, "5.000000": 5, "0.368": 0.368}
	for in, want := range tests {
		got, err := Float(one(in), "key")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Float(one("hoge"), "key")
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestTimestamp(t *testing.T) {
	got, err := Timestamp(one("0"), "key")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Timestamp(one("1647775378"), "key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2022, 3, 20, 11, 22, 58, 0, time.UTC), *got)

	_, err = Timestamp(one("hoge"), "key")
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = Timestamp(map[string]string{}, "key")
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestEnums(t *testing.T) {
	t.Run("host state", func(t *testing.T) {
		for in, want := range map[string]HostState{"0": HostUp, "1": HostDown, "2": HostUnreachable} {
			got, err := HostStateOf(one(in), "key")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := HostStateOf(one("3"), "key")
		assert.ErrorIs(t, err, ErrInvalidEnumValue)
	})

	t.Run("service state", func(t *testing.T) {
		for in, want := range map[string]ServiceState{
			"0": ServiceOK, "1": ServiceWarning, "2": ServiceCritical, "3": ServiceUnknown,
		} {
			got, err := ServiceStateOf(one(in), "key")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := ServiceStateOf(one("4"), "key")
		assert.ErrorIs(t, err, ErrInvalidEnumValue)
	})

	t.Run("check type", func(t *testing.T) {
		for in, want := range map[string]CheckType{
			"0": CheckActive, "1": CheckPassive, "2": CheckParent, "3": CheckFile, "4": CheckOther,
		} {
			got, err := CheckTypeOf(one(in), "key")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := CheckTypeOf(one("hoge"), "key")
		var cerr *ConversionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, ErrInvalidEnumValue, cerr.Reason)
		assert.Equal(t, "check type", cerr.Target)
		assert.Equal(t, "hoge", cerr.Value)
	})

	t.Run("acknowledgement type", func(t *testing.T) {
		for in, want := range map[string]AcknowledgementType{"0": AckNone, "1": AckNormal, "2": AckSticky} {
			got, err := AcknowledgementTypeOf(one(in), "key")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := AcknowledgementTypeOf(one("hoge"), "key")
		assert.ErrorIs(t, err, ErrInvalidEnumValue)
	})

	t.Run("state type", func(t *testing.T) {
		for in, want := range map[string]StateType{"0": StateSoft, "1": StateHard} {
			got, err := StateTypeOf(one(in), "key")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := StateTypeOf(one("2"), "key")
		assert.ErrorIs(t, err, ErrInvalidEnumValue)
	})
}

func TestConversionErrorMessages(t *testing.T) {
	assert.Equal(t, "key missing: host_name",
		(&ConversionError{Reason: ErrKeyMissing, Key: "host_name"}).Error())
	assert.Equal(t, `invalid boolean value for obsess: "2"`,
		(&ConversionError{Reason: ErrInvalidBoolean, Key: "obsess", Value: "2"}).Error())
	assert.Equal(t, `failed to parse for importance: "x" -> uint32`,
		(&ConversionError{Reason: ErrParseFailed, Key: "importance", Value: "x", Target: "uint32"}).Error())
}
