package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"panic":   zerolog.PanicLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		SetLogLevel(in)
		if got := zerolog.GlobalLevel(); got != want {
			t.Errorf("SetLogLevel(%q) -> %v, want %v", in, got, want)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " y ", "On"} {
		if !IsTruthy(v) {
			t.Errorf("IsTruthy(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		if IsTruthy(v) {
			t.Errorf("IsTruthy(%q) = true", v)
		}
	}
}
