package params

import (
	"reflect"
	"sort"
	"testing"
)

func TestValidate_Empty(t *testing.T) {
	res := Validate(map[string]string{})

	if res.Complete {
		t.Error("Complete = true, want false")
	}
	if res.Notice == "" {
		t.Error("Notice is empty, want advisory")
	}

	missing := append([]string(nil), res.Missing...)
	sort.Strings(missing)
	want := []string{KeyHost, KeyPort, KeyPassword, KeyUser}
	sort.Strings(want)
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("Missing = %v, want %v", missing, want)
	}

	p := res.Params
	if p.User != DefaultUser || p.Password != DefaultPassword || p.HostAddress != DefaultHost || p.Port != DefaultPort {
		t.Errorf("Params = %+v, want placeholders", p)
	}
	if p.Debug {
		t.Error("Debug = true, want false")
	}
}

func TestValidate_Nil(t *testing.T) {
	res := Validate(nil)
	if res.Complete || len(res.Missing) != 4 {
		t.Errorf("Validate(nil) = %+v, want incomplete with 4 missing", res)
	}
}

func TestValidate_Complete(t *testing.T) {
	res := Validate(map[string]string{
		KeyUser:     "real",
		KeyPassword: "real",
		KeyHost:     "10.0.0.5",
		KeyPort:     "80",
	})

	if !res.Complete {
		t.Errorf("Complete = false, want true (missing %v)", res.Missing)
	}
	if res.Notice != "" {
		t.Errorf("Notice = %q, want none", res.Notice)
	}
	if len(res.Missing) != 0 {
		t.Errorf("Missing = %v, want none", res.Missing)
	}
	if res.Params.HostAddress != "10.0.0.5" {
		t.Errorf("HostAddress = %q, want %q", res.Params.HostAddress, "10.0.0.5")
	}
}

func TestValidate_PlaceholderValues(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
	}{
		{
			name: "default user supplied explicitly",
			raw:  map[string]string{KeyUser: DefaultUser, KeyPassword: "p", KeyHost: "10.0.0.5", KeyPort: "80"},
		},
		{
			name: "default password supplied explicitly",
			raw:  map[string]string{KeyUser: "u", KeyPassword: DefaultPassword, KeyHost: "10.0.0.5", KeyPort: "80"},
		},
		{
			name: "default host supplied explicitly",
			raw:  map[string]string{KeyUser: "u", KeyPassword: "p", KeyHost: DefaultHost, KeyPort: "80"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.raw)
			if res.Complete {
				t.Error("Complete = true, want false")
			}
			if res.Notice != Notice {
				t.Errorf("Notice = %q, want advisory", res.Notice)
			}
			if len(res.Missing) != 0 {
				t.Errorf("Missing = %v, want none", res.Missing)
			}
		})
	}
}

func TestValidate_MissingPortOnly(t *testing.T) {
	res := Validate(map[string]string{KeyUser: "u", KeyPassword: "p", KeyHost: "10.0.0.5"})

	if res.Complete {
		t.Error("Complete = true, want false")
	}
	// A defaulted port alone is not worth an advisory.
	if res.Notice != "" {
		t.Errorf("Notice = %q, want none", res.Notice)
	}
	if !reflect.DeepEqual(res.Missing, []string{KeyPort}) {
		t.Errorf("Missing = %v, want [%s]", res.Missing, KeyPort)
	}
	if res.Params.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", res.Params.Port, DefaultPort)
	}
}

func TestValidate_Debug(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"True", true},
		{"true", true},
		{"TRUE", true},
		{"False", false},
		{"false", false},
		{"1", false},
		{"", false},
		{"yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			res := Validate(map[string]string{KeyDebug: tt.value})
			if res.Params.Debug != tt.want {
				t.Errorf("Debug for %q = %v, want %v", tt.value, res.Params.Debug, tt.want)
			}
			// debug_enable is optional and never reported missing.
			for _, k := range res.Missing {
				if k == KeyDebug {
					t.Errorf("Missing contains %s", KeyDebug)
				}
			}
		})
	}
}

func TestNormalized(t *testing.T) {
	res := Validate(map[string]string{KeyUser: "admin", KeyDebug: "true"})

	got := res.Params.Normalized()
	want := map[string]string{
		KeyUser:     "admin",
		KeyPassword: DefaultPassword,
		KeyHost:     DefaultHost,
		KeyPort:     DefaultPort,
		KeyDebug:    "true",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalized() = %v, want %v", got, want)
	}

	// Validating the normalized set again is a fixed point.
	again := Validate(got).Params.Normalized()
	if !Equal(got, again) {
		t.Errorf("Normalized() not stable: %v then %v", got, again)
	}
}

func TestNormalized_DefaultDebug(t *testing.T) {
	got := Validate(nil).Params.Normalized()
	if got[KeyDebug] != DefaultDebug {
		t.Errorf("debug_enable = %q, want %q", got[KeyDebug], DefaultDebug)
	}
}

func TestRedacted(t *testing.T) {
	p := Validate(map[string]string{KeyPassword: "hunter2"}).Params
	if got := p.Redacted()[KeyPassword]; got == "hunter2" {
		t.Errorf("Redacted() leaked password %q", got)
	}
	if p.Normalized()[KeyPassword] != "hunter2" {
		t.Error("Redacted() modified the underlying params")
	}
}

func TestEqual(t *testing.T) {
	a := map[string]string{"a": "1", "b": "2"}
	tests := []struct {
		name string
		b    map[string]string
		want bool
	}{
		{name: "same", b: map[string]string{"b": "2", "a": "1"}, want: true},
		{name: "different value", b: map[string]string{"a": "1", "b": "3"}, want: false},
		{name: "extra key", b: map[string]string{"a": "1", "b": "2", "c": "3"}, want: false},
		{name: "different key", b: map[string]string{"a": "1", "c": "2"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
