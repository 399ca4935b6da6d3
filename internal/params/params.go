package params

import "strings"

// Custom parameter keys exchanged with the Polyglot host.
const (
	KeyUser     = "user"
	KeyPassword = "password"
	KeyHost     = "isy_ip"
	KeyPort     = "isy_port"
	KeyDebug    = "debug_enable"
)

// Placeholder values substituted for absent parameters.
const (
	DefaultUser     = "YourUserName"
	DefaultPassword = "YourPassword"
	DefaultHost     = "127.0.0.1"
	DefaultPort     = "80"
	DefaultDebug    = "False"
)

// Notice is the advisory shown to the operator while placeholders are in use.
const Notice = "Please set proper user, password and ISY IP in configuration page, and restart this nodeserver"

// NoticeKey identifies the advisory on the host's notice channel.
const NoticeKey = "config"

// Params holds the ISY connection parameters.
//
// After Validate every field is populated; placeholders stand in for
// anything the host did not supply.
type Params struct {
	User        string
	Password    string
	HostAddress string
	Port        string
	Debug       bool

	// debugRaw keeps the host's spelling so it round-trips unchanged.
	debugRaw string
}

// Result is the outcome of validating raw custom parameters.
type Result struct {
	Params Params

	// Missing lists the required keys that were absent and defaulted.
	Missing []string

	// Complete is false while any required key was missing or user,
	// password or host still hold their placeholder values.
	Complete bool

	// Notice is the advisory to raise, empty when none is needed.
	Notice string
}

// Validate normalises raw custom parameters.
//
// Absent required keys (user, password, isy_ip, isy_port) take their
// placeholder defaults and are reported in Missing. debug_enable is
// optional and defaults to "False". The Params in the result are usable
// even when the result is incomplete.
//
// Parameters:
//   - raw: Custom parameters as supplied by the host (may be nil)
//
// Returns:
//   - Result: Normalised parameters and completeness
func Validate(raw map[string]string) Result {
	var missing []string

	lookup := func(key, fallback string) string {
		if v, ok := raw[key]; ok {
			return v
		}
		missing = append(missing, key)
		return fallback
	}

	p := Params{
		User:        lookup(KeyUser, DefaultUser),
		Password:    lookup(KeyPassword, DefaultPassword),
		HostAddress: lookup(KeyHost, DefaultHost),
		Port:        lookup(KeyPort, DefaultPort),
		debugRaw:    DefaultDebug,
	}
	if v, ok := raw[KeyDebug]; ok {
		p.debugRaw = v
	}
	p.Debug = ParseBool(p.debugRaw)

	res := Result{
		Params:   p,
		Missing:  missing,
		Complete: len(missing) == 0,
	}

	if p.UsesPlaceholders() {
		res.Notice = Notice
		res.Complete = false
	}

	return res
}

// UsesPlaceholders reports whether user, password or host still equal
// their placeholder defaults.
func (p Params) UsesPlaceholders() bool {
	return p.User == DefaultUser || p.Password == DefaultPassword || p.HostAddress == DefaultHost
}

// Normalized returns the complete parameter set for re-emission to the host.
func (p Params) Normalized() map[string]string {
	debug := p.debugRaw
	if debug == "" {
		debug = DefaultDebug
		if p.Debug {
			debug = "True"
		}
	}
	return map[string]string{
		KeyUser:     p.User,
		KeyPassword: p.Password,
		KeyHost:     p.HostAddress,
		KeyPort:     p.Port,
		KeyDebug:    debug,
	}
}

// Redacted returns Normalized with the password masked, for logging.
func (p Params) Redacted() map[string]string {
	m := p.Normalized()
	if m[KeyPassword] != "" {
		m[KeyPassword] = "********"
	}
	return m
}

// Equal reports whether two raw parameter sets hold the same values.
func Equal(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// ParseBool reports whether s is "true" in any letter case.
func ParseBool(s string) bool {
	return strings.EqualFold(s, "true")
}
