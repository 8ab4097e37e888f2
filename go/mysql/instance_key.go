/*
   Copyright 2015 Shlomi Noach, courtesy Booking.com
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package mysql

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultInstancePort is assumed when a host:port string omits the port.
	DefaultInstancePort = 3306
)

// InstanceKey identifies a backend by hostname and port. It is the identity
// SlaveStatus rows and TopologyAnalyzer edges key on.
type InstanceKey struct {
	Hostname string
	Port     int
}

// ParseInstanceKey parses "host:port", a bare "host" (assuming the default
// port), or an IPv6 literal in bracket notation ("[::1]:3308") or bare
// ("::1", "0:0:0:0:0:0:0:0").
func ParseInstanceKey(hostPort string) (*InstanceKey, error) {
	hostPort = strings.TrimSpace(hostPort)
	if strings.HasPrefix(hostPort, "[") {
		closeBracket := strings.Index(hostPort, "]")
		if closeBracket < 0 {
			return nil, fmt.Errorf("mysql: unterminated IPv6 literal in %q", hostPort)
		}
		host := hostPort[1:closeBracket]
		if host == "" || strings.TrimLeft(host, "0123456789abcdefABCDEF:") != "" {
			return nil, fmt.Errorf("mysql: invalid IPv6 literal in %q", hostPort)
		}
		remainder := hostPort[closeBracket+1:]
		if remainder == "" {
			return &InstanceKey{Hostname: host, Port: DefaultInstancePort}, nil
		}
		if !strings.HasPrefix(remainder, ":") {
			return nil, fmt.Errorf("mysql: expected ':port' after IPv6 literal in %q", hostPort)
		}
		port, err := strconv.Atoi(remainder[1:])
		if err != nil {
			return nil, fmt.Errorf("mysql: invalid port in %q: %w", hostPort, err)
		}
		return &InstanceKey{Hostname: host, Port: port}, nil
	}
	// A bare IPv6 address (no brackets, no port) has more than one colon.
	if strings.Count(hostPort, ":") != 1 {
		return &InstanceKey{Hostname: hostPort, Port: DefaultInstancePort}, nil
	}
	tokens := strings.SplitN(hostPort, ":", 2)
	if tokens[1] == "" {
		return nil, fmt.Errorf("mysql: missing port after ':' in %q", hostPort)
	}
	port, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("mysql: invalid port in %q: %w", hostPort, err)
	}
	return &InstanceKey{Hostname: tokens[0], Port: port}, nil
}

// Equals tests equality between this key and another key.
func (this InstanceKey) Equals(other InstanceKey) bool {
	return this.Hostname == other.Hostname && this.Port == other.Port
}

// SmallerThan returns true if this key is dictionary-smaller than another.
// Used only for consistent, stable ordering.
func (this InstanceKey) SmallerThan(other InstanceKey) bool {
	if this.Hostname < other.Hostname {
		return true
	}
	return this.Hostname == other.Hostname && this.Port < other.Port
}

// IsValid uses simple heuristics to see whether this key represents an actual instance.
func (this InstanceKey) IsValid() bool {
	return this.Hostname != "" && this.Hostname != "_" && this.Port > 0
}

// StringCode returns the canonical string representation of this key.
func (this InstanceKey) StringCode() string {
	return fmt.Sprintf("%s:%d", this.Hostname, this.Port)
}

// String implements fmt.Stringer.
func (this InstanceKey) String() string {
	return this.StringCode()
}
