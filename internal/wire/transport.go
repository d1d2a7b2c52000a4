package wire

import (
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// transport dials a D-Bus server address. Grounded on the teacher's
// transport.go almost verbatim; error wrapping moved to pkg/errors.
type transport interface {
	Dial() (net.Conn, error)
}

// newTransport parses a D-Bus address string ("unix:path=/run/...",
// "tcp:host=...,port=...", ...) and returns a dialer for it.
func newTransport(address string) (transport, error) {
	if len(address) == 0 {
		return nil, errors.New("wire: empty bus address")
	}
	idx := strings.Index(address, ":")
	if idx < 0 {
		return nil, errors.Errorf("wire: malformed bus address %q", address)
	}
	transportType := address[:idx]
	options := make(map[string]string)
	for _, option := range strings.Split(address[idx+1:], ",") {
		if option == "" {
			continue
		}
		pair := strings.SplitN(option, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key, err := url.QueryUnescape(pair[0])
		if err != nil {
			return nil, errors.Wrap(err, "wire: decode address option key")
		}
		value, err := url.QueryUnescape(pair[1])
		if err != nil {
			return nil, errors.Wrap(err, "wire: decode address option value")
		}
		options[key] = value
	}

	switch transportType {
	case "unix":
		if abstract, ok := options["abstract"]; ok {
			return &unixTransport{"@" + abstract}, nil
		} else if path, ok := options["path"]; ok {
			return &unixTransport{path}, nil
		}
		return nil, errors.New("wire: unix transport requires 'path' or 'abstract'")
	case "tcp", "nonce-tcp":
		addr := options["host"] + ":" + options["port"]
		var family string
		switch options["family"] {
		case "", "ipv4":
			family = "tcp4"
		case "ipv6":
			family = "tcp6"
		default:
			return nil, errors.Errorf("wire: unknown tcp family %q", options["family"])
		}
		if transportType == "tcp" {
			return &tcpTransport{addr, family}, nil
		}
		return &nonceTCPTransport{addr, family, options["noncefile"]}, nil
	default:
		return nil, errors.Errorf("wire: unsupported transport %q", transportType)
	}
}

type unixTransport struct{ address string }

func (t *unixTransport) Dial() (net.Conn, error) { return net.Dial("unix", t.address) }

type tcpTransport struct{ address, family string }

func (t *tcpTransport) Dial() (net.Conn, error) { return net.Dial(t.family, t.address) }

type nonceTCPTransport struct{ address, family, nonceFile string }

func (t *nonceTCPTransport) Dial() (net.Conn, error) {
	data, err := os.ReadFile(t.nonceFile)
	if err != nil {
		return nil, errors.Wrap(err, "wire: read nonce file")
	}
	conn, err := net.Dial(t.family, t.address)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(data); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "wire: write nonce")
	}
	return conn, nil
}

// SessionBusAddress resolves the address of the session bus, honoring
// DBUS_SESSION_BUS_ADDRESS and, as a fallback, a DBUS_SCRIPT_FILE_NAME
// shell-script-style file containing a line of the form
// DBUS_SESSION_BUS_ADDRESS='...';, per the module's environment
// contract.
func SessionBusAddress() (string, error) {
	if addr := os.Getenv("DBUS_SESSION_BUS_ADDRESS"); addr != "" {
		return addr, nil
	}
	scriptPath := os.Getenv("DBUS_SCRIPT_FILE_NAME")
	if scriptPath == "" {
		return "", errors.New("wire: DBUS_SESSION_BUS_ADDRESS not set and no DBUS_SCRIPT_FILE_NAME to fall back to")
	}
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", errors.Wrap(err, "wire: read DBUS_SCRIPT_FILE_NAME")
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		const prefix = "DBUS_SESSION_BUS_ADDRESS='"
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := line[len(prefix):]
		if end := strings.Index(rest, "'"); end >= 0 {
			addr := rest[:end]
			os.Setenv("DBUS_SESSION_BUS_ADDRESS", addr)
			return addr, nil
		}
	}
	return "", errors.Errorf("wire: no DBUS_SESSION_BUS_ADDRESS line found in %q", scriptPath)
}

// SystemBusAddress resolves the address of the system bus.
func SystemBusAddress() string {
	if addr := os.Getenv("DBUS_SYSTEM_BUS_ADDRESS"); addr != "" {
		return addr
	}
	return "unix:path=/var/run/dbus/system_bus_socket"
}
