package bus

import (
	"sort"
	"strings"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

const introspectPrologue = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE node PUBLIC "-//freedesktop//DTD D-BUS Object Introspection 1.0//EN"
 "http://www.freedesktop.org/standards/dbus/1.0/introspect.dtd">
`

// introspectXML builds the reply body for an Introspect call against
// requestedPath, per spec.md §4.2.1: the exact-match node carries the
// fixed interface block; otherwise a bare <node>; then one child
// element per unique, lexically sorted immediate child.
func (c *Connection) introspectXML(requestedPath wire.ObjectPath) string {
	var b strings.Builder
	b.WriteString(introspectPrologue)

	if _, ok := c.registrationAt(requestedPath); ok {
		b.WriteString(`<node name="`)
		b.WriteString(string(requestedPath))
		b.WriteString("\">\n")
		b.WriteString(facadeInterfaceBlock)
	} else {
		b.WriteString("<node>\n")
	}

	for _, child := range c.immediateChildren(requestedPath) {
		b.WriteString(`  <node name="`)
		b.WriteString(child)
		b.WriteString("\"/>\n")
	}

	b.WriteString("</node>\n")
	return b.String()
}

func (c *Connection) registrationAt(path wire.ObjectPath) (*Registration, bool) {
	for _, reg := range c.registrations {
		if reg.ObjectPath == path {
			return reg, true
		}
	}
	return nil, false
}

func (c *Connection) immediateChildren(requestedPath wire.ObjectPath) []string {
	prefix := string(requestedPath)
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	seen := make(map[string]struct{})
	for _, reg := range c.registrations {
		p := string(reg.ObjectPath)
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := p[len(prefix):]
		if rest == "" {
			continue
		}
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			rest = rest[:idx]
		}
		if rest != "" {
			seen[rest] = struct{}{}
		}
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	sort.Strings(children)
	return children
}
