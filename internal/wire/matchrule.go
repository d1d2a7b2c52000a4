package wire

import (
	"fmt"
	"strings"
)

// MatchRule is the string representation of a D-Bus match rule, built
// incrementally and rendered with String(). Grounded on the teacher's
// matchrule.go, extended with the Arg0 field its own names.go already
// depended on but never declared.
type MatchRule struct {
	Type      MessageType
	Sender    string
	Path      ObjectPath
	Interface string
	Member    string
	Arg0      string
}

func (r *MatchRule) String() string {
	params := make([]string, 0, 6)
	if r.Type != TypeInvalid {
		params = append(params, fmt.Sprintf("type='%s'", r.Type))
	}
	if r.Sender != "" {
		params = append(params, fmt.Sprintf("sender='%s'", r.Sender))
	}
	if r.Path != "" {
		params = append(params, fmt.Sprintf("path='%s'", r.Path))
	}
	if r.Interface != "" {
		params = append(params, fmt.Sprintf("interface='%s'", r.Interface))
	}
	if r.Member != "" {
		params = append(params, fmt.Sprintf("member='%s'", r.Member))
	}
	if r.Arg0 != "" {
		params = append(params, fmt.Sprintf("arg0='%s'", r.Arg0))
	}
	return strings.Join(params, ",")
}

// UserSignalRule builds the match rule used for a user signal
// subscription, per the module's fixed wire contract.
func UserSignalRule(objPath ObjectPath, sigName string) *MatchRule {
	return &MatchRule{
		Type:      TypeSignal,
		Interface: "com.hsae.dbusipc",
		Member:    "Emit",
		Path:      objPath,
		Arg0:      sigName,
	}
}

// NameOwnerChangedRule builds the match rule used for a bus-name
// ownership subscription. An empty busName matches any name.
func NameOwnerChangedRule(busName string) *MatchRule {
	r := &MatchRule{
		Type:      TypeSignal,
		Sender:    BusDaemonName,
		Path:      BusDaemonPath,
		Interface: BusDaemonInterface,
		Member:    "NameOwnerChanged",
	}
	if busName != "" {
		r.Arg0 = busName
	}
	return r
}

// Match reports whether msg satisfies every non-empty field of the
// rule. arg0 is the message's first string argument, if any — callers
// supply it since decoding signal args is the caller's job (wire
// doesn't interpret bodies beyond the fixed scalar types).
func (r *MatchRule) Match(msg *Message, arg0 string) bool {
	if r.Type != TypeInvalid && r.Type != msg.Type {
		return false
	}
	if r.Sender != "" && r.Sender != msg.Sender {
		return false
	}
	if r.Path != "" && r.Path != msg.Path {
		return false
	}
	if r.Interface != "" && r.Interface != msg.Interface {
		return false
	}
	if r.Member != "" && r.Member != msg.Member {
		return false
	}
	if r.Arg0 != "" && r.Arg0 != arg0 {
		return false
	}
	return true
}
