package wire

// Bus-name acquisition flags and reply codes, per the D-Bus
// specification and this module's fixed wire contract.
const (
	NameFlagAllowReplacement uint32 = 1 << iota
	NameFlagReplaceExisting
	NameFlagDoNotQueue
)

const (
	RequestNameReplyPrimaryOwner uint32 = 1
	RequestNameReplyInQueue      uint32 = 2
	RequestNameReplyExists       uint32 = 3
	RequestNameReplyAlreadyOwner uint32 = 4
)

const (
	ReleaseNameReplyReleased    uint32 = 1
	ReleaseNameReplyNonExistent uint32 = 2
	ReleaseNameReplyNotOwner    uint32 = 3
)

// The message-construction helpers below each build one bus-daemon
// method call. Adapted from the teacher's proxy.go MessageBus type,
// which called these synchronously; here they only build the message,
// leaving send+correlate to the caller (internal/bus), which drives
// everything through the async pending-call pattern (see DESIGN.md).

func HelloCall() *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "Hello", "")
}

func RequestNameCall(name string, flags uint32) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "RequestName", "su", name, flags)
}

func ReleaseNameCall(name string) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "ReleaseName", "s", name)
}

func AddMatchCall(rule string) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "AddMatch", "s", rule)
}

func RemoveMatchCall(rule string) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "RemoveMatch", "s", rule)
}

func NameHasOwnerCall(name string) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "NameHasOwner", "s", name)
}

func GetNameOwnerCall(name string) *Message {
	return NewMethodCall(BusDaemonName, BusDaemonPath, BusDaemonInterface, "GetNameOwner", "s", name)
}

// InvokeCall builds this façade's own Invoke method call.
func InvokeCall(dest string, path ObjectPath, method, parameters string, noReply bool) *Message {
	m := NewMethodCall(dest, path, FacadeInterface, "Invoke", "ss", method, parameters)
	if noReply {
		m.Flags |= FlagNoReplyExpected
	}
	return m
}

// EmitSignal builds this façade's own Emit signal.
func EmitSignal(path ObjectPath, name, data string) *Message {
	return NewSignal(path, FacadeInterface, "Emit", "ss", name, data)
}

// FacadeInterface is the D-Bus interface name this façade advertises
// for Invoke method calls and Emit signals, per the module's fixed
// wire contract.
const FacadeInterface = "com.hsae.dbusipc"

// IntrospectableInterface is the standard D-Bus introspection
// interface name.
const IntrospectableInterface = "org.freedesktop.DBus.Introspectable"
