package wire

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Authenticator implements one SASL mechanism for the D-Bus
// authentication handshake. Grounded on the teacher's auth.go.
type Authenticator interface {
	Mechanism() []byte
	InitialResponse() []byte
	ProcessData([]byte) ([]byte, error)
}

// AuthExternal authenticates using the local process's uid, the
// mechanism unix-domain sockets use almost universally.
type AuthExternal struct{}

func (AuthExternal) Mechanism() []byte { return []byte("EXTERNAL") }

func (AuthExternal) InitialResponse() []byte {
	uid := []byte(strconv.Itoa(os.Getuid()))
	out := make([]byte, hex.EncodedLen(len(uid)))
	hex.Encode(out, uid)
	return out
}

func (AuthExternal) ProcessData([]byte) ([]byte, error) {
	return nil, errors.New("wire: EXTERNAL does not expect a DATA challenge")
}

// AuthCookieSHA1 authenticates using the DBUS_COOKIE_SHA1 mechanism
// against the user's ~/.dbus-keyrings directory.
type AuthCookieSHA1 struct{}

func (AuthCookieSHA1) Mechanism() []byte { return []byte("DBUS_COOKIE_SHA1") }

func (AuthCookieSHA1) InitialResponse() []byte {
	user := []byte(os.Getenv("USER"))
	out := make([]byte, hex.EncodedLen(len(user)))
	hex.Encode(out, user)
	return out
}

func (AuthCookieSHA1) ProcessData(challenge []byte) ([]byte, error) {
	decodedLen, err := hex.Decode(challenge, challenge)
	if err != nil {
		return nil, errors.Wrap(err, "wire: decode cookie challenge")
	}
	tokens := bytes.SplitN(challenge[:decodedLen], []byte(" "), 3)
	if len(tokens) != 3 {
		return nil, errors.New("wire: malformed DBUS_COOKIE_SHA1 challenge")
	}

	keyringPath := os.Getenv("HOME") + "/.dbus-keyrings/" + string(tokens[0])
	file, err := os.Open(keyringPath)
	if err != nil {
		return nil, errors.Wrap(err, "wire: open keyring")
	}
	defer file.Close()

	var cookie []byte
	reader := bufio.NewReader(file)
	for {
		line, _, rerr := reader.ReadLine()
		if rerr == io.EOF {
			return nil, errors.New("wire: cookie not found in keyring")
		} else if rerr != nil {
			return nil, errors.Wrap(rerr, "wire: read keyring")
		}
		cookieTokens := bytes.SplitN(line, []byte(" "), 3)
		if len(cookieTokens) == 3 && bytes.Equal(cookieTokens[0], tokens[1]) {
			cookie = cookieTokens[2]
			break
		}
	}

	serverChallenge := make([]byte, 16)
	if _, err := rand.Read(serverChallenge); err != nil {
		return nil, errors.Wrap(err, "wire: generate challenge")
	}
	clientChallengeHex := make([]byte, hex.EncodedLen(len(serverChallenge)))
	hex.Encode(clientChallengeHex, serverChallenge)

	hash := sha1.New()
	hash.Write(bytes.Join([][]byte{tokens[2], clientChallengeHex, cookie}, []byte(":")))

	resp := bytes.Join([][]byte{clientChallengeHex, []byte(hex.EncodeToString(hash.Sum(nil)))}, []byte(" "))
	respHex := make([]byte, hex.EncodedLen(len(resp)))
	hex.Encode(respHex, resp)
	return append([]byte("DATA "), respHex...), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// authenticate runs the SASL handshake over conn using mech (defaulting
// to AuthExternal if nil). Grounded on the teacher's
// Connection._Authenticate, with the bug fixed where a ProcessData
// error was not terminal: the original kept looping on CANCEL instead
// of returning the error to the caller.
func authenticate(conn net.Conn, mech Authenticator) error {
	if mech == nil {
		mech = AuthExternal{}
	}
	// The D-Bus auth protocol requires a leading NUL byte before "AUTH".
	if _, err := conn.Write([]byte{0}); err != nil {
		return errors.Wrap(err, "wire: write auth NUL byte")
	}

	in := bufio.NewReader(conn)
	msg := bytes.Join([][]byte{[]byte("AUTH"), mech.Mechanism(), mech.InitialResponse()}, []byte(" "))
	if _, err := conn.Write(append(msg, '\r', '\n')); err != nil {
		return errors.Wrap(err, "wire: write AUTH")
	}

	for {
		line, _, err := in.ReadLine()
		if err != nil {
			return errors.Wrap(err, "wire: read auth response")
		}

		switch {
		case bytes.HasPrefix(line, []byte("DATA")):
			resp, perr := mech.ProcessData(line[minInt(len("DATA "), len(line)):])
			if perr != nil {
				conn.Write([]byte("CANCEL\r\n"))
				return errors.Wrap(perr, "wire: process auth challenge")
			}
			if _, err := conn.Write(append(resp, '\r', '\n')); err != nil {
				return errors.Wrap(err, "wire: write DATA response")
			}

		case bytes.HasPrefix(line, []byte("OK")), bytes.HasPrefix(line, []byte("AGREE_UNIX_FD")):
			_, err := conn.Write([]byte("BEGIN\r\n"))
			return errors.Wrap(err, "wire: write BEGIN")

		case bytes.HasPrefix(line, []byte("REJECTED")):
			return errors.Errorf("wire: auth rejected: %s", line[minInt(len("REJECTED "), len(line)):])

		case bytes.HasPrefix(line, []byte("ERROR")):
			return errors.Errorf("wire: auth error: %s", line[minInt(len("ERROR "), len(line)):])

		default:
			if _, err := conn.Write([]byte("ERROR\r\n")); err != nil {
				return errors.Wrap(err, "wire: write ERROR")
			}
		}
	}
}
