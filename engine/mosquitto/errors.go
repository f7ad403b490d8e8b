package mosquitto

import "fmt"

// Errno is a libmosquitto result code. Zero is success and is never
// wrapped in an error; every other code maps one-to-one onto the
// library's mosq_err_t values.
type Errno int

const (
	errSuccess           Errno = 0
	ErrNoMem             Errno = 1
	ErrProtocol          Errno = 2
	ErrInval             Errno = 3
	ErrNoConn            Errno = 4
	ErrConnRefused       Errno = 5
	ErrNotFound          Errno = 6
	ErrConnLost          Errno = 7
	ErrTLS               Errno = 8
	ErrPayloadSize       Errno = 9
	ErrNotSupported      Errno = 10
	ErrAuth              Errno = 11
	ErrACLDenied         Errno = 12
	ErrUnknown           Errno = 13
	ErrErrno             Errno = 14
	ErrEAI               Errno = 15
	ErrProxy             Errno = 16
	ErrPluginDefer       Errno = 17
	ErrMalformedUTF8     Errno = 18
	ErrKeepalive         Errno = 19
	ErrLookup            Errno = 20
	ErrMalformedPacket   Errno = 21
	ErrDuplicateProperty Errno = 22
	ErrTLSHandshake      Errno = 23
	ErrQoSNotSupported   Errno = 24
	ErrOversizePacket    Errno = 25
	ErrOCSP              Errno = 26
)

var errnoNames = map[Errno]string{
	ErrNoMem:             "out of memory",
	ErrProtocol:          "protocol error communicating with broker",
	ErrInval:             "invalid parameters",
	ErrNoConn:            "not connected to a broker",
	ErrConnRefused:       "connection refused",
	ErrNotFound:          "not found",
	ErrConnLost:          "connection to broker lost",
	ErrTLS:               "tls error",
	ErrPayloadSize:       "payload too large",
	ErrNotSupported:      "feature not supported",
	ErrAuth:              "authorisation failed",
	ErrACLDenied:         "access denied by acl",
	ErrUnknown:           "unknown error",
	ErrErrno:             "system call error",
	ErrEAI:               "hostname resolution error",
	ErrProxy:             "proxy error",
	ErrPluginDefer:       "plugin deferred",
	ErrMalformedUTF8:     "malformed utf-8",
	ErrKeepalive:         "keepalive exceeded",
	ErrLookup:            "dns lookup error",
	ErrMalformedPacket:   "malformed packet",
	ErrDuplicateProperty: "duplicate property",
	ErrTLSHandshake:      "tls handshake failed",
	ErrQoSNotSupported:   "qos not supported",
	ErrOversizePacket:    "packet larger than broker allows",
	ErrOCSP:              "ocsp error",
}

func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return "mosquitto: " + name
	}
	return fmt.Sprintf("mosquitto: error code %d", int(e))
}

// result maps a libmosquitto return code to a Go error.
func result(rc int) error {
	if Errno(rc) == errSuccess {
		return nil
	}
	return Errno(rc)
}
