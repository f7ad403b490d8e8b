package mosquitto

/*
#cgo LDFLAGS: -lmosquitto
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <mosquitto.h>

extern void goMosqOnConnect(struct mosquitto *m, void *obj, int rc);
extern void goMosqOnDisconnect(struct mosquitto *m, void *obj, int rc);
extern void goMosqOnPublish(struct mosquitto *m, void *obj, int mid);
extern void goMosqOnSubscribe(struct mosquitto *m, void *obj, int mid, int qos_count, const int *granted_qos);
extern void goMosqOnUnsubscribe(struct mosquitto *m, void *obj, int mid);
extern void goMosqOnMessage(struct mosquitto *m, void *obj, const struct mosquitto_message *msg);

// engine_new keeps the handle-to-void* conversion on the C side.
static struct mosquitto *engine_new(const char *id, bool clean_session, uintptr_t handle) {
	return mosquitto_new(id, clean_session, (void *)handle);
}

static void engine_set_callbacks(struct mosquitto *m) {
	mosquitto_connect_callback_set(m, goMosqOnConnect);
	mosquitto_disconnect_callback_set(m, goMosqOnDisconnect);
	mosquitto_publish_callback_set(m, goMosqOnPublish);
	mosquitto_subscribe_callback_set(m, goMosqOnSubscribe);
	mosquitto_unsubscribe_callback_set(m, goMosqOnUnsubscribe);
	mosquitto_message_callback_set(m, goMosqOnMessage);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

var libInit sync.Once

// Config carries the session identity fixed at engine creation.
type Config struct {
	// ClientID identifies the session to the broker. Empty means a
	// generated id with a clean session.
	ClientID string

	// Username and Password are applied when Username is non-empty.
	Username string
	Password string

	// CleanSession asks the broker to drop state on disconnect.
	CleanSession bool
}

// Engine wraps one libmosquitto client instance.
type Engine struct {
	m      *C.struct_mosquitto
	handle cgo.Handle

	cbMu sync.RWMutex
	cb   mqtt.Callbacks
}

var _ mqtt.Engine = (*Engine)(nil)

// New creates a client instance for the given session config.
func New(cfg Config) (*Engine, error) {
	libInit.Do(func() {
		// Never paired with mosquitto_lib_cleanup: there is no safe
		// point to call it while any client may still exist.
		C.mosquitto_lib_init()
	})

	if cfg.ClientID == "" {
		cfg.ClientID = "mosq-" + uuid.NewString()
		cfg.CleanSession = true
	}

	e := &Engine{}
	e.handle = cgo.NewHandle(e)

	cid := C.CString(cfg.ClientID)
	defer C.free(unsafe.Pointer(cid))
	e.m = C.engine_new(cid, C.bool(cfg.CleanSession), C.uintptr_t(e.handle))
	if e.m == nil {
		e.handle.Delete()
		return nil, fmt.Errorf("mosquitto: client allocation failed")
	}

	// Operations are issued from goroutines other than the one driving
	// the loop; the library needs to know that.
	C.mosquitto_threaded_set(e.m, C.bool(true))

	if cfg.Username != "" {
		user := C.CString(cfg.Username)
		pass := C.CString(cfg.Password)
		rc := C.mosquitto_username_pw_set(e.m, user, pass)
		C.free(unsafe.Pointer(user))
		C.free(unsafe.Pointer(pass))
		if err := result(int(rc)); err != nil {
			e.Destroy()
			return nil, err
		}
	}
	return e, nil
}

// Version reports the linked libmosquitto version.
func Version() (major, minor, revision int) {
	var maj, min, rev C.int
	C.mosquitto_lib_version(&maj, &min, &rev)
	return int(maj), int(min), int(rev)
}

// SetCallbacks registers the event sink and wires the C-side callback
// trampolines.
func (e *Engine) SetCallbacks(cb mqtt.Callbacks) {
	e.cbMu.Lock()
	e.cb = cb
	e.cbMu.Unlock()
	C.engine_set_callbacks(e.m)
}

func (e *Engine) callbacks() mqtt.Callbacks {
	e.cbMu.RLock()
	defer e.cbMu.RUnlock()
	return e.cb
}

// Connect starts an asynchronous connection attempt; the handshake is
// driven by Loop and reported through the connect callback.
func (e *Engine) Connect(host string, port int, keepalive time.Duration, bindAddress string) error {
	chost := C.CString(host)
	defer C.free(unsafe.Pointer(chost))

	var cbind *C.char
	if bindAddress != "" {
		cbind = C.CString(bindAddress)
		defer C.free(unsafe.Pointer(cbind))
	}

	rc := C.mosquitto_connect_bind(e.m, chost, C.int(port), C.int(keepalive/time.Second), cbind)
	return result(int(rc))
}

// Reconnect re-dials with the parameters of the previous Connect.
func (e *Engine) Reconnect() error {
	return result(int(C.mosquitto_reconnect(e.m)))
}

// Disconnect requests a clean disconnect; completion arrives through
// the disconnect callback with reason 0.
func (e *Engine) Disconnect() error {
	return result(int(C.mosquitto_disconnect(e.m)))
}

// Publish enqueues a message and returns the library-assigned id.
func (e *Engine) Publish(topic string, payload []byte, qos byte, retain bool) (mqtt.MessageID, error) {
	ctopic := C.CString(topic)
	defer C.free(unsafe.Pointer(ctopic))

	var body unsafe.Pointer
	if len(payload) > 0 {
		body = unsafe.Pointer(&payload[0])
	}

	var mid C.int
	rc := C.mosquitto_publish(e.m, &mid, ctopic, C.int(len(payload)), body, C.int(qos), C.bool(retain))
	if err := result(int(rc)); err != nil {
		return 0, err
	}
	return mqtt.MessageID(mid), nil
}

// Subscribe enqueues a subscription request for a topic filter.
func (e *Engine) Subscribe(filter string, qos byte) (mqtt.MessageID, error) {
	cfilter := C.CString(filter)
	defer C.free(unsafe.Pointer(cfilter))

	var mid C.int
	rc := C.mosquitto_subscribe(e.m, &mid, cfilter, C.int(qos))
	if err := result(int(rc)); err != nil {
		return 0, err
	}
	return mqtt.MessageID(mid), nil
}

// Unsubscribe enqueues removal of a subscription.
func (e *Engine) Unsubscribe(filter string) (mqtt.MessageID, error) {
	cfilter := C.CString(filter)
	defer C.free(unsafe.Pointer(cfilter))

	var mid C.int
	rc := C.mosquitto_unsubscribe(e.m, &mid, cfilter)
	if err := result(int(rc)); err != nil {
		return 0, err
	}
	return mqtt.MessageID(mid), nil
}

// Loop runs one iteration of the library's network loop, firing queued
// callbacks on the calling goroutine.
func (e *Engine) Loop(timeout time.Duration) error {
	rc := C.mosquitto_loop(e.m, C.int(timeout/time.Millisecond), 1)
	return result(int(rc))
}

// Destroy releases the client instance and its callback handle.
func (e *Engine) Destroy() {
	if e.m != nil {
		C.mosquitto_destroy(e.m)
		e.m = nil
	}
	if e.handle != 0 {
		e.handle.Delete()
		e.handle = 0
	}
}
