package mosquitto

// Callback trampolines. libmosquitto invokes these from inside
// mosquitto_loop, so they run on whichever goroutine called Loop; they
// copy everything out of C memory before handing it to the event sink.

/*
#include <mosquitto.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/nerrad567/gray-logic-mosq/mqtt"
)

// sink recovers the engine's event sink from the userdata handle.
func sink(obj unsafe.Pointer) mqtt.Callbacks {
	e, ok := cgo.Handle(uintptr(obj)).Value().(*Engine)
	if !ok {
		return nil
	}
	return e.callbacks()
}

//export goMosqOnConnect
func goMosqOnConnect(_ *C.struct_mosquitto, obj unsafe.Pointer, rc C.int) {
	if cb := sink(obj); cb != nil {
		cb.OnConnect(int(rc))
	}
}

//export goMosqOnDisconnect
func goMosqOnDisconnect(_ *C.struct_mosquitto, obj unsafe.Pointer, rc C.int) {
	if cb := sink(obj); cb != nil {
		cb.OnDisconnect(int(rc))
	}
}

//export goMosqOnPublish
func goMosqOnPublish(_ *C.struct_mosquitto, obj unsafe.Pointer, mid C.int) {
	if cb := sink(obj); cb != nil {
		cb.OnPublish(mqtt.MessageID(mid))
	}
}

//export goMosqOnSubscribe
func goMosqOnSubscribe(_ *C.struct_mosquitto, obj unsafe.Pointer, mid C.int, qosCount C.int, grantedQoS *C.int) {
	cb := sink(obj)
	if cb == nil {
		return
	}
	granted := make([]byte, int(qosCount))
	for i, q := range unsafe.Slice(grantedQoS, int(qosCount)) {
		granted[i] = byte(q)
	}
	cb.OnSubscribe(mqtt.MessageID(mid), granted)
}

//export goMosqOnUnsubscribe
func goMosqOnUnsubscribe(_ *C.struct_mosquitto, obj unsafe.Pointer, mid C.int) {
	if cb := sink(obj); cb != nil {
		cb.OnUnsubscribe(mqtt.MessageID(mid))
	}
}

//export goMosqOnMessage
func goMosqOnMessage(_ *C.struct_mosquitto, obj unsafe.Pointer, cmsg *C.struct_mosquitto_message) {
	cb := sink(obj)
	if cb == nil || cmsg == nil {
		return
	}
	cb.OnMessage(mqtt.Message{
		Topic:    C.GoString(cmsg.topic),
		Payload:  C.GoBytes(cmsg.payload, cmsg.payloadlen),
		QoS:      byte(cmsg.qos),
		Retained: bool(cmsg.retain),
		ID:       mqtt.MessageID(cmsg.mid),
	})
}
