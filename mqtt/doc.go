// Package mqtt bridges a synchronous, callback-driven MQTT engine into an
// asynchronous client usable from concurrent goroutines.
//
// This package manages:
//   - A dedicated worker goroutine driving the engine's blocking network loop
//   - Correlation of engine acknowledgement callbacks to awaitable operations
//   - Fan-out of arriving messages to any number of subscriber streams
//   - The connection state machine and optional bounded-retry reconnection
//
// # Architecture
//
// The engine (libmosquitto via engine/mosquitto, or the pure-Go adapter in
// engine/paho) owns the wire protocol: packet framing, retransmission and
// the TLS handshake. It exposes fire-and-forget operations plus callbacks
// that fire synchronously from inside its loop-iteration call. The Client
// here turns that shape inside out:
//
//	caller goroutine            worker goroutine
//	  Publish ──► engine call     Loop ──► socket I/O
//	     │         + pending op     │
//	     └── await ◄── resolve ◄── ack callback
//
// Every engine call is serialised by a single exclusion lock; callbacks
// never re-acquire it, so acknowledgements firing from inside Loop on the
// worker cannot deadlock against the operation that triggered them.
//
// # Usage
//
//	client := mqtt.NewClient(engine, mqtt.Options{})
//	defer client.Close()
//
//	rc, err := client.Connect(ctx, "localhost", 1883, 60*time.Second, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sub := client.Subscriber()
//	granted, err := client.Subscribe(ctx, "test/#", 0)
//
//	_, err = client.Publish(ctx, "test/this", []byte("woot"), 0, false)
//
//	msg, err := sub.Recv(ctx)
//
// Multiple Subscriber streams may be live at once; every stream receives
// every arriving message (fan-out, not load-balancing). A slow consumer
// accumulates queued messages rather than stalling the network worker or
// the other streams.
package mqtt
