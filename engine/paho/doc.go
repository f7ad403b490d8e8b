// Package paho adapts eclipse/paho.mqtt.golang to the synchronous,
// callback-driven engine contract the bridge drives.
//
// The paho library is asynchronous: it runs its own goroutines and fires
// handlers on them. The engine contract is the opposite: every callback
// must fire on the goroutine that called Loop. The adapter bridges the
// two by queueing every paho event internally; Loop drains the queue on
// its caller and invokes the registered callbacks there.
//
// The adapter owns message-id assignment. Paho tokens do not expose the
// wire ids the way the contract needs, so each Publish/Subscribe/
// Unsubscribe gets an adapter-assigned id, and a watcher goroutine
// enqueues the matching acknowledgement event when the token completes.
//
// Automatic reconnection is disabled at the paho layer. The bridge owns
// reconnect policy; the adapter only reports loss: a lost connection
// enqueues a disconnect event and makes Loop return an error until the
// next Connect or Reconnect.
package paho
