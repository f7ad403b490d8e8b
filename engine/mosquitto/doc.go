// Package mosquitto binds libmosquitto through cgo and exposes it
// behind the synchronous engine contract the bridge drives.
//
// libmosquitto already matches the contract's shape: operations enqueue
// work and return an engine-assigned message id, and every callback
// fires inside mosquitto_loop on the goroutine that called it. The
// binding therefore stays thin: C strings in, Go copies of callback
// data out, and result codes mapped onto Errno values.
//
// The library is initialized once per process and never cleaned up;
// there is no point at which cleanup is provably safe while any client
// may still exist.
//
// Building this package requires the libmosquitto headers and library
// (libmosquitto-dev on Debian-family systems). The pure-Go alternative
// lives in engine/paho.
package mosquitto
