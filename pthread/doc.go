// Package pthread emulates the minimal POSIX threading surface the
// vendored mosquitto engine's internals assume, for platforms without a
// native pthread implementation.
//
// This package manages:
//   - Thread creation, joining, self-identification and equality
//   - Mutex init/lock/unlock/destroy with POSIX lifecycle rules
//
// Every operation returns a POSIX-style result code: 0 on success, an
// errno-style value on failure. That keeps the engine's port layer a
// mechanical pass-through; its internal code needs no modification.
//
// The scope is deliberately the exact subset the engine uses. This is not
// a general-purpose POSIX threading reimplementation: no cancellation, no
// attributes, no condition variables, no recursive or error-checking
// mutexes.
//
// Threads created here are pinned to an OS thread for their lifetime,
// since the engine's code expects thread, not goroutine, semantics.
package pthread
