// Package databus implements the four data-bus operator fuses that move
// and reshape values between modules inside one execution: the value
// mapper, the proportional splitter, the chain reader and the bulk
// input loader.
//
// Each operator is a fuse.Fuse whose payload is a strict canonical
// binary encoding of its descriptor list. Operators run to completion
// or fail atomically: on any error the store is exactly as it was when
// the call began. Errors are terminal; nothing here retries.
package databus
