// Package turffile packs shapes, runs of float coordinates, together with the
// turfs that belong to them into a single buffer and reads them back again.
//
//	Shapes are stored as float32 values with a NaN after every shape and the
//	turfs are stored as a json array after them, so precision past float32 is
//	not kept. A packed buffer starts with a small header carrying a signature,
//	the format version, the byte order and the size of both sections.
//
//	The typed api lives in src/turf. src/runtime exposes the same module to
//	untyped callers with init_, pack and unpack and validates every argument,
//	and cmd/turf is a cli and repl on top of it.
package turffile
