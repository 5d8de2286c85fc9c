package xunsafe

import "unsafe"

// ByteLoad loads a value of type T from p, offset by n bytes.
func ByteLoad[T any, P ~*E, E any, I Int](p P, n I) T {
	return *(*T)(unsafe.Add(unsafe.Pointer(p), n))
}

// ByteStore stores v at p, offset by n bytes.
func ByteStore[T any, P ~*E, E any, I Int](p P, n I, v T) {
	*(*T)(unsafe.Add(unsafe.Pointer(p), n)) = v
}
