package metadata

import "unsafe"

// AsBytes views a value as its raw bytes. The value must not contain
// pointers.
func AsBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// SliceBytes views a slice as its raw bytes. An empty slice yields nil.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// BytesToWords reinterprets little-endian SPIR-V bytes as 32-bit words.
// len(b) must be a multiple of 4.
func BytesToWords(b []byte) []uint32 {
	if len(b) < 4 {
		return nil
	}
	words := make([]uint32, len(b)/4)
	copy(SliceBytes(words), b)
	return words
}
