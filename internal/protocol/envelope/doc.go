// Package envelope encodes messages into the fixed-size plaintext frame that
// is sealed for a recipient.
//
// Frame layout (big endian), always Size bytes:
//
//	magic "DDRP" (4) | version (1) | body length (2) | CBOR body | zero padding
//
// Every frame has the same length regardless of the message, so ciphertext
// length says nothing about content.
package envelope
