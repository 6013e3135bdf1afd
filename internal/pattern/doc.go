// Package pattern is the parsed form of a Noise handshake pattern.
//
// A Spec is immutable once produced by the parser. Token is a closed set;
// adding a variant means touching every exhaustive switch in sema and the
// backends, which is the point.
package pattern
