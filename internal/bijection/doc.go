// Package bijection implements the counter-based keyed permutations under
// test: Philox, Threefry, ARS and AES-128, each over a fixed number of
// lanes and word width.
//
// Every function is pure: given a round count, a counter and (expanded)
// key material it returns a counter of the same shape, with no shared
// state, so callers may invoke it from any number of goroutines.
package bijection
