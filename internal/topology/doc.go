// Package topology builds the recurrent adjacency matrix of a reservoir: a
// sparse random mask with uniform weights, rescaled to a target spectral
// radius.
package topology
