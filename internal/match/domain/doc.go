// Package domain holds the immutable match state model and the pure
// scoring engine that advances a match one point at a time.
package domain
