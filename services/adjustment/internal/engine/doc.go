// Package engine computes order-value adjustments. Everything here is pure:
// callers load candidates, the engine decides eligibility and stacks the
// contributions, and persistence happens elsewhere.
package engine
