// Package track defines the canonical vehicle position sample and the time
// bucketing used to align samples from independently timestamped entities.
//
// A Sample is one observation of one entity at one instant. Samples are
// created by collectors, written once to a store, and never mutated.
// Kinematic fields (speed, heading, accuracy) are passed through exactly as
// the upstream feed reports them.
package track
