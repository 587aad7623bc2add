// Package geo converts geodetic WGS84 coordinates to the Dutch RD New
// (EPSG:28992) planar system and rescales them into a display square.
//
// The conversion uses the RDNAPTRANS approximation polynomials published by
// Schreutelkamp and Strang van Hees, which are accurate to well under a meter
// inside the Netherlands. Both directions are implemented so the transform
// can be round-trip tested.
//
// Rendering clients consume coordinates in a [-1, 1] square. Scaler applies
// the affine mapping from RD meters to that square; the default places
// Amersfoort (RD 155000, 463000) at the center with a 325 km span.
//
// All functions in this package are pure and safe for concurrent use.
package geo
