// Package occupancy decides which parking slots hold a vehicle.
//
// The decision is pixel counting on a preprocessed mask: the imaging
// pipeline turns texture and edges into white pixels, and a slot with at
// least Threshold white pixels inside its rectangle is occupied. Empty
// asphalt is smooth, so it stays well under the threshold.
//
// Annotate draws the result over the original frame, and Monitor repeats the
// whole check while the lot image is rewritten on disk.
package occupancy
