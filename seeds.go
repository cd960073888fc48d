// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DeriveSeed maps (master seed, grid point, replicate) to the seed of one DGP call.
// It only looks at its arguments, so the seed of a replicate never depends on
// how many replicates ran before it or on which worker runs it.
func DeriveSeed(master uint64, gridIndex, replicate int) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], master)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(gridIndex))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(replicate))
	return xxhash.Sum64(buf[:])
}
