package consensus

import (
	"encoding/binary"

	"github.com/popc-project/popc-node/pkg/crypto"
)

// Challenge is a deterministic sampling instruction over an off-chain job
// output: sample_size indices into an output of length output_size,
// derived from vrf_seed.
type Challenge struct {
	JobID      string
	SampleSize uint64
	Samples    []uint64
	VRFSeed    [32]byte
}

// GenerateChallenge deterministically derives k = min(sample_size, output_size)
// sample indices. The i-th index is
// u64_from_le(SHA3-256(vrf_seed || i_as_le_u64)[0:8]) mod output_size.
// If output_size == 0, the result has zero samples.
func GenerateChallenge(jobID string, outputSize uint64, sampleSize uint64, vrfSeed [32]byte) Challenge {
	k := sampleSize
	if outputSize < k {
		k = outputSize
	}

	samples := make([]uint64, 0, k)
	if outputSize > 0 {
		preimage := make([]byte, len(vrfSeed)+8)
		copy(preimage, vrfSeed[:])
		for i := uint64(0); i < k; i++ {
			binary.LittleEndian.PutUint64(preimage[len(vrfSeed):], i)
			digest := crypto.SHA3256(preimage)
			idx := binary.LittleEndian.Uint64(digest[0:8]) % outputSize
			samples = append(samples, idx)
		}
	}

	return Challenge{
		JobID:      jobID,
		SampleSize: sampleSize,
		Samples:    samples,
		VRFSeed:    vrfSeed,
	}
}
