package crypto

// VRFOutputSize is the length of a VRF output digest.
const VRFOutputSize = 32

// VRF implements a verifiable random function from an Ed25519 key pair:
// the proof is an Ed25519 signature over the input and the output is an
// informational SHA3-256 digest binding the secret key to the input.
type VRF struct {
	key *PrivateKey
}

// NewVRF wraps a signing key for VRF use.
func NewVRF(key *PrivateKey) *VRF {
	return &VRF{key: key}
}

// Prove computes (proof, output) for input. proof is the Ed25519 signature
// over input; output is SHA3-256(secret_key_bytes || input).
func (v *VRF) Prove(input []byte) (proof []byte, output [VRFOutputSize]byte) {
	proof = v.key.Sign(input)
	buf := make([]byte, 0, len(v.key.Serialize())+len(input))
	buf = append(buf, v.key.Serialize()...)
	buf = append(buf, input...)
	output = SHA3256(buf)
	return proof, output
}

// VerifyVRF checks that proof is a valid Ed25519 signature over input under
// verifyingKey. The output digest is informational only and is not
// re-derivable from public information, so verification only checks proof.
func VerifyVRF(verifyingKey, input, proof []byte, output [VRFOutputSize]byte) bool {
	return Verify(verifyingKey, input, proof)
}
