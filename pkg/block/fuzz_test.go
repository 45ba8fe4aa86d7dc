package block

import (
	"encoding/json"
	"strings"
	"testing"
)

var zeroHashHex = strings.Repeat("0", 64)

// FuzzBlockUnmarshal checks that arbitrary JSON input does not panic when
// unmarshaled into a Block, and that Validate/ComputeHash tolerate
// whatever shape results.
func FuzzBlockUnmarshal(f *testing.F) {
	f.Add([]byte(`{"number":0,"hash":"0x` + zeroHashHex + `","parent_hash":"0x` + zeroHashHex + `","timestamp":1000,"proposer":"0x00000000000000000000000000000000000000aa","transactions":[],"state_root":"0x` + zeroHashHex + `","gas_used":0,"gas_limit":30000000}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"number":99999999999}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var blk Block
		if err := json.Unmarshal(data, &blk); err != nil {
			return
		}
		_, _ = blk.EncodedSize()
		blk.ComputeHash()
		blk.Validate(nil, 0, Params{MaxBlockSize: 1 << 20, MaxTransactionsPerBlock: 10000, BlockGasLimit: 30_000_000})
	})
}
