package p2p

import (
	"encoding/json"
	"testing"

	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/tx"
)

// FuzzMessageUnmarshal tests that arbitrary JSON does not panic when
// unmarshaled into the gossip Message envelope, regardless of which Kind
// it claims to be.
func FuzzMessageUnmarshal(f *testing.F) {
	f.Add([]byte(`{"kind":"block","block":{"body":"AQID"}}`))
	f.Add([]byte(`{"kind":"transaction","transaction":{"body":"AQID"}}`))
	f.Add([]byte(`{"kind":"consensus","consensus":{"kind":"vote","vote":"AQID"}}`))
	f.Add([]byte(`{"kind":"status","status":{"height":1,"tip_hash":"0xabc"}}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"kind":"bogus"}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		_ = msg.Kind
		if msg.Block != nil {
			var b block.Block
			_ = json.Unmarshal(msg.Block.Body, &b)
		}
		if msg.Transaction != nil {
			var tr tx.Transaction
			_ = json.Unmarshal(msg.Transaction.Body, &tr)
		}
	})
}

// FuzzRequestPayloadUnmarshal tests that arbitrary JSON does not panic when
// unmarshaled into a RequestPayload.
func FuzzRequestPayloadUnmarshal(f *testing.F) {
	f.Add([]byte(`{"kind":"blocks","from_height":0,"max_blocks":10}`))
	f.Add([]byte(`{"kind":"block_by_hash","hash":"0xabc"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req RequestPayload
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		_ = req.Kind
		_ = req.FromHeight
		_ = req.MaxBlocks
		_ = req.Hash
	})
}

// FuzzResponsePayloadUnmarshal tests that arbitrary JSON does not panic when
// unmarshaled into a ResponsePayload.
func FuzzResponsePayloadUnmarshal(f *testing.F) {
	f.Add([]byte(`{"kind":"blocks","blocks":["AQID"]}`))
	f.Add([]byte(`{"kind":"status","error":"not found"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var resp ResponsePayload
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		_ = resp.Kind
		_ = resp.Error
	})
}

// FuzzHandshakeMessageUnmarshal tests that arbitrary JSON does not panic
// when unmarshaled into a HandshakeMessage.
func FuzzHandshakeMessageUnmarshal(f *testing.F) {
	f.Add([]byte(`{"protocol_version":1,"genesis_hash":"0x00","network_id":"popc-mainnet-1","best_height":0}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var msg HandshakeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		_ = msg.ProtocolVersion
		_ = msg.NetworkID
		_ = msg.BestHeight
	})
}
