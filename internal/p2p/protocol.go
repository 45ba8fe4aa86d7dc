package p2p

import (
	"github.com/libp2p/go-libp2p/core/protocol"
)

// Gossip topic names. A node subscribes to all four on start.
const (
	TopicBlocks    = "/blocks/1.0.0"
	TopicTxs       = "/txs/1.0.0"
	TopicConsensus = "/consensus/1.0.0"
	TopicStatus    = "/status/1.0.0"
)

// HandshakeProtocol negotiates protocol/genesis compatibility on new
// connections before gossip traffic is trusted.
const HandshakeProtocol = protocol.ID("/popc/handshake/1.0.0")

// RequestProtocol carries direct Request/Response exchanges (block range
// and by-hash sync, peer lists, status polling) outside of GossipSub.
const RequestProtocol = protocol.ID("/popc/request/1.0.0")

const (
	ProtocolVersion    uint32 = 1
	MinProtocolVersion uint32 = 1
)

// MaxMessageSize bounds every gossip payload, matching the adapter's
// boundary contract.
const MaxMessageSize = 1 << 20 // 1 MiB

// MessageKind tags which branch of the message union a Message carries.
type MessageKind string

const (
	KindBlock       MessageKind = "block"
	KindTransaction MessageKind = "transaction"
	KindConsensus   MessageKind = "consensus"
	KindStatus      MessageKind = "status"
	KindRequest     MessageKind = "request"
	KindResponse    MessageKind = "response"
)

// ConsensusKind tags the branch of a Consensus payload.
type ConsensusKind string

const (
	ConsensusChallenge ConsensusKind = "challenge"
	ConsensusProof     ConsensusKind = "proof"
	ConsensusVote      ConsensusKind = "vote"
)

// RequestKind tags the branch of a Request/Response payload.
type RequestKind string

const (
	RequestBlocks      RequestKind = "blocks"
	RequestBlockByHash RequestKind = "block_by_hash"
	RequestTransaction RequestKind = "transaction"
	RequestPeers       RequestKind = "peers"
	RequestStatus      RequestKind = "status"
)

// Message is the tagged union carried on every gossip topic:
// {Block, Transaction, Consensus{Challenge|Proof|Vote},
// Status, Request{Blocks|BlockByHash|Transaction|Peers|Status},
// Response{Blocks|Transaction|Peers|Status|Error}}. RequestProtocol streams
// carry a bare RequestPayload and ResponsePayload, not a Message. Only the
// field(s) matching Kind are populated; the adapter performs no validation
// beyond decoding the envelope.
type Message struct {
	Kind MessageKind `json:"kind"`

	Block       *BlockPayload       `json:"block,omitempty"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Consensus   *ConsensusPayload   `json:"consensus,omitempty"`
	Status      *StatusPayload      `json:"status,omitempty"`
	Request     *RequestPayload     `json:"request,omitempty"`
	Response    *ResponsePayload    `json:"response,omitempty"`
}

// BlockPayload carries a JSON-encoded block body, kept as raw bytes;
// receivers decode it themselves.
type BlockPayload struct {
	Body []byte `json:"body"`
}

// TransactionPayload carries a JSON-encoded transaction body.
type TransactionPayload struct {
	Body []byte `json:"body"`
}

// ConsensusPayload carries one of the three PoPC consensus sub-messages.
// Each field is itself a JSON-encoded application-level structure.
type ConsensusPayload struct {
	Kind      ConsensusKind `json:"kind"`
	Challenge []byte        `json:"challenge,omitempty"`
	Proof     []byte        `json:"proof,omitempty"`
	Vote      []byte        `json:"vote,omitempty"`
}

// StatusPayload is a liveness/tip announcement, and also the body of a
// status Request/Response.
type StatusPayload struct {
	Height    uint64 `json:"height"`
	TipHash   string `json:"tip_hash"`
	Timestamp int64  `json:"timestamp"`
	PeerCount int    `json:"peer_count"`
	Validator string `json:"validator,omitempty"` // hex address of the sender, if signed
	Signature []byte `json:"signature,omitempty"`
}

// RequestPayload asks a peer for one of five things.
type RequestPayload struct {
	Kind       RequestKind `json:"kind"`
	FromHeight uint64      `json:"from_height,omitempty"`
	MaxBlocks  uint32      `json:"max_blocks,omitempty"`
	Hash       string      `json:"hash,omitempty"`
}

// ResponsePayload answers a Request. The field matching Kind is populated
// on success; Error is set (Kind left as the request's kind) on failure.
type ResponsePayload struct {
	Kind        RequestKind    `json:"kind"`
	Blocks      [][]byte       `json:"blocks,omitempty"`
	Transaction []byte         `json:"transaction,omitempty"`
	Peers       []string       `json:"peers,omitempty"`
	Status      *StatusPayload `json:"status,omitempty"`
	Error       string         `json:"error,omitempty"`
}
