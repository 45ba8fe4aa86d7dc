package p2p

import (
	"encoding/json"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/tx"
)

// publish marshals msg and publishes it to topic, rejecting anything over
// the adapter's maximum message size before it ever reaches GossipSub.
func (n *Node) publish(topic *pubsub.Topic, msg Message) error {
	if topic == nil {
		return fmt.Errorf("p2p node not started")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds max size %d", len(data), MaxMessageSize)
	}
	return topic.Publish(n.ctx, data)
}

// BroadcastBlock publishes a block to the /blocks/1.0.0 topic.
func (n *Node) BroadcastBlock(b *block.Block) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}
	return n.publish(n.topicBlocks, Message{Kind: KindBlock, Block: &BlockPayload{Body: body}})
}

// BroadcastTransaction publishes a transaction to the /txs/1.0.0 topic.
func (n *Node) BroadcastTransaction(t *tx.Transaction) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	return n.publish(n.topicTxs, Message{Kind: KindTransaction, Transaction: &TransactionPayload{Body: body}})
}

// BroadcastChallenge publishes a consensus challenge to the
// /consensus/1.0.0 topic. challenge is the JSON encoding of the challenge
// the caller generated.
func (n *Node) BroadcastChallenge(challenge []byte) error {
	return n.publish(n.topicConsensus, Message{
		Kind:      KindConsensus,
		Consensus: &ConsensusPayload{Kind: ConsensusChallenge, Challenge: challenge},
	})
}

// BroadcastProof publishes a proof submission to the /consensus/1.0.0 topic.
func (n *Node) BroadcastProof(proof []byte) error {
	return n.publish(n.topicConsensus, Message{
		Kind:      KindConsensus,
		Consensus: &ConsensusPayload{Kind: ConsensusProof, Proof: proof},
	})
}

// BroadcastVote publishes a validator vote to the /consensus/1.0.0 topic.
func (n *Node) BroadcastVote(vote []byte) error {
	return n.publish(n.topicConsensus, Message{
		Kind:      KindConsensus,
		Consensus: &ConsensusPayload{Kind: ConsensusVote, Vote: vote},
	})
}

// BroadcastStatus publishes a liveness/tip announcement to the
// /status/1.0.0 topic.
func (n *Node) BroadcastStatus(status StatusPayload) error {
	return n.publish(n.topicStatus, Message{Kind: KindStatus, Status: &status})
}
