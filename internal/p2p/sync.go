package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

const (
	// requestTimeout is the max time to read a Request/Response exchange.
	requestTimeout = 30 * time.Second

	// maxRequestResponseBytes limits a single stream's payload (10 MB,
	// comfortably above MaxMessageSize to allow a multi-block response).
	maxRequestResponseBytes = 10 * 1024 * 1024
)

// registerRequestHandler wires the stream handler that answers direct
// Request/Response exchanges. If no handler was set via SetRequestHandler,
// incoming requests are answered with a generic error response.
func (n *Node) registerRequestHandler() {
	n.host.SetStreamHandler(RequestProtocol, func(stream network.Stream) {
		defer stream.Close()

		_ = stream.SetReadDeadline(time.Now().Add(requestTimeout))

		var req RequestPayload
		if err := json.NewDecoder(io.LimitReader(stream, maxRequestResponseBytes)).Decode(&req); err != nil {
			return
		}
		stream.CloseWrite()

		var resp ResponsePayload
		if n.requestHandler != nil {
			resp = n.requestHandler(req)
		} else {
			resp = ResponsePayload{Kind: req.Kind, Error: "no request handler registered"}
		}

		_ = json.NewEncoder(stream).Encode(&resp)
	})
}

// Request sends req to peerID over RequestProtocol and returns its response.
func (n *Node) Request(ctx context.Context, peerID peer.ID, req RequestPayload) (*ResponsePayload, error) {
	stream, err := n.host.NewStream(ctx, peerID, RequestProtocol)
	if err != nil {
		return nil, fmt.Errorf("open request stream: %w", err)
	}
	defer stream.Close()

	if err := json.NewEncoder(stream).Encode(&req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	stream.CloseWrite()

	_ = stream.SetReadDeadline(time.Now().Add(requestTimeout))

	var resp ResponsePayload
	if err := json.NewDecoder(io.LimitReader(stream, maxRequestResponseBytes)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &resp, nil
}

// RequestBlocks asks a peer for up to maxBlocks blocks starting at fromHeight.
func (n *Node) RequestBlocks(ctx context.Context, peerID peer.ID, fromHeight uint64, maxBlocks uint32) (*ResponsePayload, error) {
	return n.Request(ctx, peerID, RequestPayload{Kind: RequestBlocks, FromHeight: fromHeight, MaxBlocks: maxBlocks})
}

// RequestBlockByHash asks a peer for a single block by hash.
func (n *Node) RequestBlockByHash(ctx context.Context, peerID peer.ID, hash string) (*ResponsePayload, error) {
	return n.Request(ctx, peerID, RequestPayload{Kind: RequestBlockByHash, Hash: hash})
}

// RequestTransaction asks a peer for a single transaction by hash.
func (n *Node) RequestTransaction(ctx context.Context, peerID peer.ID, hash string) (*ResponsePayload, error) {
	return n.Request(ctx, peerID, RequestPayload{Kind: RequestTransaction, Hash: hash})
}

// RequestPeerList asks a peer for its connected peer list.
func (n *Node) RequestPeerList(ctx context.Context, peerID peer.ID) (*ResponsePayload, error) {
	return n.Request(ctx, peerID, RequestPayload{Kind: RequestPeers})
}

// RequestStatus asks a peer for its current status (height, tip, peer count).
func (n *Node) RequestStatus(ctx context.Context, peerID peer.ID) (*ResponsePayload, error) {
	return n.Request(ctx, peerID, RequestPayload{Kind: RequestStatus})
}
