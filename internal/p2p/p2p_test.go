package p2p

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/popc-project/popc-node/internal/storage"
	"github.com/popc-project/popc-node/pkg/block"
	"github.com/popc-project/popc-node/pkg/tx"
	"github.com/popc-project/popc-node/pkg/types"
)

// --- Node Lifecycle ---

func TestNode_New(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if n == nil {
		t.Fatal("New returned nil")
	}
	if n.host != nil {
		t.Error("host should be nil before Start")
	}
	if n.ID() != "" {
		t.Error("ID should be empty before Start")
	}
	if n.Addrs() != nil {
		t.Error("Addrs should be nil before Start")
	}
}

func TestNode_StartStop(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true})

	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if n.host == nil {
		t.Fatal("host should not be nil after Start")
	}
	if n.ID() == "" {
		t.Error("ID should not be empty after Start")
	}
	if len(n.Addrs()) == 0 {
		t.Error("should have at least one address")
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNode_StopBeforeStart(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop before Start should not error: %v", err)
	}
}

// --- Peer Management ---

func TestNode_PeerCount_Empty(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	if n.PeerCount() != 0 {
		t.Error("empty node should have 0 peers")
	}
}

func TestNode_AddRemovePeer(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	fakeID := peer.ID("test-peer-1")

	n.addPeer(fakeID)
	if n.PeerCount() != 1 {
		t.Errorf("expected 1 peer, got %d", n.PeerCount())
	}

	n.addPeer(fakeID)
	if n.PeerCount() != 1 {
		t.Errorf("expected 1 peer after dup, got %d", n.PeerCount())
	}

	n.removePeer(fakeID)
	if n.PeerCount() != 0 {
		t.Errorf("expected 0 peers after remove, got %d", n.PeerCount())
	}
}

func TestNode_PeerList(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	n.addPeer(peer.ID("a"))
	n.addPeer(peer.ID("b"))

	list := n.PeerList()
	if len(list) != 2 {
		t.Errorf("expected 2 peers, got %d", len(list))
	}
}

// --- Handlers ---

func TestNode_SetMessageHandler(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	n.SetMessageHandler(func(peer.ID, Message) {})
	if n.messageHandler == nil {
		t.Error("messageHandler should be set")
	}
}

func TestNode_SetRequestHandler(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	n.SetRequestHandler(func(RequestPayload) ResponsePayload { return ResponsePayload{} })
	if n.requestHandler == nil {
		t.Error("requestHandler should be set")
	}
}

// --- Rendezvous ---

func TestNode_Rendezvous_WithNetworkID(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0, NetworkID: "popc-mainnet-1"})
	want := "popc/popc-mainnet-1"
	if got := n.rendezvous(); got != want {
		t.Errorf("rendezvous() = %q, want %q", got, want)
	}
}

func TestNode_Rendezvous_Empty(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	want := "popc-node"
	if got := n.rendezvous(); got != want {
		t.Errorf("rendezvous() = %q, want %q", got, want)
	}
}

// --- Protocol Constants ---

func TestTopicNames(t *testing.T) {
	topics := []string{TopicBlocks, TopicTxs, TopicConsensus, TopicStatus}
	seen := make(map[string]bool)
	for _, name := range topics {
		if name == "" {
			t.Error("topic name should not be empty")
		}
		if seen[name] {
			t.Errorf("duplicate topic name %q", name)
		}
		seen[name] = true
	}
}

// --- Broadcast before Start ---

func TestNode_BroadcastBlock_NotStarted(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	err := n.BroadcastBlock(block.NewBlock(0, types.Hash{}, types.Address{}, nil))
	if err == nil {
		t.Error("BroadcastBlock should fail before Start")
	}
}

func TestNode_BroadcastTransaction_NotStarted(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	err := n.BroadcastTransaction(&tx.Transaction{})
	if err == nil {
		t.Error("BroadcastTransaction should fail before Start")
	}
}

func TestNode_BroadcastStatus_NotStarted(t *testing.T) {
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0})
	err := n.BroadcastStatus(StatusPayload{Height: 1})
	if err == nil {
		t.Error("BroadcastStatus should fail before Start")
	}
}

// --- Two-Node Gossip Integration Tests ---

func startTestNode(t *testing.T) *Node {
	t.Helper()
	n := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true})
	if err := n.Start(); err != nil {
		t.Fatalf("start node: %v", err)
	}
	t.Cleanup(func() { n.Stop() })
	return n
}

func connectNodes(t *testing.T, a, b *Node) {
	t.Helper()
	aInfo := peer.AddrInfo{
		ID:    a.host.ID(),
		Addrs: a.host.Addrs(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.host.Connect(ctx, aInfo); err != nil {
		t.Fatalf("connect nodes: %v", err)
	}
	a.addPeer(b.host.ID())
	b.addPeer(a.host.ID())

	// Give GossipSub time to establish mesh.
	time.Sleep(200 * time.Millisecond)
}

func TestTwoNodes_TransactionGossip(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	var received atomic.Value
	nodeB.SetMessageHandler(func(_ peer.ID, msg Message) {
		if msg.Kind == KindTransaction && msg.Transaction != nil {
			received.Store(msg.Transaction.Body)
		}
	})

	time.Sleep(300 * time.Millisecond)

	testTx := &tx.Transaction{
		From:     types.Address{0x01},
		To:       types.Address{0x02},
		Value:    types.NewU128FromUint64(5000),
		GasPrice: types.NewU128FromUint64(1_000_000_000),
		GasLimit: 21000,
		Nonce:    1,
	}
	testTx.Hash = testTx.ComputeHash()

	if err := nodeA.BroadcastTransaction(testTx); err != nil {
		t.Fatalf("BroadcastTransaction: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if v := received.Load(); v != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for transaction gossip")
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func TestTwoNodes_BlockGossip(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	var received atomic.Value
	nodeB.SetMessageHandler(func(_ peer.ID, msg Message) {
		if msg.Kind == KindBlock && msg.Block != nil {
			received.Store(msg.Block.Body)
		}
	})

	time.Sleep(300 * time.Millisecond)

	testBlock := block.NewBlock(42, types.Hash{0x01}, types.Address{0xaa}, nil)
	testBlock.Hash = testBlock.ComputeHash()

	if err := nodeA.BroadcastBlock(testBlock); err != nil {
		t.Fatalf("BroadcastBlock: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if v := received.Load(); v != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for block gossip")
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func TestTwoNodes_StatusGossip(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	var received atomic.Value
	nodeB.SetMessageHandler(func(_ peer.ID, msg Message) {
		if msg.Kind == KindStatus && msg.Status != nil {
			received.Store(*msg.Status)
		}
	})

	time.Sleep(300 * time.Millisecond)

	if err := nodeA.BroadcastStatus(StatusPayload{Height: 7, TipHash: "0xabc"}); err != nil {
		t.Fatalf("BroadcastStatus: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if v := received.Load(); v != nil {
			status := v.(StatusPayload)
			if status.Height != 7 {
				t.Errorf("status height = %d, want 7", status.Height)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for status gossip")
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// --- Panic Recovery ---

func TestPanicRecovery_MessageHandler(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	var panicCount atomic.Int32
	nodeB.SetMessageHandler(func(_ peer.ID, msg Message) {
		if msg.Kind != KindBlock {
			return
		}
		panicCount.Add(1)
		panic("test panic in message handler")
	})

	time.Sleep(300 * time.Millisecond)

	send := func(height uint64) {
		b := block.NewBlock(height, types.Hash{0x01}, types.Address{0xaa}, nil)
		b.Hash = b.ComputeHash()
		if err := nodeA.BroadcastBlock(b); err != nil {
			t.Fatalf("BroadcastBlock: %v", err)
		}
	}

	send(1)

	deadline := time.After(5 * time.Second)
	for panicCount.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for panicking handler to be called")
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}

	// Node B should still be alive — send another block.
	send(2)

	deadline2 := time.After(5 * time.Second)
	for panicCount.Load() < 2 {
		select {
		case <-deadline2:
			t.Fatal("timed out waiting for second handler call — dispatch loop may have died")
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// --- Request/Response ---

func TestTwoNodes_RequestBlocks(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	genesis := block.NewBlock(0, types.Hash{}, types.Address{0xaa}, nil)
	genesis.Hash = genesis.ComputeHash()
	child := block.NewBlock(1, genesis.Hash, types.Address{0xaa}, nil)
	child.Hash = child.ComputeHash()

	nodeA.SetRequestHandler(func(req RequestPayload) ResponsePayload {
		if req.Kind != RequestBlocks {
			return ResponsePayload{Kind: req.Kind, Error: "unsupported"}
		}
		var blocks [][]byte
		for _, b := range []*block.Block{genesis, child} {
			if b.Number >= req.FromHeight {
				data, _ := json.Marshal(b)
				blocks = append(blocks, data)
			}
		}
		return ResponsePayload{Kind: RequestBlocks, Blocks: blocks}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := nodeB.RequestBlocks(ctx, nodeA.host.ID(), 1, 10)
	if err != nil {
		t.Fatalf("RequestBlocks: %v", err)
	}
	if len(resp.Blocks) != 1 {
		t.Fatalf("expected 1 block (height 1), got %d", len(resp.Blocks))
	}
}

func TestTwoNodes_RequestStatus_NoHandlerRegistered(t *testing.T) {
	nodeA := startTestNode(t)
	nodeB := startTestNode(t)
	connectNodes(t, nodeA, nodeB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := nodeB.RequestStatus(ctx, nodeA.host.ID())
	if err != nil {
		t.Fatalf("RequestStatus: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected an error response when no request handler is registered")
	}
}

// --- DHT + Persistence Integration Tests ---

func TestNode_StartStop_WithDHT(t *testing.T) {
	n := New(Config{
		ListenAddr: "127.0.0.1",
		Port:       0,
		NoDiscover: false,
		DB:         storage.NewMemory(),
	})

	if err := n.Start(); err != nil {
		t.Fatalf("Start with DHT: %v", err)
	}

	if n.dht == nil {
		t.Error("DHT should be initialized when NoDiscover is false")
	}
	if n.peerStore == nil {
		t.Error("peerStore should be initialized when DB is provided")
	}
	if n.connNotify == nil {
		t.Error("connNotify should be initialized after Start")
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if n.dht != nil {
		t.Error("DHT should be nil after Stop")
	}
}

func TestNode_PeerPersistence(t *testing.T) {
	db := storage.NewMemory()

	nodeA := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true, DB: db})
	if err := nodeA.Start(); err != nil {
		t.Fatalf("Start nodeA: %v", err)
	}

	nodeB := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: true})
	if err := nodeB.Start(); err != nil {
		t.Fatalf("Start nodeB: %v", err)
	}

	aInfo := peer.AddrInfo{ID: nodeA.host.ID(), Addrs: nodeA.host.Addrs()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := nodeB.host.Connect(ctx, aInfo); err != nil {
		t.Fatalf("connect: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if nodeA.PeerCount() < 1 {
		t.Fatalf("nodeA expected >=1 peer, got %d", nodeA.PeerCount())
	}

	nodeA.persistPeers()

	ps := NewPeerStore(db)
	records, err := ps.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) < 1 {
		t.Errorf("expected at least 1 persisted peer, got %d", len(records))
	}

	found := false
	for _, rec := range records {
		if rec.ID == nodeB.host.ID().String() {
			found = true
		}
	}
	if !found {
		t.Error("nodeB not found in persisted peers")
	}

	nodeB.Stop()
	nodeA.Stop()
}

func TestThreeNodes_DHTDiscovery(t *testing.T) {
	nodeA := New(Config{
		ListenAddr: "127.0.0.1",
		Port:       0,
		NoDiscover: false,
		DHTServer:  true,
	})
	if err := nodeA.Start(); err != nil {
		t.Fatalf("Start nodeA: %v", err)
	}
	t.Cleanup(func() { nodeA.Stop() })

	nodeB := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: false})
	if err := nodeB.Start(); err != nil {
		t.Fatalf("Start nodeB: %v", err)
	}
	t.Cleanup(func() { nodeB.Stop() })

	nodeC := New(Config{ListenAddr: "127.0.0.1", Port: 0, NoDiscover: false})
	if err := nodeC.Start(); err != nil {
		t.Fatalf("Start nodeC: %v", err)
	}
	t.Cleanup(func() { nodeC.Stop() })

	aInfo := peer.AddrInfo{ID: nodeA.host.ID(), Addrs: nodeA.host.Addrs()}

	ctx1, cancel1 := context.WithTimeout(context.Background(), 5*time.Second)
	if err := nodeB.host.Connect(ctx1, aInfo); err != nil {
		cancel1()
		t.Fatalf("connect B→A: %v", err)
	}
	cancel1()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	if err := nodeC.host.Connect(ctx2, aInfo); err != nil {
		cancel2()
		t.Fatalf("connect C→A: %v", err)
	}
	cancel2()

	time.Sleep(2 * time.Second)

	if nodeA.PeerCount() < 2 {
		t.Errorf("nodeA expected >=2 peers, got %d", nodeA.PeerCount())
	}
	if nodeB.PeerCount() < 1 {
		t.Errorf("nodeB expected >=1 peer, got %d", nodeB.PeerCount())
	}
	if nodeC.PeerCount() < 1 {
		t.Errorf("nodeC expected >=1 peer, got %d", nodeC.PeerCount())
	}
}
