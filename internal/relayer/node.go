// Package relayer runs an HTTP node that submits withdrawals to the pool on
// behalf of recipients, in exchange for a fee. Routing a withdrawal through
// a relayer keeps the recipient's address out of the submission metadata;
// the proof itself binds the relayer address and fee, so the node cannot
// redirect either.
package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net"
	"net/http"
	"sync"
)

// Node is a relayer service bound to a single pool.
type Node struct {
	ID      string
	Address string

	account *big.Int // payout address for fees
	minFee  *big.Int
	pool    Pool

	server    *http.Server
	waitGroup *sync.WaitGroup

	// Serializes submissions: the pool expects mutating calls one at a
	// time, matching the host ledger's total order.
	submitMu sync.Mutex
}

// Pool is the slice of the mixer pool a relayer needs.
type Pool interface {
	Withdraw(proof []byte, root, nullifierHash, recipient, relayer, fee *big.Int) error
	IsSpent(nullifierHash *big.Int) bool
	CurrentRoot() *big.Int
}

// NewNode creates a relayer node. account is the field-encoded address fees
// are paid to; minFee is the smallest fee the node will relay for.
func NewNode(id, address string, account, minFee *big.Int, pool Pool, wg *sync.WaitGroup) *Node {
	return &Node{
		ID:        id,
		Address:   address,
		account:   new(big.Int).Set(account),
		minFee:    new(big.Int).Set(minFee),
		pool:      pool,
		waitGroup: wg,
	}
}

// messageHandler decodes the message envelope and dispatches on its type.
func (n *Node) messageHandler(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Printf("[%s] Received a bad request: %v", n.ID, err)
		return
	}

	log.Printf("[%s] Received message of type '%s'", n.ID, msg.Type)

	switch msg.Type {
	case "withdraw_request":
		var payload WithdrawRequestPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			http.Error(w, "Invalid withdraw payload", http.StatusBadRequest)
			return
		}
		n.handleWithdrawRequest(w, payload)
	default:
		http.Error(w, "Unknown message type", http.StatusBadRequest)
	}
}

// handleWithdrawRequest validates the relayer-specific fields and submits
// the withdrawal. Pool-level rejections come back in the response body; a
// proof bound to a different relayer or a sub-minimum fee is refused before
// touching the pool.
func (n *Node) handleWithdrawRequest(w http.ResponseWriter, payload WithdrawRequestPayload) {
	if payload.Relayer.Int == nil || payload.Relayer.Cmp(n.account) != 0 {
		writeJSON(w, http.StatusBadRequest, WithdrawResponse{Error: "proof is not bound to this relayer"})
		return
	}
	if payload.Fee.Int == nil || payload.Fee.Cmp(n.minFee) < 0 {
		writeJSON(w, http.StatusBadRequest, WithdrawResponse{Error: fmt.Sprintf("fee below relayer minimum %s", n.minFee)})
		return
	}

	n.submitMu.Lock()
	err := n.pool.Withdraw(payload.Proof, payload.Root.Int, payload.NullifierHash.Int,
		payload.Recipient.Int, payload.Relayer.Int, payload.Fee.Int)
	n.submitMu.Unlock()
	if err != nil {
		log.Printf("[%s] Withdrawal rejected: %v", n.ID, err)
		writeJSON(w, http.StatusUnprocessableEntity, WithdrawResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, WithdrawResponse{OK: true})
}

func (n *Node) infoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		ID:      n.ID,
		Address: NewScalar(n.account),
		MinFee:  NewScalar(n.minFee),
	})
}

func (n *Node) statusHandler(w http.ResponseWriter, r *http.Request) {
	nf, ok := new(big.Int).SetString(r.URL.Query().Get("nullifier_hash"), 10)
	if !ok {
		http.Error(w, "missing or invalid nullifier_hash", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Spent: n.pool.IsSpent(nf)})
}

func (n *Node) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]Scalar{"root": NewScalar(n.pool.CurrentRoot())})
}

// Start launches the HTTP server; ready is signalled once it is listening.
func (n *Node) Start(ready chan<- struct{}) {
	mux := http.NewServeMux()
	mux.HandleFunc("/message", n.messageHandler)
	mux.HandleFunc("/info", n.infoHandler)
	mux.HandleFunc("/status", n.statusHandler)
	mux.HandleFunc("/root", n.rootHandler)

	n.server = &http.Server{
		Addr:    n.Address,
		Handler: mux,
	}

	listener, err := net.Listen("tcp", n.Address)
	if err != nil {
		log.Fatalf("[%s] failed to listen: %v", n.ID, err)
	}
	n.Address = listener.Addr().String()

	n.waitGroup.Add(1)
	go func() {
		defer n.waitGroup.Done()
		log.Printf("[%s] Relayer starting on %s", n.ID, n.Address)

		ready <- struct{}{}

		if err := n.server.Serve(listener); err != http.ErrServerClosed {
			log.Fatalf("[%s] Relayer failed: %v", n.ID, err)
		}
		log.Printf("[%s] Relayer stopped.", n.ID)
	}()
}

// Stop shuts the server down gracefully.
func (n *Node) Stop(ctx context.Context) error {
	if n.server == nil {
		return nil
	}
	return n.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
