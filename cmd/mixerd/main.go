// main.go - Mixer pool daemon.
//
// mixerd hosts a single fixed-denomination pool behind an HTTP API:
//
//	POST /deposit       admit a commitment (attached value = denomination)
//	POST /withdraw      submit a withdrawal proof
//	GET  /spent         query a nullifier hash's status
//	GET  /root          current accumulator root
//	GET  /denomination  the pool's fixed per-deposit value
//	GET  /health        component health
//	GET  /metrics       operation counters and timings
//
// The daemon serializes mutating operations, persists the ledger after each
// state change and restores pool state from the persisted ledger on start.
//
// Usage:
//
//	mixerd -config mixerd.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RenKoya1/tornado/internal/mixer"
	"github.com/RenKoya1/tornado/internal/relayer"
	"github.com/RenKoya1/tornado/internal/transactions/withdraw"
)

const version = "1.0.0"

// server bundles the pool with the daemon's operational pieces.
type server struct {
	cfg     *Config
	log     *Logger
	pool    *mixer.Pool
	book    *mixer.AccountBook
	metrics *MetricsCollector
	health  *HealthChecker
	limiter *RateLimiter

	// Mutating pool operations are applied one at a time, standing in for
	// the host ledger's transaction-inclusion order.
	submitMu sync.Mutex
}

func main() {
	configPath := flag.String("config", "mixerd.json", "path to config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	auditPath := ""
	if cfg.EnableAudit {
		auditPath = cfg.AuditLogPath
	}
	log, err := NewLogger(cfg.LogLevel, cfg.LogFile, auditPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("daemon failed")
		os.Exit(1)
	}
}

func run(cfg *Config, log *Logger) error {
	denomination, ok := new(big.Int).SetString(cfg.Denomination, 10)
	if !ok || denomination.Sign() <= 0 {
		return fmt.Errorf("invalid denomination %q", cfg.Denomination)
	}

	// Circuit keys: load from disk or run setup once.
	if err := os.MkdirAll(cfg.KeyDir, 0755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	log.Info().Int("height", cfg.MerkleTreeHeight).Msg("compiling withdrawal circuit")
	start := time.Now()
	ccs, err := withdraw.Compile(cfg.MerkleTreeHeight)
	if err != nil {
		return fmt.Errorf("circuit compilation failed: %w", err)
	}
	log.Info().Dur("took", time.Since(start)).Msg("circuit compiled")

	_, vk, err := withdraw.SetupOrLoadKeys(ccs, cfg.ProvingKeyPath(), cfg.VerifyingKeyPath())
	if err != nil {
		return fmt.Errorf("key setup failed: %w", err)
	}

	book := mixer.NewAccountBook()
	pool, err := mixer.NewPool(mixer.Config{
		Denomination:     denomination,
		MerkleTreeHeight: cfg.MerkleTreeHeight,
		RootHistorySize:  cfg.RootHistorySize,
	}, mixer.MimcHasher{}, withdraw.NewGroth16Verifier(vk, cfg.MerkleTreeHeight), book)
	if err != nil {
		return fmt.Errorf("pool construction failed: %w", err)
	}

	// Restore state from a previous run, if any.
	if _, err := os.Stat(cfg.LedgerPath); err == nil {
		ledger, err := mixer.LoadLedgerFromFile(cfg.LedgerPath)
		if err != nil {
			return fmt.Errorf("ledger restore failed: %w", err)
		}
		if err := pool.Restore(ledger); err != nil {
			return fmt.Errorf("ledger restore failed: %w", err)
		}
		log.Info().Uint64("leaves", pool.LeafCount()).Msg("pool state restored from ledger")
	}

	s := &server{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		book:    book,
		metrics: NewMetricsCollector(),
		health:  NewHealthChecker(version),
		limiter: NewRateLimiter(cfg.RateLimitTokens, cfg.RateLimitRefill, time.Second),
	}

	s.health.RegisterComponent("pool", func() error {
		if pool.LeafCount() >= uint64(1)<<uint(cfg.MerkleTreeHeight) {
			return errors.New("deposit tree is full")
		}
		return nil
	})
	s.health.RegisterComponent("ledger", func() error {
		// No O_CREATE: a health check must not leave an empty ledger
		// file behind for the next start to trip over.
		f, err := os.OpenFile(cfg.LedgerPath, os.O_WRONLY, 0)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("ledger path not writable: %w", err)
		}
		return f.Close()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /deposit", s.limited(s.handleDeposit))
	mux.HandleFunc("POST /withdraw", s.limited(s.handleWithdraw))
	mux.HandleFunc("GET /spent", s.limited(s.handleSpent))
	mux.HandleFunc("GET /root", s.limited(s.handleRoot))
	mux.HandleFunc("GET /denomination", s.limited(s.handleDenomination))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("denomination", denomination.String()).Msg("mixerd listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return pool.Ledger().SaveToFile(cfg.LedgerPath)
}

// limited wraps a handler with the token-bucket rate limiter.
func (s *server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.metrics.IncrementCounter(MetricRateLimitedCount, nil)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

type depositRequest struct {
	Commitment relayer.Scalar `json:"commitment"`
}

type depositResponse struct {
	LeafIndex uint64         `json:"leaf_index"`
	Root      relayer.Scalar `json:"root"`
}

func (s *server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Commitment.Int == nil {
		http.Error(w, "invalid deposit request", http.StatusBadRequest)
		return
	}

	s.submitMu.Lock()
	index, err := s.pool.Deposit(req.Commitment.Int, s.pool.Denomination())
	if err == nil {
		err = s.persistLedger()
	}
	s.submitMu.Unlock()
	if err != nil {
		s.rejected(w, "deposit", err)
		return
	}

	s.metrics.RecordDeposit(s.pool.LeafCount())
	s.log.Audit("deposit", map[string]interface{}{
		"commitment": req.Commitment.String(),
		"leaf_index": index,
	})
	writeJSON(w, http.StatusOK, depositResponse{
		LeafIndex: index,
		Root:      relayer.NewScalar(s.pool.CurrentRoot()),
	})
}

func (s *server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req relayer.WithdrawRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Root.Int == nil || req.NullifierHash.Int == nil ||
		req.Recipient.Int == nil || req.Relayer.Int == nil || req.Fee.Int == nil {
		http.Error(w, "invalid withdraw request", http.StatusBadRequest)
		return
	}

	start := time.Now()
	s.submitMu.Lock()
	err := s.pool.Withdraw(req.Proof, req.Root.Int, req.NullifierHash.Int,
		req.Recipient.Int, req.Relayer.Int, req.Fee.Int)
	if err == nil {
		err = s.persistLedger()
	}
	s.submitMu.Unlock()
	if err != nil {
		s.rejected(w, "withdraw", err)
		return
	}

	s.metrics.RecordWithdrawal(time.Since(start))
	s.log.Audit("withdrawal", map[string]interface{}{
		"nullifier_hash": req.NullifierHash.String(),
		"recipient":      req.Recipient.String(),
		"relayer":        req.Relayer.String(),
		"fee":            req.Fee.String(),
	})
	writeJSON(w, http.StatusOK, relayer.WithdrawResponse{OK: true})
}

func (s *server) handleSpent(w http.ResponseWriter, r *http.Request) {
	nf, ok := new(big.Int).SetString(r.URL.Query().Get("nullifier_hash"), 10)
	if !ok {
		http.Error(w, "missing or invalid nullifier_hash", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, relayer.StatusResponse{Spent: s.pool.IsSpent(nf)})
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]relayer.Scalar{"root": relayer.NewScalar(s.pool.CurrentRoot())})
}

func (s *server) handleDenomination(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]relayer.Scalar{"denomination": relayer.NewScalar(s.pool.Denomination())})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.health.CheckHealth()
	status := http.StatusOK
	if health.OverallStatus == Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Summary())
}

// persistLedger writes the ledger to disk after a successful mutation.
func (s *server) persistLedger() error {
	if err := s.pool.Ledger().SaveToFile(s.cfg.LedgerPath); err != nil {
		return fmt.Errorf("ledger persistence failed: %w", err)
	}
	return nil
}

// rejected maps pool errors to HTTP responses and records the rejection.
func (s *server) rejected(w http.ResponseWriter, op string, err error) {
	s.metrics.RecordRejection(rejectionKind(err))
	s.log.Warn().Str("op", op).Err(err).Msg("operation rejected")
	writeJSON(w, http.StatusUnprocessableEntity, relayer.WithdrawResponse{Error: err.Error()})
}

func rejectionKind(err error) string {
	switch {
	case errors.Is(err, mixer.ErrWrongAmount):
		return "wrong_amount"
	case errors.Is(err, mixer.ErrDuplicateCommitment):
		return "duplicate_commitment"
	case errors.Is(err, mixer.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, mixer.ErrFeeExceedsDenomination):
		return "fee_exceeds_denomination"
	case errors.Is(err, mixer.ErrAlreadySpent):
		return "already_spent"
	case errors.Is(err, mixer.ErrUnknownRoot):
		return "unknown_root"
	case errors.Is(err, mixer.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, mixer.ErrRecipientPaymentFailed):
		return "recipient_payment_failed"
	case errors.Is(err, mixer.ErrRelayerPaymentFailed):
		return "relayer_payment_failed"
	default:
		return "other"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode response: %v\n", err)
	}
}
