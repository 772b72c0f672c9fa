package xrpl

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the boundary to the XRP Ledger. Submissions may take seconds
// and may fail transiently; callers must treat a queued or unknown outcome
// as "not yet a fact" and reconcile later via Tx with the precomputed hash.
type Gateway interface {
	// Submit sends a pre-signed transaction blob.
	Submit(ctx context.Context, signedBlob []byte) (*Result, error)
	// SubmitFromWallet signs and submits a transaction from the given wallet seed.
	SubmitFromWallet(ctx context.Context, wallet string, tx *TxSpec) (*Result, error)
	// Tx looks up a transaction by hash to learn its validated outcome.
	Tx(ctx context.Context, hash string) (*Result, error)
}

// TxSpec is a transaction template for SubmitFromWallet.
type TxSpec struct {
	Type        string          // Payment, NFTokenMint, AccountSet, ...
	Destination string          // recipient account, for payments
	Amount      decimal.Decimal // XRP amount, 6 fractional digits
	Memos       []Memo
}

// Memo is an arbitrary payload attached to a ledger transaction.
type Memo struct {
	Type string
	Data string
}

// Result is the canonical outcome of a submission or lookup.
type Result struct {
	EngineResult string // tesSUCCESS, tec..., ter..., or "" when unknown
	Hash         string
	Validated    bool
	ValidatedAt  time.Time
}

// Outcome classifies an engine result for callers that only care about
// success / rejection / retry-later.
type Outcome int

const (
	OutcomeQueued   Outcome = iota // unknown or retriable, poll Tx later
	OutcomeSuccess                 // definitively applied
	OutcomeRejected                // definitively not applied
)

// Outcome maps the engine result onto the three-way classification.
// ter codes mean the ledger may still apply the transaction in a later
// round, so they are queued, not rejected.
func (r *Result) Outcome() Outcome {
	switch {
	case r.EngineResult == "":
		return OutcomeQueued
	case strings.HasPrefix(r.EngineResult, "tes"):
		return OutcomeSuccess
	case strings.HasPrefix(r.EngineResult, "ter"):
		return OutcomeQueued
	default:
		// tec, tef, tem, tel: the submitted blob will never apply as-is
		return OutcomeRejected
	}
}

// txSigningPrefix is the XRPL single-signed transaction hashing prefix.
var txSigningPrefix = []byte{'T', 'X', 'N', 0x00}

// TxHash computes the canonical transaction hash of a signed blob:
// the first half of SHA-512 over the TXN prefix plus the blob. Computing it
// client-side gives every submission an idempotency key even when the
// gateway times out before returning one.
func TxHash(signedBlob []byte) string {
	h := sha512.New()
	h.Write(txSigningPrefix)
	h.Write(signedBlob)
	sum := h.Sum(nil)
	return strings.ToUpper(hex.EncodeToString(sum[:sha512.Size/2]))
}
