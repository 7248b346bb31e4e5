package txverify

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SignatureVerifier checks an owner's signature over a signing payload.
type SignatureVerifier interface {
	// Verify reports whether sig is a valid signature by owner over payload.
	// A nil owner never verifies.
	Verify(owner *btcec.PublicKey, payload, sig []byte) bool
}

// ECDSAVerifier verifies DER-encoded secp256k1 ECDSA signatures over the
// double-SHA256 digest of the payload, matching ledger.Transaction.Sign.
type ECDSAVerifier struct{}

// Verify implements SignatureVerifier.
func (ECDSAVerifier) Verify(owner *btcec.PublicKey, payload, sig []byte) bool {
	if owner == nil || len(sig) == 0 {
		return false
	}

	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}

	return parsed.Verify(chainhash.DoubleHashB(payload), owner)
}

var _ SignatureVerifier = ECDSAVerifier{}
