// Package p256k implements the signer.I interface with BIP-340 Schnorr
// signatures over secp256k1.
package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/NfNitLoop/nostr-cli/pkg/interfaces/signer"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/chk"
	"github.com/NfNitLoop/nostr-cli/pkg/utils/errorf"
)

// Key and signature lengths in bytes.
const (
	SecKeyLen = 32
	PubKeyLen = schnorr.PubKeyBytesLen
	SigLen    = schnorr.SignatureSize
)

// Signer holds a secp256k1 key pair. The zero value is unusable; call
// Generate, InitSec or InitPub first.
type Signer struct {
	SecretKey *btcec.PrivateKey
	PublicKey *btcec.PublicKey
	pkb, skb  []byte
}

var _ signer.I = &Signer{}

// Generate creates a new key pair.
func (s *Signer) Generate() (err error) {
	if s.SecretKey, err = btcec.NewPrivateKey(); chk.E(err) {
		return
	}
	s.skb = s.SecretKey.Serialize()
	s.PublicKey = s.SecretKey.PubKey()
	s.pkb = schnorr.SerializePubKey(s.PublicKey)
	return
}

// InitSec initialises the Signer from raw secret key bytes.
func (s *Signer) InitSec(sec []byte) (err error) {
	if len(sec) != SecKeyLen {
		err = errorf.E("p256k: sec key must be %d bytes, got %d", SecKeyLen, len(sec))
		return
	}
	s.SecretKey, s.PublicKey = btcec.PrivKeyFromBytes(sec)
	s.skb = s.SecretKey.Serialize()
	s.pkb = schnorr.SerializePubKey(s.PublicKey)
	return
}

// InitPub initializes a verify-only Signer from raw x-only public key bytes.
func (s *Signer) InitPub(pub []byte) (err error) {
	if s.PublicKey, err = schnorr.ParsePubKey(pub); chk.D(err) {
		err = errorf.E("p256k: invalid pubkey: %w", err)
		return
	}
	s.pkb = pub
	return
}

// Sec returns the raw secret key bytes.
func (s *Signer) Sec() (b []byte) { return s.skb }

// Pub returns the raw BIP-340 x-only public key bytes.
func (s *Signer) Pub() (b []byte) { return s.pkb }

// Sign a message hash. The btcec nonce derivation is deterministic, so the
// same key and message always produce the same signature; the two-pass file
// chunker depends on this.
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {
	if s.SecretKey == nil {
		err = errorf.E("p256k: signer has no secret key")
		return
	}
	var si *schnorr.Signature
	if si, err = schnorr.Sign(s.SecretKey, msg); chk.E(err) {
		return
	}
	sig = si.Serialize()
	return
}

// Verify a message signature. Only the public key needs to be initialised.
func (s *Signer) Verify(msg, sig []byte) (valid bool, err error) {
	if s.PublicKey == nil {
		err = errorf.E("p256k: signer has no public key")
		return
	}
	var si *schnorr.Signature
	if si, err = schnorr.ParseSignature(sig); chk.D(err) {
		err = errorf.D("p256k: malformed signature (%d bytes): %w", len(sig), err)
		return
	}
	valid = si.Verify(msg, s.PublicKey)
	return
}

// Zero wipes the secret key bytes.
func (s *Signer) Zero() {
	if s.SecretKey != nil {
		s.SecretKey.Zero()
	}
	for i := range s.skb {
		s.skb[i] = 0
	}
}
