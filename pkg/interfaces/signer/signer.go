// Package signer defines the abstraction over secret key custody that
// produces and verifies BIP-340 signatures on event ids.
package signer

// I is a signer. Sign requires InitSec or Generate first; Verify only needs
// InitPub (InitSec derives the public key too).
type I interface {
	// Generate creates a fresh key pair.
	Generate() (err error)
	// InitSec initializes the signer from 32 raw secret key bytes.
	InitSec(sec []byte) (err error)
	// InitPub initializes a verify-only signer from 32 x-only pubkey bytes.
	InitPub(pub []byte) (err error)
	// Sec returns the raw secret key bytes.
	Sec() (b []byte)
	// Pub returns the raw x-only public key bytes.
	Pub() (b []byte)
	// Sign produces a 64 byte BIP-340 signature over msg (an event id).
	// Signatures are deterministic for a given key and message.
	Sign(msg []byte) (sig []byte, err error)
	// Verify checks sig over msg. A bad signature returns false, not an
	// error; err reports malformed inputs.
	Verify(msg, sig []byte) (valid bool, err error)
	// Zero wipes the secret key material.
	Zero()
}
