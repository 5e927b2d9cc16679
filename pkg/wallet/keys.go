package wallet

import (
	"crypto/ed25519"

	"github.com/gagliardetto/solana-go"
)

// KeyPair holds the ed25519 private scalar seed and public point of a
// derived account. The private bytes never leave the struct except for the
// duration of a single signing operation.
type KeyPair struct {
	private [ed25519.SeedSize]byte
	public  [ed25519.PublicKeySize]byte
	erased  bool
}

func newKeyPair(seed [ed25519.SeedSize]byte) *KeyPair {
	kp := &KeyPair{private: seed}
	prvkey := ed25519.NewKeyFromSeed(kp.private[:])
	copy(kp.public[:], prvkey[ed25519.SeedSize:])
	zero(prvkey)
	return kp
}

// PublicKey returns the public key, which is also the account address.
func (k *KeyPair) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(k.public[:])
}

// Sign returns the ed25519 signature of the given payload.
func (k *KeyPair) Sign(payload []byte) (solana.Signature, error) {
	if k == nil || k.erased {
		return solana.Signature{}, ErrNullKeyPair
	}

	prvkey := solana.PrivateKey(ed25519.NewKeyFromSeed(k.private[:]))
	defer zero(prvkey)

	return prvkey.Sign(payload)
}

// Verify returns whether the signature is valid for the given payload and
// this key pair's public key. It only reads the public key.
func (k *KeyPair) Verify(payload []byte, signature []byte) bool {
	if k == nil {
		return false
	}
	return VerifySignature(k.PublicKey(), payload, signature)
}

// Zero overwrites the private key bytes in place. The public key is kept.
func (k *KeyPair) Zero() {
	if k == nil {
		return
	}
	zero(k.private[:])
	k.erased = true
}

// IsZero returns whether every byte of the private key buffer is zero.
func (k *KeyPair) IsZero() bool {
	for _, b := range k.private {
		if b != 0 {
			return false
		}
	}
	return true
}

// VerifySignature checks an ed25519 signature against the given public key.
func VerifySignature(pubkey solana.PublicKey, payload, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	var sig solana.Signature
	copy(sig[:], signature)
	return sig.Verify(pubkey, payload)
}
