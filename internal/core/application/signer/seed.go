package signer

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
	"golang.org/x/sync/singleflight"
)

type SeedSignerOpts struct {
	Mnemonic string
	Seed     []byte
	// Root is an already derived master node. It is shared read-only and is
	// never erased by the signer.
	Root *wallet.HDNode
	// Path is relative to m/44'/501'. An empty path builds a root signer
	// that can only derive children.
	Path   string
	Config ports.WalletConfig
}

func (o SeedSignerOpts) validate() error {
	hasSeed := len(o.Mnemonic) > 0 || len(o.Seed) > 0
	if !hasSeed && o.Root == nil {
		return ErrMissingSeedSource
	}
	if (len(o.Mnemonic) > 0 && len(o.Seed) > 0) || (hasSeed && o.Root != nil) {
		return ErrTooManySeedSources
	}
	if len(o.Mnemonic) > 0 && !wallet.IsMnemonicValid(o.Mnemonic) {
		return wallet.ErrInvalidMnemonic
	}
	if len(o.Seed) > 0 &&
		(len(o.Seed) < wallet.MinSeedLength || len(o.Seed) > wallet.MaxSeedLength) {
		return wallet.ErrInvalidSeedLength
	}
	if len(o.Path) > 0 {
		if _, err := resolvePath(wallet.SolanaBaseDerivationPath, o.Path); err != nil {
			return err
		}
	}
	return nil
}

// SeedSigner is a software signer deriving its ed25519 key pair from a
// SLIP-10 master node. The key pair is derived lazily on first use.
type SeedSigner struct {
	root   *rootNode
	path   wallet.DerivationPath
	config ports.WalletConfig

	lock     sync.RWMutex
	keyPair  *wallet.KeyPair
	disposed bool
	group    singleflight.Group
}

func NewSeedSigner(opts SeedSignerOpts) (*SeedSigner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	root, owned := opts.Root, false
	if root == nil {
		seed := opts.Seed
		if len(opts.Mnemonic) > 0 {
			var err error
			if seed, err = seedFromMnemonic(opts.Mnemonic); err != nil {
				return nil, err
			}
			defer zeroBytes(seed)
		}
		node, err := wallet.NewMasterNode(seed)
		if err != nil {
			return nil, err
		}
		root, owned = node, true
	}

	var path wallet.DerivationPath
	if len(opts.Path) > 0 {
		path, _ = resolvePath(wallet.SolanaBaseDerivationPath, opts.Path)
	}

	return &SeedSigner{
		root:   newRootNode(root, owned),
		path:   path,
		config: opts.Config,
	}, nil
}

func (s *SeedSigner) IsActive() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.keyPair != nil && !s.disposed
}

func (s *SeedSigner) Index() int {
	if s.isRoot() {
		return -1
	}
	return accountIndex(s.path)
}

func (s *SeedSigner) Path() string {
	if s.isRoot() {
		return "m"
	}
	return s.path.String()
}

func (s *SeedSigner) Config() ports.WalletConfig {
	return s.config
}

func (s *SeedSigner) Address(_ context.Context) (string, error) {
	keyPair, err := s.activate()
	if err != nil {
		return "", err
	}
	return keyPair.PublicKey().String(), nil
}

// Derive returns a sibling signer for the given path relative to
// m/44'/501'. The sibling shares the root node and owns its own key pair.
// If cfg is nil the sibling inherits this signer's config.
func (s *SeedSigner) Derive(
	relativePath string, cfg *ports.WalletConfig,
) (ports.Signer, error) {
	if s.isDisposed() {
		return nil, ErrDisposed
	}
	if len(relativePath) <= 0 {
		return nil, ErrMissingPath
	}
	path, err := resolvePath(wallet.SolanaBaseDerivationPath, relativePath)
	if err != nil {
		return nil, err
	}
	if err := s.root.acquire(); err != nil {
		return nil, err
	}

	config := s.config
	if cfg != nil {
		config = *cfg
	}
	return &SeedSigner{
		root:   s.root,
		path:   path,
		config: config,
	}, nil
}

func (s *SeedSigner) Sign(_ context.Context, message string) ([]byte, error) {
	keyPair, err := s.activate()
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.disposed {
		return nil, ErrDisposed
	}

	sig, err := keyPair.Sign([]byte(message))
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}

// Verify checks the signature against the public key only. An ed25519
// public key is computed from the private seed, so an inactive signer is
// activated first.
func (s *SeedSigner) Verify(
	_ context.Context, message string, signature []byte,
) (bool, error) {
	keyPair, err := s.activate()
	if err != nil {
		return false, err
	}
	return wallet.VerifySignature(keyPair.PublicKey(), []byte(message), signature), nil
}

// SignTransaction signs the given wire-format transaction on behalf of its
// fee payer, which must be this signer, and returns it re-encoded.
func (s *SeedSigner) SignTransaction(
	_ context.Context, unsignedTx []byte,
) ([]byte, error) {
	keyPair, err := s.activate()
	if err != nil {
		return nil, err
	}

	tx, err := wallet.DecodeTransaction(unsignedTx)
	if err != nil {
		return nil, err
	}
	if err := checkFeePayer(tx, keyPair.PublicKey()); err != nil {
		return nil, err
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.disposed {
		return nil, ErrDisposed
	}

	sig, err := keyPair.Sign(msg)
	if err != nil {
		return nil, err
	}
	if err := wallet.AttachSignature(tx, keyPair.PublicKey(), sig[:]); err != nil {
		return nil, err
	}
	return wallet.EncodeTransaction(tx)
}

// Dispose erases the private key and releases the root node. Any later call
// fails with ErrDisposed.
func (s *SeedSigner) Dispose(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.disposed {
		return nil
	}
	if s.keyPair != nil {
		s.keyPair.Zero()
	}
	s.disposed = true
	s.root.release()

	log.WithField("path", s.Path()).Debug("signer: seed signer disposed")
	return nil
}

// KeyPair returns the derived key pair, nil if not yet active. Meant for
// inspection, the private key can't be read from it.
func (s *SeedSigner) KeyPair() *wallet.KeyPair {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.keyPair
}

func (s *SeedSigner) isRoot() bool {
	return len(s.path) <= 0
}

func (s *SeedSigner) isDisposed() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.disposed
}

// activate derives the key pair at most once, concurrent callers wait for
// the in-flight derivation.
func (s *SeedSigner) activate() (*wallet.KeyPair, error) {
	s.lock.RLock()
	keyPair, disposed := s.keyPair, s.disposed
	s.lock.RUnlock()

	if disposed {
		return nil, ErrDisposed
	}
	if s.isRoot() {
		return nil, ErrRootSigner
	}
	if keyPair != nil {
		return keyPair, nil
	}

	res, err, _ := s.group.Do("activate", func() (interface{}, error) {
		s.lock.RLock()
		if s.keyPair != nil {
			defer s.lock.RUnlock()
			return s.keyPair, nil
		}
		s.lock.RUnlock()

		keyPair, err := deriveKeyPair(s.root, s.path)
		if err != nil {
			return nil, err
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		if s.disposed {
			keyPair.Zero()
			return nil, ErrDisposed
		}
		s.keyPair = keyPair

		log.WithField("path", s.path.String()).Debug("signer: seed signer activated")
		return keyPair, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*wallet.KeyPair), nil
}

var seedFromMnemonic = wallet.SeedFromMnemonic

var deriveKeyPair = func(
	root *rootNode, path wallet.DerivationPath,
) (*wallet.KeyPair, error) {
	return root.derive(path)
}

func checkFeePayer(tx *solana.Transaction, signer solana.PublicKey) error {
	feePayer, err := wallet.FeePayer(tx)
	if err != nil {
		return err
	}
	if !feePayer.Equals(signer) {
		return fmt.Errorf(
			"%w: got %s, expected %s", wallet.ErrFeePayerMismatch, feePayer, signer,
		)
	}
	return nil
}
