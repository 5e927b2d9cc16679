package signer

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// rootNode is the master key tree node shared by a seed signer and all the
// siblings derived from it. Holders only read from it. If the node was built
// from a mnemonic or seed it is erased when the last holder releases it,
// a node supplied by the caller is never erased.
type rootNode struct {
	lock  sync.RWMutex
	node  *wallet.HDNode
	owned bool
	refs  int
}

func newRootNode(node *wallet.HDNode, owned bool) *rootNode {
	return &rootNode{node: node, owned: owned, refs: 1}
}

func (r *rootNode) acquire() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.refs <= 0 {
		return ErrDisposed
	}
	r.refs++
	return nil
}

func (r *rootNode) release() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.refs <= 0 {
		return
	}
	r.refs--
	if r.refs == 0 && r.owned {
		r.node.Zero()
		log.Debug("signer: root key erased")
	}
}

func (r *rootNode) derive(path wallet.DerivationPath) (*wallet.KeyPair, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.refs <= 0 {
		return nil, ErrDisposed
	}
	leaf, err := r.node.Derive(path)
	if err != nil {
		return nil, err
	}
	defer leaf.Zero()

	return leaf.KeyPair(), nil
}

// deviceHandle is the device manager shared by a hardware signer and all
// the signers derived from it. An internally built manager is closed when
// the last holder releases it, one supplied by the caller is left open.
type deviceHandle struct {
	lock    sync.Mutex
	manager ports.DeviceManager
	owned   bool
	refs    int
}

func newDeviceHandle(manager ports.DeviceManager, owned bool) *deviceHandle {
	return &deviceHandle{manager: manager, owned: owned, refs: 1}
}

func (h *deviceHandle) acquire() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.refs <= 0 {
		return ErrDisposed
	}
	h.refs++
	return nil
}

func (h *deviceHandle) release() error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.refs <= 0 {
		return nil
	}
	h.refs--
	if h.refs == 0 && h.owned {
		log.Debug("signer: closing device manager")
		return h.manager.Close()
	}
	return nil
}

func zeroBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
