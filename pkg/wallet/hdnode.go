package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

const (
	// MinSeedLength and MaxSeedLength bound the seed accepted by NewMasterNode.
	MinSeedLength = 16
	MaxSeedLength = 64

	masterKeySecret = "ed25519 seed"
)

// HDNode is a SLIP-10 ed25519 extended private key. Only hardened children
// can be derived from it.
type HDNode struct {
	key       [32]byte
	chainCode [32]byte
	depth     int
}

// NewMasterNode returns the root node of the key tree for the given seed.
func NewMasterNode(seed []byte) (*HDNode, error) {
	if len(seed) < MinSeedLength || len(seed) > MaxSeedLength {
		return nil, ErrInvalidSeedLength
	}

	mac := hmac.New(sha512.New, []byte(masterKeySecret))
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer zero(sum)

	node := &HDNode{}
	copy(node.key[:], sum[:32])
	copy(node.chainCode[:], sum[32:])
	return node, nil
}

// Child derives the hardened child at the given index.
func (n *HDNode) Child(index uint32) (*HDNode, error) {
	if index < HardenedKeyStart {
		return nil, fmt.Errorf(
			"%w: ed25519 child %d is not hardened", ErrUnhardenedDerivationPath, index,
		)
	}

	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, n.key[:]...)
	data = binary.BigEndian.AppendUint32(data, index)
	defer zero(data)

	mac := hmac.New(sha512.New, n.chainCode[:])
	mac.Write(data)
	sum := mac.Sum(nil)
	defer zero(sum)

	child := &HDNode{depth: n.depth + 1}
	copy(child.key[:], sum[:32])
	copy(child.chainCode[:], sum[32:])
	return child, nil
}

// Derive walks the given path starting from this node. Intermediate nodes
// are erased before returning; the receiver is left untouched.
func (n *HDNode) Derive(path DerivationPath) (*HDNode, error) {
	node := n
	for _, step := range path {
		child, err := node.Child(step)
		if node != n {
			node.Zero()
		}
		if err != nil {
			return nil, err
		}
		node = child
	}
	if node == n {
		clone := *n
		return &clone, nil
	}
	return node, nil
}

// KeyPair returns the ed25519 key pair of this node.
func (n *HDNode) KeyPair() *KeyPair {
	return newKeyPair(n.key)
}

// Depth returns the number of derivation steps from the master node.
func (n *HDNode) Depth() int {
	return n.depth
}

// Zero erases the node's key material in place.
func (n *HDNode) Zero() {
	zero(n.key[:])
	zero(n.chainCode[:])
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
