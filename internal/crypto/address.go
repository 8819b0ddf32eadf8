package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// DeriveAddress computes the CREATE2 contract address for the given deployer,
// salt and init-code hash. Deterministic and pure; the actual keccak
// construction lives in go-ethereum.
func DeriveAddress(sender common.Address, salt *uint256.Int, initCodeHash common.Hash) common.Address {
	return ethcrypto.CreateAddress2(sender, salt.Bytes32(), initCodeHash.Bytes())
}

// InitCodeHash returns keccak256 of the raw contract initialization code.
func InitCodeHash(initCode []byte) common.Hash {
	return common.BytesToHash(Keccak256(initCode))
}

// Keccak256 calculates the keccak256 hash of the input bytes
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// HexToBytes decodes a hex string (with or without 0x) to bytes.
func HexToBytes(hexStr string) ([]byte, error) {
	h := strings.TrimSpace(hexStr)
	if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
		h = h[2:]
	}
	if len(h)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even length")
	}
	return hex.DecodeString(h)
}

// HexToAddress parses a 20-byte hex address, rejecting wrong lengths.
func HexToAddress(addr string) (common.Address, error) {
	b, err := HexToBytes(addr)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("invalid address length: got %d bytes, want %d", len(b), common.AddressLength)
	}
	return common.BytesToAddress(b), nil
}

// HexToHash parses a 32-byte hex value, rejecting wrong lengths.
func HexToHash(h string) (common.Hash, error) {
	b, err := HexToBytes(h)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length: got %d bytes, want %d", len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}
