package node

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"

	"github.com/teranos/tzmeta/errors"
)

// base58check prefix that makes encoded 20-byte hashes start with "KT1"
var kt1Prefix = []byte{2, 90, 121}

const (
	contractHashLen = 20
	checksumLen     = 4
)

// ValidateContractAddress checks that s is a well-formed originated contract
// address: KT1 prefix, 20-byte hash, valid double-SHA256 checksum.
func ValidateContractAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "address %q is not base58: %v", s, err)
	}
	if len(raw) != len(kt1Prefix)+contractHashLen+checksumLen || !bytes.HasPrefix(raw, kt1Prefix) {
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "address %q is not a KT1 contract address", s),
			"off-chain views run against originated contracts (KT1...)",
		)
	}

	payload, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:checksumLen], sum) {
		return errors.Wrapf(errors.ErrInvalidRequest, "address %q has a bad checksum", s)
	}
	return nil
}

// EncodeContractAddress builds a KT1 address from a 20-byte contract hash
func EncodeContractAddress(hash []byte) (string, error) {
	if len(hash) != contractHashLen {
		return "", errors.Newf("contract hash must be %d bytes, got %d", contractHashLen, len(hash))
	}
	payload := append(append([]byte{}, kt1Prefix...), hash...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(payload, second[:checksumLen]...)), nil
}
