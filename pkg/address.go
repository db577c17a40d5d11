package pkg

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	addressPrefixLen   = 3
	addressHashLen     = 20
	addressChecksumLen = 4
	// decoded length of a 36 character address
	addressDecodedLen = addressPrefixLen + addressHashLen + addressChecksumLen
)

// Binary prefixes that make the encoded address start with tz1..tz4 and KT1.
var (
	implicitPrefixes = map[string][]byte{
		"tz1": {6, 161, 159},
		"tz2": {6, 161, 161},
		"tz3": {6, 161, 164},
		"tz4": {6, 161, 166},
	}
	contractPrefix = []byte{2, 90, 121}

	errInvalidChecksum = errors.New("invalid checksum")
)

// ValidateImplicitAddress checks that address is a base58check encoded tz1..tz4 account.
func ValidateImplicitAddress(address string) error {
	payload, err := decodeAddress(address)
	if err != nil {
		return err
	}
	for _, prefix := range implicitPrefixes {
		if bytes.Equal(payload[:addressPrefixLen], prefix) {
			return nil
		}
	}
	return fmt.Errorf("address %q is not an implicit account", address)
}

// ValidateContractAddress checks that address is a base58check encoded KT1 contract.
func ValidateContractAddress(address string) error {
	payload, err := decodeAddress(address)
	if err != nil {
		return err
	}
	if !bytes.Equal(payload[:addressPrefixLen], contractPrefix) {
		return fmt.Errorf("address %q is not a contract", address)
	}
	return nil
}

// decodeAddress returns the prefix and hash of a base58check address.
func decodeAddress(address string) ([]byte, error) {
	decoded := base58.Decode(address)
	if len(decoded) != addressDecodedLen {
		return nil, fmt.Errorf("address %q is not a valid base58 address of %d bytes", address, addressDecodedLen)
	}

	payload := decoded[:len(decoded)-addressChecksumLen]
	checksum := decoded[len(decoded)-addressChecksumLen:]
	if !bytes.Equal(chainhash.DoubleHashB(payload)[:addressChecksumLen], checksum) {
		return nil, fmt.Errorf("address %q: %w", address, errInvalidChecksum)
	}
	return payload, nil
}
