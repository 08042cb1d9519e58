package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address identifies an account (consumer, merchant, admin, fee recipient or custody).
// It is always stored in canonical form: "0x" followed by 40 lowercase hex characters.
type Address string

// ZeroAddress is the all-zero account. It can never hold a role or receive funds.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and canonicalizes an address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", ErrInvalidAddress
	}
	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalidAddress
	}
	return Address("0x" + body), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// PaymentID is the caller-supplied, fixed-size identifier of a payment.
type PaymentID [32]byte

// ParsePaymentID parses a "0x"-prefixed 64 character hex string.
func ParsePaymentID(s string) (PaymentID, error) {
	var id PaymentID
	s = strings.TrimSpace(s)
	if len(s) != 66 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return id, ErrInvalidPaymentID
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return id, ErrInvalidPaymentID
	}
	copy(id[:], b)
	return id, nil
}

// PaymentIDFromReference derives a payment id from an order reference
// as keccak256(utf8(reference)), the same derivation the storefront uses.
func PaymentIDFromReference(reference string) (PaymentID, error) {
	var id PaymentID
	if reference == "" {
		return id, ErrInvalidPaymentID
	}
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(reference))
	copy(id[:], h.Sum(nil))
	return id, nil
}

// IsZero reports whether every byte of the id is zero.
func (id PaymentID) IsZero() bool {
	return id == PaymentID{}
}

func (id PaymentID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id PaymentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PaymentID) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
