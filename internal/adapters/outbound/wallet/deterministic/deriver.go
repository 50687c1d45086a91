package deterministic

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	portsout "paycore/internal/application/ports/out"
	valueobjects "paycore/internal/domain/value_objects"
	apperrors "paycore/internal/shared_kernel/errors"

	"golang.org/x/crypto/sha3"
)

const (
	derivationDomain  = "paycore/deposit-address/v1"
	tronAddressPrefix = 0x41
)

// Deriver turns (secret, chain, account index) into a receiving
// address. The derived key material is an HMAC-SHA512 of the chain tag
// and index under the master secret, so the address reveals nothing
// about the secret and identical inputs always produce the identical
// address.
type Deriver struct {
	secret []byte
}

var _ portsout.DepositAddressDeriver = (*Deriver)(nil)

func NewDeriver(secretHex string) (*Deriver, *apperrors.AppError) {
	secret, err := hex.DecodeString(strings.TrimSpace(secretHex))
	if err != nil {
		return nil, apperrors.NewValidation(
			"derivation_secret_invalid",
			"derivation secret must be hex encoded",
			nil,
		)
	}
	if len(secret) < 32 {
		return nil, apperrors.NewValidation(
			"derivation_secret_too_short",
			"derivation secret must be at least 32 bytes",
			map[string]any{"length": len(secret)},
		)
	}

	return &Deriver{secret: secret}, nil
}

func (d *Deriver) Derive(_ context.Context, chain valueobjects.Chain, accountIndex int64) (string, *apperrors.AppError) {
	if accountIndex < 0 {
		return "", apperrors.NewInternal(
			"account_index_invalid",
			"account index must be non-negative",
			map[string]any{"account_index": accountIndex},
		)
	}

	material := d.keyMaterial(chain, accountIndex)

	switch chain {
	case valueobjects.ChainBTC:
		return segwitAddress("bc", material)
	case valueobjects.ChainLTC:
		return segwitAddress("ltc", material)
	case valueobjects.ChainSOL:
		return encodeBase58(material[:32]), nil
	case valueobjects.ChainUSDTTRC20:
		return tronAddress(material), nil
	case valueobjects.ChainUSDTERC20, valueobjects.ChainUSDCERC20:
		return evmAddress(material), nil
	default:
		return "", apperrors.NewValidation(
			"unsupported_chain",
			"no address format registered for chain",
			map[string]any{"chain": chain.String()},
		)
	}
}

func (d *Deriver) keyMaterial(chain valueobjects.Chain, accountIndex int64) []byte {
	mac := hmac.New(sha512.New, d.secret)
	_, _ = mac.Write([]byte(derivationDomain))
	_, _ = mac.Write([]byte("|"))
	_, _ = mac.Write([]byte(chain.String()))
	_, _ = mac.Write([]byte("|"))

	index := make([]byte, 8)
	binary.BigEndian.PutUint64(index, uint64(accountIndex))
	_, _ = mac.Write(index)

	return mac.Sum(nil)
}

func segwitAddress(hrp string, material []byte) (string, *apperrors.AppError) {
	program := sha256.Sum256(material)
	address, err := encodeSegWitAddress(hrp, 0, program[:20])
	if err != nil {
		return "", apperrors.NewInternal(
			"address_encoding_failed",
			"failed to encode segwit address",
			map[string]any{"error": err.Error()},
		)
	}
	return strings.ToLower(address), nil
}

func evmAddress(material []byte) string {
	digest := keccak256(material)
	return fmt.Sprintf("0x%x", digest[12:])
}

func tronAddress(material []byte) string {
	digest := keccak256(material)
	payload := make([]byte, 0, 21)
	payload = append(payload, tronAddressPrefix)
	payload = append(payload, digest[12:]...)
	return encodeBase58Check(payload)
}

func keccak256(input []byte) [32]byte {
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(input)
	sum := hash.Sum(nil)

	var out [32]byte
	copy(out[:], sum[:32])
	return out
}
