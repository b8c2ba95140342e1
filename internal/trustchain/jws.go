// Copyright 2025 Certen Protocol
//
// Detached JWS Verification
// ION's per-link controller proof is a detached compact JWS (RFC 7515
// §A.5: the payload segment is empty and reattached by the verifier)
// signed with ES256K over a secp256k1 key. go-jose/v4 implements only
// the JOSE-standard ES256/384/512 algorithms, not the non-standard
// ES256K this method requires, so this module parses the compact
// serialization and verifies the signature directly against
// crypto/ecdsa using the secp256k1 curve from btcec.

package trustchain

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/gobengo/trustchain/internal/canon"
)

const es256KAlg = "ES256K"

type jwsHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

// verifyDetachedJWS verifies a detached compact JWS (header..signature,
// empty payload segment) over payload against every candidate
// verification method's secp256k1 JWK, succeeding if any one key
// validates the signature.
func verifyDetachedJWS(compact string, payload []byte, methods []VerificationMethodMap) error {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 || parts[1] != "" {
		return wrap(InvalidPayload, "proofValue is not a detached compact JWS")
	}

	headerBytes, err := canon.Base64URLDecode(parts[0])
	if err != nil {
		return wrap(InvalidPayload, "decode JWS header: "+err.Error())
	}
	var header jwsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return wrap(InvalidPayload, "parse JWS header: "+err.Error())
	}
	if header.Alg != es256KAlg {
		return wrap(InvalidSignature, "unsupported JWS algorithm "+header.Alg)
	}

	sigBytes, err := canon.Base64URLDecode(parts[2])
	if err != nil {
		return wrap(InvalidSignature, "decode JWS signature: "+err.Error())
	}
	if len(sigBytes) != 64 {
		return wrap(InvalidSignature, "ES256K signature must be 64 raw bytes")
	}
	r := new(big.Int).SetBytes(sigBytes[:32])
	s := new(big.Int).SetBytes(sigBytes[32:])

	signingInput := parts[0] + "." + canon.Base64URLEncode(payload)
	digest := sha256.Sum256([]byte(signingInput))

	if len(methods) == 0 {
		return wrap(InvalidSignature, "no candidate verification methods")
	}
	for _, m := range methods {
		pub, err := jwkToSecp256k1PublicKey(m.PublicKeyJwk)
		if err != nil {
			continue
		}
		if ecdsa.Verify(pub, digest[:], r, s) {
			return nil
		}
	}
	return wrap(InvalidSignature, "no candidate key verified the proof")
}

func jwkToSecp256k1PublicKey(jwk map[string]interface{}) (*ecdsa.PublicKey, error) {
	if jwk == nil {
		return nil, wrap(InvalidPayload, "missing publicKeyJwk")
	}
	crv, _ := jwk["crv"].(string)
	if crv != "secp256k1" {
		return nil, wrap(InvalidPayload, "unsupported JWK curve "+crv)
	}
	xStr, _ := jwk["x"].(string)
	yStr, _ := jwk["y"].(string)
	xBytes, err := canon.Base64URLDecode(xStr)
	if err != nil {
		return nil, err
	}
	yBytes, err := canon.Base64URLDecode(yStr)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: btcec.S256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
