// Package explorer builds links to public block explorers for records and
// the assets they carry.
//
// Exchange-generated identifiers (XVERSE_..., CEX_...) have no explorer page:
// the functions return an empty string for them.
package explorer

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/etnz/bitmatch"
	"github.com/mr-tron/base58"
)

// Network is the chain an identifier belongs to.
type Network string

const (
	Unknown  Network = ""
	Bitcoin  Network = "bitcoin"
	Ethereum Network = "ethereum"
	Solana   Network = "solana"
)

// Base URLs of the explorers.
var (
	MempoolURL   = "https://mempool.space"
	EtherscanURL = "https://etherscan.io"
	SolscanURL   = "https://solscan.io"
	OrdiscanURL  = "https://ordiscan.com"
)

// NetworkOf guesses the network from the shape of a transaction id.
func NetworkOf(id string) Network {
	switch {
	case isHex(id, 64):
		return Bitcoin
	case strings.HasPrefix(id, "0x") && isHex(id[2:], 64):
		return Ethereum
	case isSignature(id):
		return Solana
	}
	return Unknown
}

// TxLink returns the explorer page of the transaction a record refers to.
func TxLink(r bitmatch.Record) string {
	id := strings.TrimSpace(r.ExternalID)
	switch NetworkOf(id) {
	case Bitcoin:
		return MempoolURL + "/tx/" + strings.ToLower(id)
	case Ethereum:
		return EtherscanURL + "/tx/" + id
	case Solana:
		return SolscanURL + "/tx/" + id
	}
	return ""
}

// AssetLink returns the explorer page of an inscription or a rune.
func AssetLink(meta bitmatch.AssetMeta) string {
	switch m := meta.(type) {
	case bitmatch.OrdinalRef:
		if !isInscriptionID(m.InscriptionID) {
			return ""
		}
		return OrdiscanURL + "/inscription/" + m.InscriptionID
	case bitmatch.RuneRef:
		name := strings.Map(func(r rune) rune {
			if r == '•' || r == '.' || r == ' ' {
				return -1
			}
			return r
		}, m.Name)
		if name == "" {
			return ""
		}
		return OrdiscanURL + "/rune/" + url.PathEscape(strings.ToUpper(name))
	}
	return ""
}

// isInscriptionID checks the <txid>i<index> shape.
func isInscriptionID(id string) bool {
	txid, index, ok := strings.Cut(id, "i")
	if !ok || !isHex(txid, 64) || index == "" {
		return false
	}
	for _, c := range index {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// isSignature reports whether s decodes to a 64 bytes ed25519 signature.
func isSignature(s string) bool {
	if len(s) < 64 || len(s) > 88 {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == 64
}
