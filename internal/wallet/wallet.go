package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"

	"pump-portal-sniper/internal/config"
	"pump-portal-sniper/internal/solana"
)

// Wallet holds the signing key and talks to the chain through the RPC client
type Wallet struct {
	privateKey solanago.PrivateKey
	publicKey  solanago.PublicKey
	client     *solana.Client
	logger     *logrus.Logger
}

// New creates a wallet from a secret string. The secret is either a
// base58-encoded 64-byte ed25519 keypair or a BIP39 mnemonic phrase.
func New(secret string, client *solana.Client, logger *logrus.Logger) (*Wallet, error) {
	priv, err := parseSecret(secret)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		privateKey: priv,
		publicKey:  priv.PublicKey(),
		client:     client,
		logger:     logger,
	}, nil
}

// parseSecret decodes a wallet secret into a private key. Mnemonics are
// detected by word count since base58 strings never contain spaces.
func parseSecret(secret string) (solanago.PrivateKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("wallet secret is empty")
	}

	if words := strings.Fields(secret); len(words) >= 12 {
		return keyFromMnemonic(strings.Join(words, " "))
	}

	decoded, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(decoded))
	}

	return solanago.PrivateKey(decoded), nil
}

// keyFromMnemonic derives an ed25519 keypair from a BIP39 mnemonic, using
// the first 32 bytes of the seed as the key seed
func keyFromMnemonic(mnemonic string) (solanago.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	seed := bip39.NewSeed(mnemonic, "")
	key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])

	return solanago.PrivateKey(key), nil
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solanago.PublicKey {
	return w.publicKey
}

// Address returns the wallet address as a base58 string
func (w *Wallet) Address() string {
	return w.publicKey.String()
}

// GetBalance returns the wallet balance in lamports
func (w *Wallet) GetBalance(ctx context.Context) (uint64, error) {
	return w.client.GetBalance(ctx, w.Address())
}

// GetBalanceSOL returns the wallet balance in SOL
func (w *Wallet) GetBalanceSOL(ctx context.Context) (float64, error) {
	lamports, err := w.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	return config.ConvertLamportsToSOL(lamports), nil
}

// GetTokenBalance returns the wallet's balance for a mint, summed across
// token accounts
func (w *Wallet) GetTokenBalance(ctx context.Context, mint string) (float64, error) {
	accounts, err := w.client.GetTokenAccountsByOwner(ctx, w.Address(), mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get token accounts: %w", err)
	}

	var total float64
	for _, account := range accounts {
		total += account.UIAmount
	}

	return total, nil
}

// SignTransaction deserializes a raw transaction and signs it with the
// wallet key. The raw bytes come back from the trade API unsigned.
func (w *Wallet) SignTransaction(raw []byte) (*solanago.Transaction, error) {
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction: %w", err)
	}

	_, err = tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(w.publicKey) {
			return &w.privateKey
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}

// Broadcast serializes a signed transaction and submits it to the cluster
func (w *Wallet) Broadcast(ctx context.Context, tx *solanago.Transaction) (string, error) {
	serialized, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(serialized)

	signature, err := w.client.SendTransaction(ctx, encoded)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"signature": signature,
		"wallet":    w.Address(),
	}).Debug("Transaction broadcast")

	return signature, nil
}
