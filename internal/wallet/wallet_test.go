package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-portal-sniper/internal/solana"
)

// Standard BIP39 test vector phrase
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func newTestWallet(t *testing.T, client *solana.Client) *Wallet {
	t.Helper()

	generated := solanago.NewWallet()
	w, err := New(generated.PrivateKey.String(), client, testLogger())
	require.NoError(t, err)
	return w
}

func TestNew_FromBase58Key(t *testing.T) {
	generated := solanago.NewWallet()

	w, err := New(generated.PrivateKey.String(), nil, testLogger())
	require.NoError(t, err)

	assert.Equal(t, generated.PublicKey().String(), w.Address())
}

func TestNew_RejectsBadSecrets(t *testing.T) {
	cases := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"not base58", "0OIl+/="},
		{"wrong length", "3mJr7AoUCHxNqd"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.secret, nil, testLogger())
			assert.Error(t, err)
		})
	}
}

func TestNew_FromMnemonic(t *testing.T) {
	w1, err := New(testMnemonic, nil, testLogger())
	require.NoError(t, err)

	w2, err := New(testMnemonic, nil, testLogger())
	require.NoError(t, err)

	// Derivation is deterministic
	assert.Equal(t, w1.Address(), w2.Address())
	assert.NotEmpty(t, w1.Address())
}

func TestNew_RejectsInvalidMnemonic(t *testing.T) {
	phrase := strings.Repeat("banana ", 11) + "banana"

	_, err := New(phrase, nil, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mnemonic")
}

func TestWallet_SignTransaction(t *testing.T) {
	w := newTestWallet(t, nil)

	recipient := solanago.NewWallet().PublicKey()
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{
			system.NewTransferInstruction(1000, w.PublicKey(), recipient).Build(),
		},
		solanago.Hash{},
		solanago.TransactionPayer(w.PublicKey()),
	)
	require.NoError(t, err)

	// The trade API hands back serialized unsigned transactions
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	signed, err := w.SignTransaction(raw)
	require.NoError(t, err)

	require.Len(t, signed.Signatures, 1)
	assert.NoError(t, signed.VerifySignatures())
}

func TestWallet_SignTransactionRejectsGarbage(t *testing.T) {
	w := newTestWallet(t, nil)

	_, err := w.SignTransaction([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}

func TestWallet_GetTokenBalanceSumsAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[
			{"pubkey":"A1","account":{"data":{"parsed":{"info":{"mint":"Mint1","tokenAmount":{"amount":"1500000","decimals":6,"uiAmount":1.5}}}}}},
			{"pubkey":"A2","account":{"data":{"parsed":{"info":{"mint":"Mint1","tokenAmount":{"amount":"500000","decimals":6,"uiAmount":0.5}}}}}}
		]}}`))
	}))
	defer server.Close()

	client := solana.NewClient(solana.ClientConfig{Endpoint: server.URL}, testLogger())
	w := newTestWallet(t, client)

	balance, err := w.GetTokenBalance(context.Background(), "Mint1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, balance)
}

func TestWallet_BroadcastSendsBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"BroadcastSig111"}`))
	}))
	defer server.Close()

	client := solana.NewClient(solana.ClientConfig{Endpoint: server.URL}, testLogger())
	w := newTestWallet(t, client)

	recipient := solanago.NewWallet().PublicKey()
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{
			system.NewTransferInstruction(1000, w.PublicKey(), recipient).Build(),
		},
		solanago.Hash{},
		solanago.TransactionPayer(w.PublicKey()),
	)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	signed, err := w.SignTransaction(raw)
	require.NoError(t, err)

	sig, err := w.Broadcast(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "BroadcastSig111", sig)
}
