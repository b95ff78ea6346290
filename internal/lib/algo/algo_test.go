package algo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/ed25519"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestFormattedAmount(t *testing.T) {
	tests := []struct {
		amount   uint64
		decimals uint64
		want     string
	}{
		{0, 6, "0"},
		{1, 6, "0.000001"},
		{1_500_000, 6, "1.5"},
		{12_000_000, 6, "12"},
		{42, 0, "42"},
		{123456, 2, "1234.56"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormattedAmount(tt.amount, tt.decimals))
	}
	assert.Equal(t, "2.25", FormattedAlgoAmount(2_250_000))
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"X-API-Key": "abc:def", "Other": "1"}, parseHeaders("X-API-Key: abc:def, Other:1"))
	assert.Empty(t, parseHeaders(""))
}

func TestCreatorLookupCaches(t *testing.T) {
	var calls int
	creator := types.Address{5}
	lookup, err := newCreatorLookup(testLog, 8, func(ctx context.Context, asset staking.AssetID) (types.Address, error) {
		calls++
		if calls == 1 {
			return types.Address{}, errors.New("node busy")
		}
		return creator, nil
	})
	require.NoError(t, err)

	got, err := lookup.CreatorOf(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, creator, got)
	got, err = lookup.CreatorOf(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, creator, got)
	assert.Equal(t, 2, calls)
}

func TestCreatorLookupGivesUp(t *testing.T) {
	lookup, err := newCreatorLookup(testLog, 8, func(ctx context.Context, asset staking.AssetID) (types.Address, error) {
		return types.Address{}, errors.New("no such asset")
	})
	require.NoError(t, err)
	_, err = lookup.CreatorOf(context.Background(), 10)
	assert.Error(t, err)
}

type stubSigner map[string]bool

func (s stubSigner) HasAccount(addr string) bool { return s[addr] }
func (s stubSigner) SignWithAccount(context.Context, types.Transaction, string) (string, []byte, error) {
	return "", nil, errors.New("not used")
}

func TestCustodianRejectsUnsignableTransfers(t *testing.T) {
	from, to := types.Address{1}, types.Address{2}
	c := NewAssetCustodian(testLog, nil, stubSigner{from.String(): true})
	ctx := context.Background()

	err := c.MoveAsset(ctx, staking.Transfer{Asset: 7, From: from, To: to, Authority: to, Amount: 1})
	assert.ErrorContains(t, err, "authority must be the sender")

	err = c.MoveAsset(ctx, staking.Transfer{Asset: 7, From: to, To: from, Authority: to, Amount: 1})
	assert.ErrorIs(t, err, ErrNoSigningKey)

	assert.NoError(t, c.MoveAsset(ctx, staking.Transfer{Asset: 7, From: from, To: to, Authority: from}))
}

func TestLocalKeyStore(t *testing.T) {
	ks := &LocalKeyStore{log: testLog, keys: map[string]ed25519.PrivateKey{}}
	_, err := ks.AddMnemonic("not a mnemonic")
	assert.Error(t, err)
	assert.Empty(t, ks.Accounts())

	account := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(account.PrivateKey)
	require.NoError(t, err)
	addr, err := ks.AddMnemonic(phrase)
	require.NoError(t, err)
	assert.Equal(t, account.Address, addr)
	assert.True(t, ks.HasAccount(addr.String()))
	assert.Equal(t, []string{addr.String()}, ks.Accounts())
}

func TestValidateNetwork(t *testing.T) {
	for _, network := range Networks {
		assert.NoError(t, ValidateNetwork(network))
		assert.NotEmpty(t, getDefaults(network).NodeURL, network)
	}
	assert.Error(t, ValidateNetwork("devnet"))
}
