package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitelistValidate(t *testing.T) {
	tests := []struct {
		name    string
		proof   WhitelistProof
		wantErr error
	}{
		{"creator", WhitelistProof{Type: WhitelistCreator, Address: testCreator, RewardRate: 1}, nil},
		{"mint", WhitelistProof{Type: WhitelistMint, Asset: 5, RewardRate: 1}, nil},
		{"zero rate", WhitelistProof{Type: WhitelistAssociatedObject, Address: testCreator}, ErrRateMustBeGtZero},
		{"bad type", WhitelistProof{Type: 9, RewardRate: 1}, ErrInvalidWhitelistType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proof.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
	assert.Error(t, (&WhitelistProof{Type: WhitelistMint, RewardRate: 1}).Validate())
}

func TestAuthorizeStake(t *testing.T) {
	mint := WhitelistProof{Farm: 1, Type: WhitelistMint, Asset: 5, RewardRate: 1}
	creator := WhitelistProof{Farm: 1, Type: WhitelistCreator, Address: testCreator, RewardRate: 1}
	object := WhitelistProof{Farm: 1, Type: WhitelistAssociatedObject, Address: testCreator, RewardRate: 1}

	assert.NoError(t, mint.AuthorizeStake(1, 5, otherAddr))
	assert.ErrorIs(t, mint.AuthorizeStake(1, 6, otherAddr), ErrAddressNotWhitelisted)
	assert.NoError(t, creator.AuthorizeStake(1, 6, testCreator))
	assert.ErrorIs(t, creator.AuthorizeStake(2, 6, testCreator), ErrAddressNotWhitelisted)
	assert.ErrorIs(t, object.AuthorizeStake(1, 6, testCreator), ErrInvalidWhitelistType)
}

func TestRateFromInterval(t *testing.T) {
	rate, err := RateFromInterval(86400*3, 86400)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rate)

	_, err = RateFromInterval(10, 0)
	assert.ErrorIs(t, err, ErrRateMustBeGtZero)
	_, err = RateFromInterval(10, 20)
	assert.ErrorIs(t, err, ErrRateMustBeGtZero)
}

func TestParseWhitelistType(t *testing.T) {
	for _, wt := range []WhitelistType{WhitelistCreator, WhitelistMint, WhitelistAssociatedObject} {
		got, err := ParseWhitelistType(wt.String())
		require.NoError(t, err)
		assert.Equal(t, wt, got)
	}
	_, err := ParseWhitelistType("nope")
	assert.Error(t, err)
}
