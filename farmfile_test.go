package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

var (
	authorityAddr = types.Address{1}.String()
	vaultAddr     = types.Address{2}.String()
	creatorAddr   = types.Address{3}.String()
)

func farmYAML(whitelist string) string {
	return fmt.Sprintf(`
authority: %s
vault: %s
rewardAsset: 77
fund: 1000000
locks:
  - duration: 86400
    bonusFactor: 10
    cooldown: 3600
whitelist:
%s`, authorityAddr, vaultAddr, whitelist)
}

func TestParseFarmDefinition(t *testing.T) {
	def, err := ParseFarmDefinition(strings.NewReader(farmYAML(fmt.Sprintf(`
  - type: creator
    address: %s
    rewardRate: 100
  - type: mint
    asset: 1234
    rewardRate: 50
  - type: object
    address: %s
    tokensPerInterval: 864000
    interval: 86400
`, creatorAddr, creatorAddr))))
	require.NoError(t, err)
	assert.Equal(t, authorityAddr, def.Authority)
	assert.Equal(t, uint64(77), def.RewardAsset)
	require.Len(t, def.Locks, 1)
	assert.Equal(t, uint8(10), def.Locks[0].BonusFactor)
	require.Len(t, def.Whitelist, 3)

	proof, err := def.Whitelist[2].proof(5)
	require.NoError(t, err)
	assert.Equal(t, staking.WhitelistAssociatedObject, proof.Type)
	assert.Equal(t, staking.FarmID(5), proof.Farm)
	assert.Equal(t, uint64(10), proof.RewardRate)

	proof, err = def.Whitelist[1].proof(5)
	require.NoError(t, err)
	assert.Equal(t, staking.WhitelistMint, proof.Type)
	assert.Equal(t, staking.AssetID(1234), proof.Asset)
	assert.True(t, proof.Address.IsZero())
}

func TestParseFarmDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no locks",
			yaml: fmt.Sprintf("authority: %s\nvault: %s\n", authorityAddr, vaultAddr),
		},
		{
			name: "bad authority",
			yaml: strings.Replace(farmYAML(""), authorityAddr, "NOTANADDRESS", 1),
		},
		{
			name: "unknown field",
			yaml: farmYAML("") + "bogus: 1\n",
		},
		{
			name: "mint without asset",
			yaml: farmYAML("  - type: mint\n    rewardRate: 5\n"),
		},
		{
			name: "creator without address",
			yaml: farmYAML("  - type: creator\n    rewardRate: 5\n"),
		},
		{
			name: "unknown whitelist type",
			yaml: farmYAML(fmt.Sprintf("  - type: wallet\n    address: %s\n    rewardRate: 5\n", creatorAddr)),
		},
		{
			name: "no rate",
			yaml: farmYAML(fmt.Sprintf("  - type: creator\n    address: %s\n", creatorAddr)),
		},
		{
			name: "interval rate rounds to zero",
			yaml: farmYAML(fmt.Sprintf("  - type: creator\n    address: %s\n    tokensPerInterval: 10\n    interval: 86400\n", creatorAddr)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFarmDefinition(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestWhitelistEntryRateMustBePositive(t *testing.T) {
	entry := WhitelistEntry{Type: "creator", Address: creatorAddr, TokensPerInterval: 1, Interval: 2}
	_, err := entry.proof(1)
	assert.ErrorIs(t, err, staking.ErrRateMustBeGtZero)
}
