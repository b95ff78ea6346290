package algo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

var ErrNoSigningKey = errors.New("no signing key for account")

// AssetCustodian moves ASAs (or ALGO, for asset 0) between accounts whose keys
// are held by signer. Receivers holding a local key are opted in on demand.
type AssetCustodian struct {
	log    *slog.Logger
	client *algod.Client
	signer MultipleWalletSigner
}

func NewAssetCustodian(log *slog.Logger, client *algod.Client, signer MultipleWalletSigner) *AssetCustodian {
	return &AssetCustodian{log: log, client: client, signer: signer}
}

func (c *AssetCustodian) MoveAsset(ctx context.Context, t staking.Transfer) error {
	if err := c.checkTransfer(t); err != nil || t.Amount == 0 {
		return err
	}
	if t.Asset != 0 {
		if err := c.ensureOptedIn(ctx, t.To, t.Asset); err != nil {
			return err
		}
	}
	params, err := SuggestedParams(ctx, c.log, c.client)
	if err != nil {
		return err
	}

	var txn types.Transaction
	if t.Asset == 0 {
		txn, err = transaction.MakePaymentTxn(t.From.String(), t.To.String(), t.Amount, nil, "", params)
	} else {
		txn, err = transaction.MakeAssetTransferTxn(t.From.String(), t.To.String(), t.Amount, nil, params, "", uint64(t.Asset))
	}
	if err != nil {
		return fmt.Errorf("building transfer of asset %d: %w", t.Asset, err)
	}
	if err = c.signAndSend(ctx, txn, t.Authority); err != nil {
		return err
	}
	misc.Debugf(c.log, "moved %d of asset %d from %s to %s", t.Amount, t.Asset, t.From, t.To)
	return nil
}

// checkTransfer rejects transfers this custodian can't sign. Only the holder
// can send an ASA without clawback rights, so the authority must be From.
func (c *AssetCustodian) checkTransfer(t staking.Transfer) error {
	if t.Authority != t.From {
		return fmt.Errorf("transfer of asset %d from %s authorized by %s: authority must be the sender", t.Asset, t.From, t.Authority)
	}
	if !c.signer.HasAccount(t.Authority.String()) {
		return fmt.Errorf("%w %s", ErrNoSigningKey, t.Authority)
	}
	return nil
}

func (c *AssetCustodian) ensureOptedIn(ctx context.Context, account types.Address, asset staking.AssetID) error {
	holdings, err := AccountHoldings(ctx, c.client, account)
	if err != nil {
		return err
	}
	if _, ok := holdings[asset]; ok {
		return nil
	}
	if !c.signer.HasAccount(account.String()) {
		return fmt.Errorf("account %s is not opted in to asset %d", account, asset)
	}
	params, err := SuggestedParams(ctx, c.log, c.client)
	if err != nil {
		return err
	}
	txn, err := transaction.MakeAssetAcceptanceTxn(account.String(), nil, params, uint64(asset))
	if err != nil {
		return fmt.Errorf("building opt-in to asset %d: %w", asset, err)
	}
	misc.Infof(c.log, "opting %s in to asset %d", account, asset)
	return c.signAndSend(ctx, txn, account)
}

func (c *AssetCustodian) signAndSend(ctx context.Context, txn types.Transaction, signer types.Address) error {
	_, signed, err := c.signer.SignWithAccount(ctx, txn, signer.String())
	if err != nil {
		return fmt.Errorf("signing with %s: %w", signer, err)
	}
	_, err = sendAndWaitTxns(ctx, c.log, c.client, signed)
	return err
}

// AccountHoldings returns the account's balance of every asset it is opted in
// to. The ALGO balance is reported as asset 0.
func AccountHoldings(ctx context.Context, client *algod.Client, account types.Address) (map[staking.AssetID]uint64, error) {
	info, err := client.AccountInformation(account.String()).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", account, err)
	}
	holdings := make(map[staking.AssetID]uint64, len(info.Assets)+1)
	holdings[0] = info.Amount
	for _, holding := range info.Assets {
		holdings[staking.AssetID(holding.AssetId)] = holding.Amount
	}
	return holdings, nil
}
