package algo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

type MultipleWalletSigner interface {
	HasAccount(publicAddress string) bool
	SignWithAccount(ctx context.Context, tx types.Transaction, publicAddress string) (string, []byte, error)
}

func sendAndWaitTxns(ctx context.Context, log *slog.Logger, algoClient *algod.Client, txnBytes []byte) (models.PendingTransactionInfoResponse, error) {
	txid, err := algoClient.SendRawTransaction(txnBytes).Do(ctx)
	if err != nil {
		return models.PendingTransactionInfoResponse{}, fmt.Errorf("sendAndWaitTxns failed to send txns: %w", err)
	}
	log.Debug("sendAndWaitTxns", "txid", txid)
	resp, err := transaction.WaitForConfirmation(algoClient, txid, DefaultValidRoundRange, ctx)
	if err != nil {
		return models.PendingTransactionInfoResponse{}, fmt.Errorf("sendAndWaitTxns failure in confirmation wait: %w", err)
	}
	log.Debug("sendAndWaitTxns", "txid", txid, "confirmed-round", resp.ConfirmedRound)
	return resp, nil
}
