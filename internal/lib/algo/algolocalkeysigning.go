package algo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"golang.org/x/crypto/ed25519"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
)

// LocalKeyStore signs with ed25519 keys held in memory.
type LocalKeyStore struct {
	log *slog.Logger

	keys map[string]ed25519.PrivateKey
}

// NewLocalKeyStore loads every mnemonic found in environment variables (or .env files) starting with
// "ALGO_MNEMONIC". The farm vault and any staker accounts this process acts for must be present.
func NewLocalKeyStore(log *slog.Logger) (*LocalKeyStore, error) {
	keyStore := &LocalKeyStore{
		log:  log,
		keys: map[string]ed25519.PrivateKey{},
	}
	if err := keyStore.loadFromEnvironment(); err != nil {
		return nil, err
	}
	return keyStore, nil
}

func (lk *LocalKeyStore) HasAccount(publicAddress string) bool {
	_, found := lk.keys[publicAddress]
	return found
}

func (lk *LocalKeyStore) Accounts() []string {
	accounts := make([]string, 0, len(lk.keys))
	for addr := range lk.keys {
		accounts = append(accounts, addr)
	}
	slices.Sort(accounts)
	return accounts
}

func (lk *LocalKeyStore) SignWithAccount(ctx context.Context, tx types.Transaction, publicAddress string) (string, []byte, error) {
	key, found := lk.keys[publicAddress]
	if !found {
		return "", nil, fmt.Errorf("key not found for address %s", publicAddress)
	}
	return crypto.SignTransaction(key, tx)
}

func (lk *LocalKeyStore) loadFromEnvironment() error {
	var numMnemonics int
	for _, envVal := range os.Environ() {
		if !strings.HasPrefix(envVal, "ALGO_MNEMONIC") {
			continue
		}
		key := envVal[0:strings.IndexByte(envVal, '=')]
		envMnemonic := os.Getenv(key)
		if envMnemonic == "" {
			continue
		}
		if _, err := lk.AddMnemonic(envMnemonic); err != nil {
			return fmt.Errorf("loading mnemonic from %s: %w", key, err)
		}
		numMnemonics++
	}
	misc.Infof(lk.log, "loaded %d mnemonics", numMnemonics)
	return nil
}

// AddMnemonic adds the key for mnemonicPhrase and returns its address.
func (lk *LocalKeyStore) AddMnemonic(mnemonicPhrase string) (types.Address, error) {
	key, err := mnemonic.ToPrivateKey(mnemonicPhrase)
	if err != nil {
		return types.Address{}, fmt.Errorf("failed to add mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(key)
	if err != nil {
		return types.Address{}, fmt.Errorf("failed to add mnemonic: %w", err)
	}
	lk.keys[account.Address.String()] = key
	misc.Debugf(lk.log, "Added data for pk:%s", account.Address.String())
	return account.Address, nil
}
