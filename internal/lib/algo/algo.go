package algo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/ssgreg/repeat"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
)

// DefaultValidRoundRange - max valid round range to have transactions be valid for (and to check for confirmation)
const DefaultValidRoundRange = 100

// FormattedAmount renders a base-unit amount of an asset with the given number
// of decimals, dropping trailing zeros.
func FormattedAmount(amount uint64, decimals uint64) string {
	if decimals == 0 {
		return fmt.Sprintf("%d", amount)
	}
	s := fmt.Sprintf("%0*d", decimals+1, amount)
	whole, frac := s[:len(s)-int(decimals)], s[len(s)-int(decimals):]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func FormattedAlgoAmount(microAlgos uint64) string {
	return FormattedAmount(microAlgos, 6)
}

func GetAlgoClient(log *slog.Logger, config NetworkConfig) (*algod.Client, error) {
	var (
		apiURL     string
		apiToken   string
		apiHeaders []*common.Header
		serverAddr *url.URL
		err        error
	)
	if config.NodeDataDir != "" {
		apiURL, apiToken, err = GetNetAndTokenFromFiles(
			filepath.Join(config.NodeDataDir, "algod.net"),
			filepath.Join(config.NodeDataDir, "algod.token"))
		if err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else {
		apiURL = config.NodeURL
		apiToken = config.NodeToken
		for key, value := range config.NodeHeaders {
			apiHeaders = append(apiHeaders, &common.Header{
				Key:   key,
				Value: value,
			})
		}
		// Strip off trailing slash if present in url which the Algorand client doesn't handle properly
		apiURL = strings.TrimRight(apiURL, "/")
	}
	serverAddr, err = url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url:%v, error:%w", apiURL, err)
	}
	if serverAddr.Scheme == "tcp" {
		serverAddr.Scheme = "http"
	}
	misc.Infof(log, "Connecting to Algorand node at:%s", serverAddr.String())

	customTransport := http.DefaultTransport.(*http.Transport).Clone()
	customTransport.MaxIdleConns = 100
	customTransport.MaxConnsPerHost = 100
	customTransport.MaxIdleConnsPerHost = 100
	client, err := algod.MakeClientWithTransport(serverAddr.String(), apiToken, apiHeaders, customTransport)
	if err != nil {
		return nil, fmt.Errorf(`failed to make algod client (url:%s), error:%w`, serverAddr.String(), err)
	}
	// Immediately hit server to verify connectivity
	_, err = client.SuggestedParams().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get suggested params from algod client, error:%w", err)
	}
	return client, nil
}

// SuggestedParams fetches flat-fee params for custody transfers, valid for DefaultValidRoundRange rounds.
// Transient algod failures are retried until ctx is done.
func SuggestedParams(ctx context.Context, logger *slog.Logger, client *algod.Client) (types.SuggestedParams, error) {
	var (
		txParams types.SuggestedParams
		err      error
	)
	err = repeat.Repeat(
		repeat.Fn(func() error {
			txParams, err = client.SuggestedParams().Do(ctx)
			if err != nil {
				return repeat.HintTemporary(err)
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(10),
		repeat.FnOnError(func(err error) error {
			misc.Infof(logger, "retrying suggestedparams call, error:%s", err.Error())
			return err
		}),
		repeat.WithDelay(
			repeat.SetContext(ctx),
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 500 * time.Millisecond,
				MaxDelay:  10 * time.Second,
			}).Set(),
		),
	)
	if err != nil {
		return types.SuggestedParams{}, fmt.Errorf("fetching suggested params: %w", err)
	}

	// move FirstRoundValid back 1 just to cover for different nodes maybe being 'slightly' behind
	txParams.FirstRoundValid--
	txParams.LastRoundValid = txParams.FirstRoundValid + DefaultValidRoundRange
	txParams.FlatFee = true
	txParams.Fee = types.MicroAlgos(txParams.MinFee)
	return txParams, nil
}

func GetVersionString(ctx context.Context, algoClient *algod.Client) (string, error) {
	vers, err := algoClient.Versions().Do(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching /versions from algod: %w", err)
	}
	return fmt.Sprintf("%d.%d.%d %s [%s]", vers.Build.Major, vers.Build.Minor, vers.Build.BuildNumber, vers.Build.Branch, vers.Build.CommitHash), nil
}
