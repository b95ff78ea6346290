package algo

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/TxnLab/gemfarm/internal/lib/misc"
)

type NetworkConfig struct {
	NodeDataDir string

	NodeURL     string
	NodeToken   string
	NodeHeaders map[string]string
}

func (n NetworkConfig) String() string {
	return fmt.Sprintf("NodeDataDir: %s, NodeURL: %s, NodeToken: (length:%d), NodeHeaders: %v", n.NodeDataDir, n.NodeURL, len(n.NodeToken), n.NodeHeaders)
}

// Networks lists the networks with built-in node defaults.
var Networks = []string{"mainnet", "testnet", "betanet", "sandbox", "voitestnet"}

func ValidateNetwork(network string) error {
	if !slices.Contains(Networks, network) {
		return fmt.Errorf("unknown network:%s (expected one of %s)", network, strings.Join(Networks, ", "))
	}
	return nil
}

// GetNetworkConfig returns the node defaults for network overridden by ALGORAND_DATA, ALGO_ALGOD_URL,
// ALGO_ALGOD_TOKEN and ALGO_ALGOD_HEADERS. Custody only sends transactions, so no admin token is needed.
func GetNetworkConfig(network string) NetworkConfig {
	cfg := getDefaults(network)

	if nodeDataDir := os.Getenv("ALGORAND_DATA"); nodeDataDir != "" {
		cfg.NodeDataDir = nodeDataDir
	}
	if nodeURL := misc.GetSecret("ALGO_ALGOD_URL"); nodeURL != "" {
		cfg.NodeURL = nodeURL
	}
	if nodeToken := misc.GetSecret("ALGO_ALGOD_TOKEN"); nodeToken != "" {
		cfg.NodeToken = nodeToken
	}
	cfg.NodeHeaders = parseHeaders(misc.GetSecret("ALGO_ALGOD_HEADERS"))
	return cfg
}

// parseHeaders parses key:value[,key:value...] pairs. Values may contain ':'.
func parseHeaders(s string) map[string]string {
	headers := map[string]string{}
	for _, header := range strings.Split(s, ",") {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}

func getDefaults(network string) NetworkConfig {
	cfg := NetworkConfig{}
	switch network {
	case "mainnet":
		cfg.NodeURL = "https://mainnet-api.algonode.cloud"
	case "testnet":
		cfg.NodeURL = "https://testnet-api.algonode.cloud"
	case "betanet":
		cfg.NodeURL = "https://betanet-api.algonode.cloud"
	case "sandbox":
		cfg.NodeURL = "http://localhost:4001"
		cfg.NodeToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	case "voitestnet":
		cfg.NodeURL = "https://testnet-api.voi.nodely.io"
	}
	return cfg
}

// GetNetAndTokenFromFiles reads the address and token from files in the local Algorand data directory.
func GetNetAndTokenFromFiles(netFile, tokenFile string) (string, string, error) {
	netPath, err := os.ReadFile(netFile)
	if err != nil {
		return "", "", fmt.Errorf("error reading file: %s: %w", netFile, err)
	}
	apiKeyBytes, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", "", fmt.Errorf("error reading file: %s: %w", tokenFile, err)
	}
	apiURL := fmt.Sprintf("http://%s", strings.TrimSpace(string(netPath)))
	apiToken := strings.TrimSpace(string(apiKeyBytes))
	return apiURL, apiToken, nil
}
