package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"lending_dashboard/internal/app/port"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Fallback gas limit when estimation fails (e.g. a node that refuses
// eth_estimateGas for state-changing calls).
const fallbackGasLimit = 400_000

// KeySubmitter implements port.TransactionSubmitter by signing transactions
// with a locally held key. It stands in for the embedded-wallet provider,
// which owns signing in production.
type KeySubmitter struct {
	ethClient *ethclient.Client
	key       *ecdsa.PrivateKey
	from      common.Address
	chainID   *big.Int
	logger    port.Logger
}

// NewKeySubmitterFromEnv reads a hex private key from the named environment
// variable and binds it to the given chain.
func NewKeySubmitterFromEnv(ethClient *ethclient.Client, keyEnv string, chainID int64, logger port.Logger) (*KeySubmitter, error) {
	raw := strings.TrimSpace(os.Getenv(keyEnv))
	if raw == "" {
		return nil, fmt.Errorf("environment variable %s is empty: no signer key configured", keyEnv)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer key from %s: %w", keyEnv, err)
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("Transaction submitter initialized", "from", from.Hex(), "chain_id", chainID)
	return &KeySubmitter{
		ethClient: ethClient,
		key:       key,
		from:      from,
		chainID:   big.NewInt(chainID),
		logger:    logger,
	}, nil
}

// Address returns the submitter's sending address.
func (s *KeySubmitter) Address() string {
	return s.from.Hex()
}

// Submit signs and broadcasts a contract call, returning the transaction
// hash. The outcome resolves when the node accepts or rejects the broadcast;
// inclusion is observed by callers through subsequent reads.
func (s *KeySubmitter) Submit(ctx context.Context, contractAddress string, calldata []byte, nativeValue *big.Int) (string, error) {
	to := common.HexToAddress(contractAddress)
	if nativeValue == nil {
		nativeValue = big.NewInt(0)
	}

	nonce, err := s.ethClient.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce for %s: %w", s.from.Hex(), err)
	}

	gasPrice, err := s.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	gasLimit, err := s.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: nativeValue,
		Data:  calldata,
	})
	if err != nil {
		s.logger.Warn("Gas estimation failed, using fallback limit", "to", to.Hex(), "error", err)
		gasLimit = fallbackGasLimit
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    nativeValue,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.ethClient.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	s.logger.Debug("Transaction broadcast", "tx_hash", signedTx.Hash().Hex(), "nonce", nonce, "gas", gasLimit)
	return signedTx.Hash().Hex(), nil
}
