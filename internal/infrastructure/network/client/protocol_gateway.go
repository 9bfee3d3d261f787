package client

import (
	"context"
	"fmt"
	"math/big"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/common"
)

// Interest-rate mode passed to borrow/repay. The dashboard only uses the
// variable-rate market.
var variableRateMode = big.NewInt(2)

// protocolGateway implements port.ProtocolGateway by packing pool, gateway
// and ERC20 calldata and handing it to the configured submitter.
type protocolGateway struct {
	submitter    port.TransactionSubmitter
	poolAddr     common.Address
	gatewayAddr  common.Address
	referralCode uint16
	logger       port.Logger
}

// NewProtocolGateway creates the write-side gateway for the configured
// protocol deployment.
func NewProtocolGateway(chainCfg configloader.ChainConfig, referralCode uint16, submitter port.TransactionSubmitter, logger port.Logger) port.ProtocolGateway {
	initParsedABIs()
	return &protocolGateway{
		submitter:    submitter,
		poolAddr:     common.HexToAddress(chainCfg.PoolAddress),
		gatewayAddr:  common.HexToAddress(chainCfg.NativeGatewayAddress),
		referralCode: referralCode,
		logger:       logger,
	}
}

func (g *protocolGateway) Supply(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error) {
	callData, err := parsedPoolABI.Pack("supply",
		common.HexToAddress(assetAddress), rawAmount, common.HexToAddress(account), g.referralCode)
	if err != nil {
		return "", fmt.Errorf("failed to pack supply call: %w", err)
	}
	return g.submit(ctx, "supply", g.poolAddr, callData, nil)
}

func (g *protocolGateway) SupplyNative(ctx context.Context, account string, rawAmount *big.Int) (string, error) {
	callData, err := parsedGatewayABI.Pack("depositETH",
		g.poolAddr, common.HexToAddress(account), g.referralCode)
	if err != nil {
		return "", fmt.Errorf("failed to pack depositETH call: %w", err)
	}
	return g.submit(ctx, "depositETH", g.gatewayAddr, callData, rawAmount)
}

func (g *protocolGateway) Borrow(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error) {
	callData, err := parsedPoolABI.Pack("borrow",
		common.HexToAddress(assetAddress), rawAmount, variableRateMode, g.referralCode, common.HexToAddress(account))
	if err != nil {
		return "", fmt.Errorf("failed to pack borrow call: %w", err)
	}
	return g.submit(ctx, "borrow", g.poolAddr, callData, nil)
}

func (g *protocolGateway) Withdraw(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error) {
	callData, err := parsedPoolABI.Pack("withdraw",
		common.HexToAddress(assetAddress), rawAmount, common.HexToAddress(account))
	if err != nil {
		return "", fmt.Errorf("failed to pack withdraw call: %w", err)
	}
	return g.submit(ctx, "withdraw", g.poolAddr, callData, nil)
}

func (g *protocolGateway) WithdrawNative(ctx context.Context, account string, rawAmount *big.Int) (string, error) {
	callData, err := parsedGatewayABI.Pack("withdrawETH",
		g.poolAddr, rawAmount, common.HexToAddress(account))
	if err != nil {
		return "", fmt.Errorf("failed to pack withdrawETH call: %w", err)
	}
	return g.submit(ctx, "withdrawETH", g.gatewayAddr, callData, nil)
}

func (g *protocolGateway) Repay(ctx context.Context, account string, assetAddress string, rawAmount *big.Int) (string, error) {
	callData, err := parsedPoolABI.Pack("repay",
		common.HexToAddress(assetAddress), rawAmount, variableRateMode, common.HexToAddress(account))
	if err != nil {
		return "", fmt.Errorf("failed to pack repay call: %w", err)
	}
	return g.submit(ctx, "repay", g.poolAddr, callData, nil)
}

func (g *protocolGateway) Approve(ctx context.Context, tokenAddress string, spender string, rawAmount *big.Int) (string, error) {
	callData, err := parsedERC20ABI.Pack("approve", common.HexToAddress(spender), rawAmount)
	if err != nil {
		return "", fmt.Errorf("failed to pack approve call: %w", err)
	}
	return g.submit(ctx, "approve", common.HexToAddress(tokenAddress), callData, nil)
}

func (g *protocolGateway) PoolAddress() string {
	return g.poolAddr.Hex()
}

func (g *protocolGateway) NativeGatewayAddress() string {
	return g.gatewayAddr.Hex()
}

func (g *protocolGateway) submit(ctx context.Context, method string, to common.Address, callData []byte, value *big.Int) (string, error) {
	txHash, err := g.submitter.Submit(ctx, to.Hex(), callData, value)
	if err != nil {
		g.logger.Error("Transaction submission failed", "method", method, "to", to.Hex(), "error", err)
		return "", fmt.Errorf("%s transaction failed: %w", method, err)
	}
	g.logger.Info("Transaction submitted", "method", method, "to", to.Hex(), "tx_hash", txHash)
	return txHash, nil
}
