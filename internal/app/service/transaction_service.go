package service

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"
	"lending_dashboard/internal/pkg/utils"
	"lending_dashboard/pkg/metrics"
)

// Step labels surfaced to the UI while an operation progresses.
const (
	labelPreparing       = "Preparing transaction…"
	labelCheckingBalance = "Checking balance…"
	labelApproving       = "Approving…"
	labelSupplying       = "Supplying…"
	labelBorrowing       = "Borrowing…"
	labelWithdrawing     = "Withdrawing…"
	labelRepaying        = "Repaying…"
)

// transactionServiceImpl implements port.TransactionService. All four
// operations run through the same flow machinery: synchronous pre-flight
// validation, then strictly sequential phases under a per-account lock, then
// exactly one terminal state. Failures are terminal; there are no retries.
type transactionServiceImpl struct {
	registry port.AssetRegistry
	chain    port.ChainClient
	gateway  port.ProtocolGateway
	logger   port.Logger
	// settleDelay is applied after an approval confirms, because some wallet
	// backends report the receipt before the allowance is queryable.
	settleDelay time.Duration

	locksMu      sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewTransactionService creates a new instance of transactionServiceImpl.
func NewTransactionService(
	registry port.AssetRegistry,
	chain port.ChainClient,
	gateway port.ProtocolGateway,
	l port.Logger,
	settleDelay time.Duration,
) port.TransactionService {
	return &transactionServiceImpl{
		registry:     registry,
		chain:        chain,
		gateway:      gateway,
		logger:       l,
		settleDelay:  settleDelay,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// opFlow carries the mutable state of a single invocation. Emissions stop
// once the invocation's context is cancelled, so a stale operation cannot
// overwrite UI state; the broadcast itself cannot be recalled.
type opFlow struct {
	ctx      context.Context
	listener port.StateListener
	state    entity.TransactionState
}

func (f *opFlow) transition(status entity.TxStatus, label string) {
	f.state.Status = status
	f.state.StepLabel = label
	f.state.IsLoading = true
	f.emit()
}

func (f *opFlow) emit() {
	if f.listener == nil || f.ctx.Err() != nil {
		return
	}
	f.listener(f.state)
}

// Execute runs one protocol operation to a single terminal outcome.
func (s *transactionServiceImpl) Execute(ctx context.Context, req entity.OperationRequest, listener port.StateListener) entity.TransactionState {
	f := &opFlow{
		ctx:      ctx,
		listener: listener,
		state:    entity.TransactionState{Operation: req.Operation, Status: entity.StatusIdle},
	}

	// Pre-flight validation: synchronous and terminal, no network calls.
	if _, ok := entity.ParseOperationKind(string(req.Operation)); !ok {
		return s.fail(f, entity.NewOperationError(entity.ErrTransactionFailed, "unknown operation %q", req.Operation))
	}
	if req.Account == "" {
		return s.fail(f, entity.NewOperationError(entity.ErrWalletNotConnected, "no wallet connected"))
	}
	asset, ok := s.registry.Get(req.Asset)
	if !ok {
		return s.fail(f, entity.NewOperationError(entity.ErrUnsupportedAsset, "asset %q is not supported", req.Asset))
	}
	raw, err := utils.ParseAmount(req.Amount, asset.Decimals)
	if err != nil || raw.Sign() <= 0 {
		return s.fail(f, entity.NewOperationError(entity.ErrInvalidAmount, "amount %q must be a positive number", req.Amount))
	}
	if req.Operation == entity.OpBorrow && !asset.CanBorrow {
		return s.fail(f, entity.NewOperationError(entity.ErrAssetNotBorrowable, "asset %s is not borrowable", asset.Symbol))
	}
	if req.Operation == entity.OpRepay && asset.IsNative {
		return s.fail(f, entity.NewOperationError(entity.ErrUnsupportedAsset, "native-asset repayment is not supported"))
	}

	f.transition(entity.StatusPreparing, labelPreparing)

	// Operations for the same account are serialized so two approvals for
	// the same spender cannot race. Different accounts interleave freely.
	lock := s.lockFor(req.Account)
	lock.Lock()
	defer lock.Unlock()

	var txHash string
	var opErr *entity.OperationError
	switch req.Operation {
	case entity.OpSupply:
		txHash, opErr = s.runSupply(f, req.Account, asset, raw)
	case entity.OpBorrow:
		txHash, opErr = s.runBorrow(f, req.Account, asset, raw)
	case entity.OpWithdraw:
		txHash, opErr = s.runWithdraw(f, req.Account, asset, raw)
	case entity.OpRepay:
		txHash, opErr = s.runRepay(f, req.Account, asset, raw)
	}

	if opErr != nil {
		return s.fail(f, opErr)
	}
	return s.succeed(f, txHash)
}

func (s *transactionServiceImpl) runSupply(f *opFlow, account string, asset entity.AssetConfig, raw *big.Int) (string, *entity.OperationError) {
	if asset.IsNative {
		f.transition(entity.StatusSubmitting, labelSupplying)
		txHash, err := s.gateway.SupplyNative(f.ctx, account, raw)
		if err != nil {
			return "", entity.NewOperationError(entity.ErrTransactionFailed, "supply failed: %v", err)
		}
		return txHash, nil
	}

	// The pool pulls ERC20 deposits with transferFrom, so non-native supply
	// needs the same allowance sub-protocol as repay.
	if opErr := s.ensureAllowance(f, account, asset.Address, s.gateway.PoolAddress(), raw); opErr != nil {
		return "", opErr
	}
	f.transition(entity.StatusSubmitting, labelSupplying)
	txHash, err := s.gateway.Supply(f.ctx, account, asset.Address, raw)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrTransactionFailed, "supply failed: %v", err)
	}
	return txHash, nil
}

func (s *transactionServiceImpl) runBorrow(f *opFlow, account string, asset entity.AssetConfig, raw *big.Int) (string, *entity.OperationError) {
	f.transition(entity.StatusSubmitting, labelBorrowing)
	txHash, err := s.gateway.Borrow(f.ctx, account, asset.Address, raw)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrTransactionFailed, "borrow failed: %v", err)
	}
	return txHash, nil
}

func (s *transactionServiceImpl) runWithdraw(f *opFlow, account string, asset entity.AssetConfig, raw *big.Int) (string, *entity.OperationError) {
	f.transition(entity.StatusCheckingBalance, labelCheckingBalance)
	supplied, err := s.chain.GetTokenBalance(f.ctx, asset.SupplyTokenAddress, account)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrQueryFailed, "failed to check supplied balance: %v", err)
	}
	if supplied.Cmp(raw) < 0 {
		have, _ := utils.FormatBigInt(supplied, asset.Decimals)
		want, _ := utils.FormatBigInt(raw, asset.Decimals)
		return "", entity.NewOperationError(entity.ErrInsufficientSuppliedBalance,
			"supplied balance %s %s is less than requested %s", have, asset.Symbol, want)
	}

	if asset.IsNative {
		// The gateway burns aTokens on the account's behalf and needs an
		// allowance on the supply-tracking token first.
		if opErr := s.ensureAllowance(f, account, asset.SupplyTokenAddress, s.gateway.NativeGatewayAddress(), raw); opErr != nil {
			return "", opErr
		}
		f.transition(entity.StatusSubmitting, labelWithdrawing)
		txHash, err := s.gateway.WithdrawNative(f.ctx, account, raw)
		if err != nil {
			return "", entity.NewOperationError(entity.ErrTransactionFailed, "withdraw failed: %v", err)
		}
		return txHash, nil
	}

	f.transition(entity.StatusSubmitting, labelWithdrawing)
	txHash, err := s.gateway.Withdraw(f.ctx, account, asset.Address, raw)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrTransactionFailed, "withdraw failed: %v", err)
	}
	return txHash, nil
}

func (s *transactionServiceImpl) runRepay(f *opFlow, account string, asset entity.AssetConfig, raw *big.Int) (string, *entity.OperationError) {
	f.transition(entity.StatusCheckingBalance, labelCheckingBalance)
	balance, err := s.chain.GetTokenBalance(f.ctx, asset.Address, account)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrQueryFailed, "failed to check wallet balance: %v", err)
	}
	if balance.Cmp(raw) < 0 {
		have, _ := utils.FormatBigInt(balance, asset.Decimals)
		want, _ := utils.FormatBigInt(raw, asset.Decimals)
		return "", entity.NewOperationError(entity.ErrInsufficientWalletBalance,
			"wallet balance %s %s is less than requested %s", have, asset.Symbol, want)
	}

	if opErr := s.ensureAllowance(f, account, asset.Address, s.gateway.PoolAddress(), raw); opErr != nil {
		return "", opErr
	}

	f.transition(entity.StatusSubmitting, labelRepaying)
	txHash, err := s.gateway.Repay(f.ctx, account, asset.Address, raw)
	if err != nil {
		return "", entity.NewOperationError(entity.ErrTransactionFailed, "repay failed: %v", err)
	}
	return txHash, nil
}

// ensureAllowance runs the shared approval sub-protocol: skip when the
// existing allowance already covers the amount, otherwise approve exactly
// the required amount (never unlimited) and wait out the settle delay so the
// dependent call does not race the approval's propagation.
func (s *transactionServiceImpl) ensureAllowance(f *opFlow, account, tokenAddress, spender string, raw *big.Int) *entity.OperationError {
	allowance, err := s.chain.GetAllowance(f.ctx, tokenAddress, account, spender)
	if err != nil {
		return entity.NewOperationError(entity.ErrQueryFailed, "failed to check allowance: %v", err)
	}
	if allowance.Cmp(raw) >= 0 {
		s.logger.Debug("Existing allowance is sufficient, skipping approval",
			"token", tokenAddress, "spender", spender)
		return nil
	}

	f.transition(entity.StatusApproving, labelApproving)
	txHash, err := s.gateway.Approve(f.ctx, tokenAddress, spender, raw)
	if err != nil {
		return entity.NewOperationError(entity.ErrApprovalFailed, "approval failed: %v", err)
	}
	s.logger.Info("Approval submitted", "token", tokenAddress, "spender", spender, "tx_hash", txHash)

	if err := s.settle(f.ctx); err != nil {
		return entity.NewOperationError(entity.ErrApprovalFailed, "aborted while waiting for approval to settle: %v", err)
	}
	return nil
}

// settle waits out the configured post-approval delay, honoring cancellation.
func (s *transactionServiceImpl) settle(ctx context.Context) error {
	if s.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *transactionServiceImpl) lockFor(account string) *sync.Mutex {
	key := strings.ToLower(account)
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if m, ok := s.accountLocks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.accountLocks[key] = m
	return m
}

func (s *transactionServiceImpl) fail(f *opFlow, opErr *entity.OperationError) entity.TransactionState {
	f.state.Status = entity.StatusFailed
	f.state.StepLabel = ""
	f.state.Err = opErr
	f.state.TxHash = ""
	f.state.IsLoading = false
	f.emit()
	metrics.CountOperation(string(f.state.Operation), string(opErr.Code))
	s.logger.Warn("Operation failed", "operation", f.state.Operation, "code", opErr.Code, "message", opErr.Message)
	return f.state
}

func (s *transactionServiceImpl) succeed(f *opFlow, txHash string) entity.TransactionState {
	f.state.Status = entity.StatusSucceeded
	f.state.StepLabel = ""
	f.state.TxHash = txHash
	f.state.Err = nil
	f.state.IsLoading = false
	f.emit()
	metrics.CountOperation(string(f.state.Operation), "succeeded")
	s.logger.Info("Operation succeeded", "operation", f.state.Operation, "tx_hash", txHash)
	return f.state
}
