package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"lending_dashboard/internal/app/port"
	"lending_dashboard/internal/domain/entity"

	"github.com/stretchr/testify/require"
)

func newTestTransactionService(t *testing.T, chain *fakeChain, gateway *fakeGateway) port.TransactionService {
	t.Helper()
	return NewTransactionService(testRegistry(t), chain, gateway, nopLogger{}, 0)
}

func statusTrace(steps []entity.TransactionState) []entity.TxStatus {
	out := make([]entity.TxStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}

func requireTerminal(t *testing.T, state entity.TransactionState) {
	t.Helper()
	require.True(t, state.Terminal())
	require.False(t, state.IsLoading)
	if state.Status == entity.StatusSucceeded {
		require.NotEmpty(t, state.TxHash)
		require.Nil(t, state.Err)
	} else {
		require.Empty(t, state.TxHash)
		require.NotNil(t, state.Err)
	}
}

func TestExecutePreFlightValidation(t *testing.T) {
	testCases := []struct {
		name     string
		req      entity.OperationRequest
		wantCode entity.ErrorCode
	}{
		{
			"unknown operation",
			entity.OperationRequest{Operation: "stake", Account: testAccount, Asset: "ETH", Amount: "1"},
			entity.ErrTransactionFailed,
		},
		{
			"no wallet connected",
			entity.OperationRequest{Operation: entity.OpSupply, Account: "", Asset: "ETH", Amount: "1"},
			entity.ErrWalletNotConnected,
		},
		{
			"unsupported asset",
			entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "DOGE", Amount: "1"},
			entity.ErrUnsupportedAsset,
		},
		{
			"malformed amount",
			entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "ETH", Amount: "abc"},
			entity.ErrInvalidAmount,
		},
		{
			"zero amount",
			entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "ETH", Amount: "0"},
			entity.ErrInvalidAmount,
		},
		{
			"negative amount",
			entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "ETH", Amount: "-1"},
			entity.ErrInvalidAmount,
		},
		{
			"over-precise amount",
			entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "USDC", Amount: "1.0000001"},
			entity.ErrInvalidAmount,
		},
		{
			"asset not borrowable",
			entity.OperationRequest{Operation: entity.OpBorrow, Account: testAccount, Asset: "WBTC", Amount: "0.1"},
			entity.ErrAssetNotBorrowable,
		},
		{
			"native repay unsupported",
			entity.OperationRequest{Operation: entity.OpRepay, Account: testAccount, Asset: "ETH", Amount: "1"},
			entity.ErrUnsupportedAsset,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := &fakeChain{}
			gateway := newFakeGateway()
			svc := newTestTransactionService(t, chain, gateway)

			state := svc.Execute(context.Background(), tc.req, nil)

			requireTerminal(t, state)
			require.Equal(t, entity.StatusFailed, state.Status)
			require.Equal(t, tc.wantCode, state.Err.Code)
			require.Empty(t, chain.calls, "pre-flight failures must not reach the network")
			require.Empty(t, gateway.calledOps())
		})
	}
}

func TestExecuteSupplyNative(t *testing.T) {
	chain := &fakeChain{}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	var steps []entity.TransactionState
	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpSupply, Account: testAccount, Asset: "ETH", Amount: "0.5",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, "0xhash_SupplyNative", state.TxHash)
	require.Equal(t, []string{"SupplyNative"}, gateway.calledOps())
	require.Zero(t, chain.callCount("GetAllowance"), "native supply needs no approval")
	require.Equal(t,
		[]entity.TxStatus{entity.StatusPreparing, entity.StatusSubmitting, entity.StatusSucceeded},
		statusTrace(steps))
}

func TestExecuteSupplyERC20ApprovesWhenAllowanceIsLow(t *testing.T) {
	chain := &fakeChain{
		allowanceFn: func(token, owner, spender string) (*big.Int, error) {
			return big.NewInt(0), nil
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	var steps []entity.TransactionState
	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpSupply, Account: testAccount, Asset: "USDC", Amount: "100",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Approve", "Supply"}, gateway.calledOps())
	require.Equal(t,
		[]entity.TxStatus{entity.StatusPreparing, entity.StatusApproving, entity.StatusSubmitting, entity.StatusSucceeded},
		statusTrace(steps))
}

func TestExecuteSupplyERC20SkipsApprovalWhenAllowanceCovers(t *testing.T) {
	chain := &fakeChain{
		allowanceFn: func(token, owner, spender string) (*big.Int, error) {
			return big.NewInt(100000000), nil // 100 USDC
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpSupply, Account: testAccount, Asset: "USDC", Amount: "100",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Supply"}, gateway.calledOps())
}

func TestExecuteBorrow(t *testing.T) {
	chain := &fakeChain{}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	var steps []entity.TransactionState
	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpBorrow, Account: testAccount, Asset: "USDC", Amount: "250",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Borrow"}, gateway.calledOps())
	require.Equal(t,
		[]entity.TxStatus{entity.StatusPreparing, entity.StatusSubmitting, entity.StatusSucceeded},
		statusTrace(steps))
}

func TestExecuteWithdrawRejectsOverdraw(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			require.True(t, strings.EqualFold(token, ethSupplyToken))
			return big.NewInt(500000000000000000), nil // 0.5 ETH supplied
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	var steps []entity.TransactionState
	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpWithdraw, Account: testAccount, Asset: "ETH", Amount: "1.0",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	requireTerminal(t, state)
	require.Equal(t, entity.StatusFailed, state.Status)
	require.Equal(t, entity.ErrInsufficientSuppliedBalance, state.Err.Code)
	require.Contains(t, state.Err.Message, "0.5")
	require.Empty(t, gateway.calledOps(), "nothing may be submitted after a failed balance check")
	require.Equal(t,
		[]entity.TxStatus{entity.StatusPreparing, entity.StatusCheckingBalance, entity.StatusFailed},
		statusTrace(steps))
}

func TestExecuteWithdrawNativeApprovesSupplyTokenForGateway(t *testing.T) {
	var allowanceSpender string
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return big.NewInt(2000000000000000000), nil // 2 ETH supplied
		},
		allowanceFn: func(token, owner, spender string) (*big.Int, error) {
			require.True(t, strings.EqualFold(token, ethSupplyToken))
			allowanceSpender = spender
			return big.NewInt(0), nil
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpWithdraw, Account: testAccount, Asset: "ETH", Amount: "1",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Approve", "WithdrawNative"}, gateway.calledOps())
	require.Equal(t, gateway.NativeGatewayAddress(), allowanceSpender)
}

func TestExecuteWithdrawERC20NeedsNoApproval(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return big.NewInt(500000000), nil // 500 USDC supplied
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpWithdraw, Account: testAccount, Asset: "USDC", Amount: "100",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Withdraw"}, gateway.calledOps())
	require.Zero(t, chain.callCount("GetAllowance"))
}

func TestExecuteRepaySkipsApprovalWhenAllowanceCovers(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return big.NewInt(200000000), nil // 200 USDC in wallet
		},
		allowanceFn: func(token, owner, spender string) (*big.Int, error) {
			return big.NewInt(100000000), nil // exactly the requested 100
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	var steps []entity.TransactionState
	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpRepay, Account: testAccount, Asset: "USDC", Amount: "100",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	requireTerminal(t, state)
	require.Equal(t, entity.StatusSucceeded, state.Status)
	require.Equal(t, []string{"Repay"}, gateway.calledOps())
	require.Equal(t,
		[]entity.TxStatus{entity.StatusPreparing, entity.StatusCheckingBalance, entity.StatusSubmitting, entity.StatusSucceeded},
		statusTrace(steps))
}

func TestExecuteRepayRejectsInsufficientWalletBalance(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return big.NewInt(50000000), nil // 50 USDC
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpRepay, Account: testAccount, Asset: "USDC", Amount: "100",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusFailed, state.Status)
	require.Equal(t, entity.ErrInsufficientWalletBalance, state.Err.Code)
	require.Empty(t, gateway.calledOps())
}

func TestExecuteApprovalFailureIsTerminal(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return big.NewInt(200000000), nil
		},
	}
	gateway := newFakeGateway()
	gateway.errs["Approve"] = fmt.Errorf("user rejected in wallet")
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpRepay, Account: testAccount, Asset: "USDC", Amount: "100",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusFailed, state.Status)
	require.Equal(t, entity.ErrApprovalFailed, state.Err.Code)
	require.Equal(t, []string{"Approve"}, gateway.calledOps(), "the dependent call must not run after a failed approval")
}

func TestExecuteSubmissionFailureIsTerminal(t *testing.T) {
	chain := &fakeChain{}
	gateway := newFakeGateway()
	gateway.errs["Borrow"] = fmt.Errorf("execution reverted")
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpBorrow, Account: testAccount, Asset: "USDC", Amount: "10",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.StatusFailed, state.Status)
	require.Equal(t, entity.ErrTransactionFailed, state.Err.Code)
}

func TestExecuteBalanceQueryFailure(t *testing.T) {
	chain := &fakeChain{
		tokenBalanceFn: func(token, _ string) (*big.Int, error) {
			return nil, fmt.Errorf("rpc timeout")
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	state := svc.Execute(context.Background(), entity.OperationRequest{
		Operation: entity.OpWithdraw, Account: testAccount, Asset: "USDC", Amount: "10",
	}, nil)

	requireTerminal(t, state)
	require.Equal(t, entity.ErrQueryFailed, state.Err.Code)
	require.Empty(t, gateway.calledOps())
}

func TestExecuteSuppressesEmissionsAfterCancellation(t *testing.T) {
	chain := &fakeChain{}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var steps []entity.TransactionState
	state := svc.Execute(ctx, entity.OperationRequest{
		Operation: entity.OpSupply, Account: testAccount, Asset: "ETH", Amount: "1",
	}, func(s entity.TransactionState) { steps = append(steps, s) })

	require.Empty(t, steps, "a cancelled invocation must not broadcast state")
	require.True(t, state.Terminal(), "the caller still receives the terminal state directly")
}

func TestExecuteSerializesOperationsPerAccount(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	chain := &fakeChain{
		allowanceFn: func(token, owner, spender string) (*big.Int, error) {
			entered <- struct{}{}
			<-release
			return big.NewInt(1000000000), nil
		},
	}
	gateway := newFakeGateway()
	svc := newTestTransactionService(t, chain, gateway)

	req := entity.OperationRequest{Operation: entity.OpSupply, Account: testAccount, Asset: "USDC", Amount: "1"}

	done := make(chan entity.TransactionState, 2)
	go func() { done <- svc.Execute(context.Background(), req, nil) }()
	<-entered

	// Second operation for the same account must block behind the first.
	go func() { done <- svc.Execute(context.Background(), req, nil) }()
	select {
	case <-entered:
		t.Fatal("second operation reached the network while the first held the account lock")
	default:
	}

	release <- struct{}{}
	first := <-done
	require.Equal(t, entity.StatusSucceeded, first.Status)

	<-entered
	release <- struct{}{}
	second := <-done
	require.Equal(t, entity.StatusSucceeded, second.Status)
}
