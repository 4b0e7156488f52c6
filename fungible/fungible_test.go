package fungible_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/host/hosttest"
	"github.com/nspcc-dev/ft-contract/internal/testcontracts/ftrecv"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/stretchr/testify/require"
)

const (
	tokenID    = "token.test"
	receiverID = "receiver.test"
)

var (
	one          = u128.From(1)
	totalSupply  = u128.MustParse("1000000000000000")
	testMetadata = fungible.Metadata{
		Spec:     fungible.MetadataSpec,
		Name:     "Example Token",
		Symbol:   "EXT",
		Decimals: 24,
	}
)

func newTokenInvoker(t *testing.T) *hosttest.ContractInvoker {
	e := hosttest.NewExecutor(t)
	owner := e.NewAccount(t)
	e.DeployContract(t, tokenID, fungible.Contract{}, hosttest.Native(10))
	e.DeployContract(t, receiverID, ftrecv.Contract{}, hosttest.Native(10))

	c := e.Invoker(tokenID, owner)
	c.Invoke(t, nil, fungible.MethodNew, fungible.NewArgs{
		Owner:       owner,
		TotalSupply: totalSupply,
		Metadata:    testMetadata,
	})
	return c
}

func register(t *testing.T, c *hosttest.ContractInvoker, account string) {
	c.WithSigners(account).WithDeposit(fungible.Bond).Invoke(t, nil, fungible.MethodStorageDeposit, nil)
}

func balanceOf(t *testing.T, c *hosttest.ContractInvoker, account string) u128.Int {
	var b u128.Int
	c.View(t, &b, fungible.MethodBalanceOf, fungible.AccountArgs{Account: account})
	return b
}

func sum(t *testing.T, c *hosttest.ContractInvoker, accounts ...string) u128.Int {
	s := u128.Zero()
	for _, a := range accounts {
		var err error
		s, err = s.Add(balanceOf(t, c, a))
		require.NoError(t, err)
	}
	return s
}

func events(o *host.Outcome, name string) []fungible.Event {
	var res []fungible.Event
	for _, l := range o.Logs() {
		if ev, ok := fungible.ParseEvent(l); ok && ev.Event == name {
			res = append(res, ev)
		}
	}
	return res
}

func transfer(t *testing.T, c *hosttest.ContractInvoker, from, to string, amount u128.Int) {
	c.WithSigners(from).WithDeposit(one).Invoke(t, nil, fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: to, Amount: amount})
}

func TestInitialize(t *testing.T) {
	c := newTokenInvoker(t)

	var supply u128.Int
	c.View(t, &supply, fungible.MethodTotalSupply, nil)
	require.Equal(t, totalSupply, supply)
	require.Equal(t, totalSupply, balanceOf(t, c, c.Signer))

	var m fungible.Metadata
	c.View(t, &m, fungible.MethodMetadata, nil)
	require.Equal(t, testMetadata, m)

	var v int64
	c.View(t, &v, fungible.MethodVersion, nil)
	require.EqualValues(t, 1_000_000, v)

	c.InvokeFail(t, "already initialized", fungible.MethodNew, fungible.NewArgs{
		Owner:       c.Signer,
		TotalSupply: totalSupply,
		Metadata:    testMetadata,
	})

	t.Run("mint event", func(t *testing.T) {
		e := hosttest.NewExecutor(t)
		owner := e.NewAccount(t)
		e.DeployContract(t, tokenID, fungible.Contract{}, hosttest.Native(10))
		c := e.Invoker(tokenID, owner)

		c.ViewFail(t, "not initialized", fungible.MethodTotalSupply, nil)
		c.InvokeFail(t, "invalid metadata", fungible.MethodNew, fungible.NewArgs{
			Owner:       owner,
			TotalSupply: totalSupply,
			Metadata:    fungible.Metadata{Spec: "ft-2.0.0"},
		})

		o := c.Invoke(t, nil, fungible.MethodNew, fungible.NewArgs{
			Owner:       owner,
			TotalSupply: totalSupply,
			Metadata:    testMetadata,
		})
		evs := events(o, fungible.EventMint)
		require.Len(t, evs, 1)
		require.JSONEq(t, `[{"owner_id":"`+owner+`","amount":"1000000000000000","memo":"new tokens are minted"}]`,
			string(evs[0].Data))
	})
}

func TestTransfer(t *testing.T) {
	c := newTokenInvoker(t)
	owner := c.Signer
	acc := c.NewAccount(t)
	amount := u128.From(1000)

	args := fungible.TransferArgs{Receiver: acc, Amount: amount}
	c.InvokeFail(t, "requires attached deposit of exactly 1 unit", fungible.MethodTransfer, args)
	c.WithDeposit(one).InvokeFail(t, "not registered", fungible.MethodTransfer, args)

	register(t, c, acc)

	cOne := c.WithDeposit(one)
	cOne.InvokeFail(t, "should be different", fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: owner, Amount: amount})
	cOne.InvokeFail(t, "should be a positive number", fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: acc, Amount: u128.Zero()})
	cOne.InvokeFail(t, "invalid account id", fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: "Bad_ID", Amount: amount})
	cOne.WithSigners(acc).InvokeFail(t, "doesn't have enough balance", fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: owner, Amount: amount})

	memo := "for coffee"
	o := cOne.Invoke(t, nil, fungible.MethodTransfer,
		fungible.TransferArgs{Receiver: acc, Amount: amount, Memo: &memo})
	evs := events(o, fungible.EventTransfer)
	require.Len(t, evs, 1)
	require.JSONEq(t, `[{"old_owner_id":"`+owner+`","new_owner_id":"`+acc+`","amount":"1000","memo":"for coffee"}]`,
		string(evs[0].Data))

	require.Equal(t, amount, balanceOf(t, c, acc))
	require.Equal(t, totalSupply, sum(t, c, owner, acc))

	t.Run("whole balance", func(t *testing.T) {
		transfer(t, c, acc, owner, amount)
		require.True(t, balanceOf(t, c, acc).IsZero())
		require.Equal(t, totalSupply, balanceOf(t, c, owner))
	})
}

func TestTransferCall(t *testing.T) {
	amount := u128.From(100)

	testCases := []struct {
		name string
		msg  string
		kept u128.Int
	}{
		{"keep all", "", amount},
		{"refund all", "refund-all", u128.Zero()},
		{"partial refund", "refund:40", u128.From(60)},
		{"unused above amount", "refund:1000", u128.Zero()},
		{"malformed unused", "garbage", u128.Zero()},
		{"receiver failure", "fail", u128.Zero()},
		{"receiver panic", "panic", u128.Zero()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTokenInvoker(t)
			owner := c.Signer
			register(t, c, receiverID)

			o := c.WithDeposit(one).Invoke(t, tc.kept, fungible.MethodTransferCall, fungible.TransferCallArgs{
				Receiver: receiverID,
				Amount:   amount,
				Msg:      tc.msg,
			})
			require.Equal(t, tc.kept, balanceOf(t, c, receiverID))
			require.Equal(t, totalSupply, sum(t, c, owner, receiverID))

			refunded, err := amount.Sub(tc.kept)
			require.NoError(t, err)
			evs := events(o, fungible.EventTransfer)
			if refunded.IsZero() {
				require.Len(t, evs, 1)
				return
			}
			require.Len(t, evs, 2)
			require.JSONEq(t, `[{"old_owner_id":"`+receiverID+`","new_owner_id":"`+owner+`","amount":"`+refunded.String()+`","memo":"refund"}]`,
				string(evs[1].Data))
		})
	}

	t.Run("notification", func(t *testing.T) {
		c := newTokenInvoker(t)
		register(t, c, receiverID)
		c.WithDeposit(one).Invoke(t, amount, fungible.MethodTransferCall, fungible.TransferCallArgs{
			Receiver: receiverID,
			Amount:   amount,
			Msg:      "",
		})

		var call ftrecv.Call
		c.Invoker(receiverID, c.Signer).View(t, &call, "get", nil)
		require.Equal(t, ftrecv.Call{Token: tokenID, Sender: c.Signer, Amount: amount}, call)
	})

	t.Run("receiver spent tokens before resolve", func(t *testing.T) {
		c := newTokenInvoker(t)
		owner := c.Signer
		third := c.NewAccount(t)
		register(t, c, receiverID)
		register(t, c, third)

		c.WithDeposit(one).Invoke(t, u128.From(70), fungible.MethodTransferCall, fungible.TransferCallArgs{
			Receiver: receiverID,
			Amount:   amount,
			Msg:      "spend:" + third + ":70:100",
		})
		require.Equal(t, u128.From(70), balanceOf(t, c, third))
		require.True(t, balanceOf(t, c, receiverID).IsZero())
		require.Equal(t, totalSupply, sum(t, c, owner, receiverID, third))
	})

	t.Run("receiver without contract", func(t *testing.T) {
		c := newTokenInvoker(t)
		acc := c.NewAccount(t)
		register(t, c, acc)

		c.WithDeposit(one).Invoke(t, u128.Zero(), fungible.MethodTransferCall, fungible.TransferCallArgs{
			Receiver: acc,
			Amount:   amount,
		})
		require.True(t, balanceOf(t, c, acc).IsZero())
		require.Equal(t, totalSupply, balanceOf(t, c, c.Signer))
	})

	t.Run("insufficient gas", func(t *testing.T) {
		c := newTokenInvoker(t)
		register(t, c, receiverID)

		c.WithDeposit(one).WithGas(fungible.GasForFtTransferCall-1).InvokeFail(t, "more gas is required",
			fungible.MethodTransferCall, fungible.TransferCallArgs{Receiver: receiverID, Amount: amount})
		require.True(t, balanceOf(t, c, receiverID).IsZero())
	})

	t.Run("unregistered receiver", func(t *testing.T) {
		c := newTokenInvoker(t)
		c.WithDeposit(one).InvokeFail(t, "not registered", fungible.MethodTransferCall,
			fungible.TransferCallArgs{Receiver: receiverID, Amount: amount})
	})
}

func TestResolveTransferIsPrivate(t *testing.T) {
	c := newTokenInvoker(t)
	register(t, c, receiverID)

	c.InvokeFail(t, "method is private", fungible.MethodResolveTransfer, fungible.ResolveTransferArgs{
		Sender:   receiverID,
		Receiver: c.Signer,
		Amount:   totalSupply,
	})
	require.Equal(t, totalSupply, balanceOf(t, c, c.Signer))

	t.Run("called directly by the token", func(t *testing.T) {
		c.WithSigners(tokenID).InvokeFail(t, "expected 1 promise result", fungible.MethodResolveTransfer,
			fungible.ResolveTransferArgs{Sender: receiverID, Receiver: c.Signer, Amount: totalSupply})
		require.Equal(t, totalSupply, balanceOf(t, c, c.Signer))
	})
}

func TestResolveAfterReceiverUnregistered(t *testing.T) {
	c := newTokenInvoker(t)
	owner := c.Signer
	register(t, c, receiverID)
	amount := u128.From(100)

	txID := c.WithDeposit(one).Submit(t, fungible.MethodTransferCall, fungible.TransferCallArgs{
		Receiver: receiverID,
		Amount:   amount,
		Msg:      "refund-all",
	})
	require.True(t, c.Chain.Step()) // ft_transfer_call

	force := true
	unregister := c.WithSigners(receiverID).WithDeposit(one)
	unregID := unregister.Submit(t, fungible.MethodStorageUnregister, fungible.StorageUnregisterArgs{Force: &force})
	require.NoError(t, c.Chain.Run())

	o, err := c.Chain.Outcome(unregID)
	require.NoError(t, err)
	require.Equal(t, host.StatusSuccess, o.Status)
	require.Len(t, events(o, fungible.EventBurn), 1)

	o, err = c.Chain.Outcome(txID)
	require.NoError(t, err)
	require.Equal(t, host.StatusSuccess, o.Status)
	require.JSONEq(t, `"100"`, string(o.Value))

	want, err := totalSupply.Sub(amount)
	require.NoError(t, err)
	require.Equal(t, want, balanceOf(t, c, owner))

	var supply u128.Int
	c.View(t, &supply, fungible.MethodTotalSupply, nil)
	require.Equal(t, totalSupply, supply)
}

func TestResolveAfterSenderUnregistered(t *testing.T) {
	c := newTokenInvoker(t)
	sender := c.NewAccount(t)
	register(t, c, sender)
	register(t, c, receiverID)
	amount := u128.From(100)
	transfer(t, c, c.Signer, sender, amount)

	txID := c.WithSigners(sender).WithDeposit(one).Submit(t, fungible.MethodTransferCall, fungible.TransferCallArgs{
		Receiver: receiverID,
		Amount:   amount,
		Msg:      "refund-all",
	})
	require.True(t, c.Chain.Step())
	c.WithSigners(sender).WithDeposit(one).Submit(t, fungible.MethodStorageUnregister, nil)
	require.NoError(t, c.Chain.Run())

	o, err := c.Chain.Outcome(txID)
	require.NoError(t, err)
	require.JSONEq(t, `"100"`, string(o.Value))
	require.Equal(t, amount, balanceOf(t, c, receiverID))
	require.True(t, balanceOf(t, c, sender).IsZero())
	require.Equal(t, totalSupply, sum(t, c, c.Signer, receiverID))
}

func TestStorageDeposit(t *testing.T) {
	c := newTokenInvoker(t)
	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	var bounds fungible.StorageBalanceBounds
	c.View(t, &bounds, fungible.MethodStorageBalanceBounds, nil)
	require.Equal(t, fungible.Bond, bounds.Min)
	require.Nil(t, bounds.Max)

	var sb *fungible.StorageBalance
	c.View(t, &sb, fungible.MethodStorageBalanceOf, fungible.AccountArgs{Account: acc})
	require.Nil(t, sb)

	less, err := fungible.Bond.Sub(one)
	require.NoError(t, err)
	cAcc.WithDeposit(less).InvokeFail(t, "less than the minimum storage balance", fungible.MethodStorageDeposit, nil)

	twice, err := fungible.Bond.Mul(u128.From(2))
	require.NoError(t, err)

	before := c.Balance(t, acc)
	cAcc.WithDeposit(twice).Invoke(t, fungible.StorageBalance{Total: fungible.Bond, Available: u128.Zero()},
		fungible.MethodStorageDeposit, nil)
	after, err := before.Sub(fungible.Bond)
	require.NoError(t, err)
	require.Equal(t, after, c.Balance(t, acc), "excess is refunded")

	t.Run("already registered", func(t *testing.T) {
		before := c.Balance(t, acc)
		cAcc.WithDeposit(twice).Invoke(t, fungible.StorageBalance{Total: fungible.Bond, Available: u128.Zero()},
			fungible.MethodStorageDeposit, nil)
		require.Equal(t, before, c.Balance(t, acc))

		no := false
		cAcc.WithDeposit(twice).InvokeFail(t, "already registered", fungible.MethodStorageDeposit,
			fungible.StorageDepositArgs{RegistrationOnly: &no})
	})

	t.Run("for another account", func(t *testing.T) {
		other := c.NewAccount(t)
		cAcc.WithDeposit(fungible.Bond).Invoke(t, nil, fungible.MethodStorageDeposit,
			fungible.StorageDepositArgs{Account: &other})
		c.View(t, &sb, fungible.MethodStorageBalanceOf, fungible.AccountArgs{Account: other})
		require.NotNil(t, sb)
		require.Equal(t, fungible.Bond, sb.Total)
	})
}

func TestStorageWithdraw(t *testing.T) {
	c := newTokenInvoker(t)
	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc)

	cAcc.WithDeposit(one).InvokeFail(t, "not registered", fungible.MethodStorageWithdraw, nil)

	twice, err := fungible.Bond.Mul(u128.From(2))
	require.NoError(t, err)
	no := false
	cAcc.WithDeposit(twice).Invoke(t, fungible.StorageBalance{Total: twice, Available: fungible.Bond},
		fungible.MethodStorageDeposit, fungible.StorageDepositArgs{RegistrationOnly: &no})

	cAcc.InvokeFail(t, "exactly 1 unit", fungible.MethodStorageWithdraw, nil)

	tooMuch, err := fungible.Bond.Add(one)
	require.NoError(t, err)
	cAcc.WithDeposit(one).InvokeFail(t, "greater than the available storage balance", fungible.MethodStorageWithdraw,
		fungible.StorageWithdrawArgs{Amount: &tooMuch})

	before := c.Balance(t, acc)
	cAcc.WithDeposit(one).Invoke(t, fungible.StorageBalance{Total: fungible.Bond, Available: u128.Zero()},
		fungible.MethodStorageWithdraw, nil)
	after, err := before.Add(fungible.Bond)
	require.NoError(t, err)
	after, err = after.Sub(one)
	require.NoError(t, err)
	require.Equal(t, after, c.Balance(t, acc))
}

func TestStorageUnregister(t *testing.T) {
	c := newTokenInvoker(t)
	owner := c.Signer
	acc := c.NewAccount(t)
	cAcc := c.WithSigners(acc).WithDeposit(one)

	cAcc.Invoke(t, false, fungible.MethodStorageUnregister, nil)
	cAcc.WithDeposit(u128.Zero()).InvokeFail(t, "exactly 1 unit", fungible.MethodStorageUnregister, nil)

	register(t, c, acc)
	transfer(t, c, owner, acc, u128.From(500))

	cAcc.InvokeFail(t, "positive balance without force", fungible.MethodStorageUnregister, nil)

	force := true
	before := c.Balance(t, acc)
	o := cAcc.Invoke(t, true, fungible.MethodStorageUnregister, fungible.StorageUnregisterArgs{Force: &force})
	evs := events(o, fungible.EventBurn)
	require.Len(t, evs, 1)
	require.JSONEq(t, `[{"owner_id":"`+acc+`","amount":"500"}]`, string(evs[0].Data))

	after, err := before.Add(fungible.Bond)
	require.NoError(t, err)
	after, err = after.Sub(one)
	require.NoError(t, err)
	require.Equal(t, after, c.Balance(t, acc))

	var sb *fungible.StorageBalance
	c.View(t, &sb, fungible.MethodStorageBalanceOf, fungible.AccountArgs{Account: acc})
	require.Nil(t, sb)
	require.True(t, balanceOf(t, c, acc).IsZero())

	var supply u128.Int
	c.View(t, &supply, fungible.MethodTotalSupply, nil)
	require.Equal(t, totalSupply, supply)

	t.Run("zero balance", func(t *testing.T) {
		other := c.NewAccount(t)
		register(t, c, other)
		c.WithSigners(other).WithDeposit(one).Invoke(t, true, fungible.MethodStorageUnregister, nil)
	})
}

func TestMetadataUpdate(t *testing.T) {
	c := newTokenInvoker(t)
	acc := c.NewAccount(t)

	m := testMetadata
	m.Name = "Renamed Token"

	args := fungible.UpdateMetadataArgs{Metadata: m}
	c.InvokeFail(t, "exactly 1 unit", fungible.MethodUpdateMetadata, args)
	c.WithSigners(acc).WithDeposit(one).InvokeFail(t, "owner witness check failed", fungible.MethodUpdateMetadata, args)

	bad := m
	bad.Decimals = 8
	c.WithDeposit(one).InvokeFail(t, "can't change decimals", fungible.MethodUpdateMetadata,
		fungible.UpdateMetadataArgs{Metadata: bad})

	ref := "https://example.com/meta.json"
	bad = m
	bad.Reference = &ref
	c.WithDeposit(one).InvokeFail(t, "must be set together", fungible.MethodUpdateMetadata,
		fungible.UpdateMetadataArgs{Metadata: bad})

	c.WithDeposit(one).Invoke(t, nil, fungible.MethodUpdateMetadata, args)
	var got fungible.Metadata
	c.View(t, &got, fungible.MethodMetadata, nil)
	require.Equal(t, m, got)

	t.Run("owner", func(t *testing.T) {
		c.WithSigners(acc).WithDeposit(one).InvokeFail(t, "owner witness check failed", fungible.MethodUpdateOwner,
			fungible.UpdateOwnerArgs{NewOwner: acc})
		c.WithDeposit(one).Invoke(t, true, fungible.MethodUpdateOwner, fungible.UpdateOwnerArgs{NewOwner: acc})
		c.WithDeposit(one).InvokeFail(t, "owner witness check failed", fungible.MethodUpdateMetadata, args)
		c.WithSigners(acc).WithDeposit(one).Invoke(t, nil, fungible.MethodUpdateMetadata, args)
	})
}

func TestUnknownMethod(t *testing.T) {
	c := newTokenInvoker(t)
	c.InvokeFail(t, "unknown method", "ft_mint", nil)
	c.WithDeposit(one).InvokeFail(t, "invalid arguments", fungible.MethodTransfer, []byte(`{"amount":1}`))
}

func TestTransferCallPartialRefund(t *testing.T) {
	c := newTokenInvoker(t)
	owner := c.Signer
	sender := c.NewAccount(t)
	register(t, c, sender)
	register(t, c, receiverID)
	transfer(t, c, owner, sender, u128.From(100))

	c.WithSigners(sender).WithDeposit(one).Invoke(t, u128.From(30), fungible.MethodTransferCall,
		fungible.TransferCallArgs{Receiver: receiverID, Amount: u128.From(50), Msg: "refund:20"})

	ownerBalance, err := totalSupply.Sub(u128.From(100))
	require.NoError(t, err)
	require.Equal(t, ownerBalance, balanceOf(t, c, owner))
	require.Equal(t, u128.From(70), balanceOf(t, c, sender))
	require.Equal(t, u128.From(30), balanceOf(t, c, receiverID))
}

func TestSupplyConservedOverCallSequence(t *testing.T) {
	c := newTokenInvoker(t)
	owner := c.Signer
	accounts := []string{owner, c.NewAccount(t), c.NewAccount(t), c.NewAccount(t)}
	register(t, c, accounts[1])
	register(t, c, accounts[2])
	register(t, c, receiverID)
	holders := append([]string{receiverID}, accounts...)

	rnd := rand.New(rand.NewSource(42))
	pick := func() string { return accounts[rnd.Intn(len(accounts))] }
	msgs := []string{"", "refund-all", "refund:7", "refund:1000", "garbage", "fail", "panic"}

	var succeeded int
	for i := 0; i < 200; i++ {
		var (
			o    *host.Outcome
			desc string
		)
		from := pick()
		amount := u128.From(uint64(rnd.Intn(200)))
		switch rnd.Intn(5) {
		case 0, 1:
			to := pick()
			desc = fmt.Sprintf("transfer %s -> %s %s", from, to, amount)
			o = c.WithSigners(from).WithDeposit(one).Execute(t, fungible.MethodTransfer,
				fungible.TransferArgs{Receiver: to, Amount: amount})
		case 2:
			msg := msgs[rnd.Intn(len(msgs))]
			if rnd.Intn(4) == 0 {
				msg = fmt.Sprintf("spend:%s:%d:%d", pick(), rnd.Intn(50), rnd.Intn(50))
			}
			desc = fmt.Sprintf("transfer call %s %s %q", from, amount, msg)
			o = c.WithSigners(from).WithDeposit(one).Execute(t, fungible.MethodTransferCall,
				fungible.TransferCallArgs{Receiver: receiverID, Amount: amount, Msg: msg})
		case 3:
			desc = "storage deposit " + from
			o = c.WithSigners(from).WithDeposit(fungible.Bond).Execute(t, fungible.MethodStorageDeposit, nil)
		case 4:
			desc = "storage unregister " + from
			o = c.WithSigners(from).WithDeposit(one).Execute(t, fungible.MethodStorageUnregister, nil)
		}
		if o.Status == host.StatusSuccess {
			succeeded++
		}

		require.Equal(t, totalSupply, sum(t, c, holders...), "step %d: %s", i, desc)
		var supply u128.Int
		c.View(t, &supply, fungible.MethodTotalSupply, nil)
		require.Equal(t, totalSupply, supply, "step %d: %s", i, desc)
	}
	require.Positive(t, succeeded)
}
