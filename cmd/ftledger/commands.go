package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nspcc-dev/ft-contract/config"
	"github.com/nspcc-dev/ft-contract/deploy"
	"github.com/nspcc-dev/ft-contract/dump"
	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	rpcfungible "github.com/nspcc-dev/ft-contract/rpc/fungible"
	"github.com/nspcc-dev/ft-contract/u128"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var (
	fromFlag   = cli.StringFlag{Name: "from", Usage: "signer account"}
	toFlag     = cli.StringFlag{Name: "to", Usage: "receiver account"}
	amountFlag = cli.StringFlag{Name: "amount", Usage: "token amount"}
)

type node struct {
	log     *zap.Logger
	chain   *host.Chain
	metrics *prometheus.Registry
	token   string
}

func (n *node) close() error {
	n.logMetrics()
	err := n.chain.Close()
	_ = n.log.Sync()
	return err
}

func (n *node) logMetrics() {
	families, err := n.metrics.Gather()
	if err != nil {
		n.log.Debug("failed to gather metrics", zap.Error(err))
		return
	}
	for _, f := range families {
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		n.log.Debug("session metric", zap.String("name", f.GetName()), zap.Float64("value", total))
	}
}

func (n *node) contract(signer string) *rpcfungible.Contract {
	return rpcfungible.New(n.chain, n.token, signer)
}

func (n *node) reader() *rpcfungible.ContractReader {
	return rpcfungible.NewReader(n.chain, n.token)
}

// openNode opens the chain described by configuration and makes sure the
// token is deployed.
func openNode(ctx *cli.Context) (*node, error) {
	cfg := config.Default()
	if p := ctx.GlobalString("config"); p != "" {
		var err error
		if cfg, err = config.Load(p); err != nil {
			return nil, err
		}
	}

	log, err := cfg.Logger.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	prm, err := cfg.Token.DeployPrm()
	if err != nil {
		return nil, err
	}

	st, err := storage.NewStore(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	reg := prometheus.NewRegistry()
	chain := host.NewChain(st, log, host.WithMetrics(reg))

	err = deploy.Deploy(context.Background(), deploy.Prm{
		Logger:     log,
		Blockchain: chain,
		Token:      prm,
	})
	if err != nil {
		_ = chain.Close()
		return nil, fmt.Errorf("deploy token: %w", err)
	}
	return &node{log: log, chain: chain, metrics: reg, token: prm.Common.Account}, nil
}

func withNode(ctx *cli.Context, f func(*node) error) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	err = f(n)
	if cErr := n.close(); cErr != nil && err == nil {
		err = fmt.Errorf("close chain: %w", cErr)
	}
	return err
}

func printJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(data))
	return err
}

func parseAmount(ctx *cli.Context, name string) (*u128.Int, error) {
	s := ctx.String(name)
	if s == "" {
		return nil, nil
	}
	v, err := u128.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &v, nil
}

func requireFlags(ctx *cli.Context, names ...string) error {
	for _, n := range names {
		if ctx.String(n) == "" {
			return fmt.Errorf("missing --%s", n)
		}
	}
	return nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type txResult struct {
	TxID   string          `json:"tx"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Logs   []string        `json:"logs,omitempty"`
}

func execute(ctx *cli.Context, n *node, signer string, makeTx func(*rpcfungible.Contract) (host.Transaction, error)) error {
	c := n.contract(signer)
	tx, err := makeTx(c)
	if err != nil {
		return err
	}
	o, err := n.chain.Execute(tx)
	if err != nil {
		return err
	}
	res := txResult{
		TxID:   o.TxID,
		Status: o.Status.String(),
		Result: o.Value,
		Logs:   o.Logs(),
	}
	if o.Err != nil {
		res.Error = o.Err.Error()
	}
	if err := printJSON(ctx, res); err != nil {
		return err
	}
	if o.Status != host.StatusSuccess {
		return errors.New("transaction failed")
	}
	return nil
}

func createAccount(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("expected <account> <balance>")
	}
	b, err := u128.Parse(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		return n.chain.CreateAccount(ctx.Args().Get(0), b)
	})
}

func balance(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected <account>")
	}
	account := ctx.Args().First()
	return withNode(ctx, func(n *node) error {
		tokens, err := n.reader().BalanceOf(account)
		if err != nil {
			return err
		}
		sb, err := n.reader().StorageBalanceOf(account)
		if err != nil {
			return err
		}
		native, err := n.chain.Balance(account)
		if err != nil && !errors.Is(err, host.ErrUnknownAccount) {
			return err
		}
		return printJSON(ctx, struct {
			Account string                   `json:"account_id"`
			Balance u128.Int                 `json:"balance"`
			Storage *fungible.StorageBalance `json:"storage"`
			Native  u128.Int                 `json:"native"`
		}{account, tokens, sb, native})
	})
}

func info(ctx *cli.Context) error {
	return withNode(ctx, func(n *node) error {
		r := n.reader()
		supply, err := r.TotalSupply()
		if err != nil {
			return err
		}
		m, err := r.Metadata()
		if err != nil {
			return err
		}
		bounds, err := r.StorageBalanceBounds()
		if err != nil {
			return err
		}
		v, err := r.Version()
		if err != nil {
			return err
		}
		return printJSON(ctx, struct {
			Contract    string                        `json:"contract"`
			Version     int64                         `json:"version"`
			TotalSupply u128.Int                      `json:"total_supply"`
			Metadata    fungible.Metadata             `json:"metadata"`
			Bounds      fungible.StorageBalanceBounds `json:"storage_balance_bounds"`
		}{n.token, v, supply, m, bounds})
	})
}

func transfer(ctx *cli.Context) error {
	if err := requireFlags(ctx, "from", "to", "amount"); err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		return execute(ctx, n, ctx.String("from"), func(c *rpcfungible.Contract) (host.Transaction, error) {
			return c.TransferTransaction(ctx.String("to"), *amount, optString(ctx.String("memo")))
		})
	})
}

func transferCall(ctx *cli.Context) error {
	if err := requireFlags(ctx, "from", "to", "amount"); err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}
	gas := host.Gas(ctx.Uint64("gas")) * host.TGas
	return withNode(ctx, func(n *node) error {
		return execute(ctx, n, ctx.String("from"), func(c *rpcfungible.Contract) (host.Transaction, error) {
			return c.TransferCallTransaction(ctx.String("to"), *amount, optString(ctx.String("memo")), ctx.String("msg"), gas)
		})
	})
}

func storageDeposit(ctx *cli.Context) error {
	if err := requireFlags(ctx, "from"); err != nil {
		return err
	}
	deposit, err := parseAmount(ctx, "deposit")
	if err != nil {
		return err
	}
	if deposit == nil {
		deposit = &fungible.Bond
	}
	var registrationOnly *bool
	if ctx.Bool("keep-excess") {
		no := false
		registrationOnly = &no
	}
	return withNode(ctx, func(n *node) error {
		return execute(ctx, n, ctx.String("from"), func(c *rpcfungible.Contract) (host.Transaction, error) {
			return c.StorageDepositTransaction(optString(ctx.String("account")), registrationOnly, *deposit)
		})
	})
}

func storageWithdraw(ctx *cli.Context) error {
	if err := requireFlags(ctx, "from"); err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		return execute(ctx, n, ctx.String("from"), func(c *rpcfungible.Contract) (host.Transaction, error) {
			return c.StorageWithdrawTransaction(amount)
		})
	})
}

func storageUnregister(ctx *cli.Context) error {
	if err := requireFlags(ctx, "from"); err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		return execute(ctx, n, ctx.String("from"), func(c *rpcfungible.Contract) (host.Transaction, error) {
			return c.StorageUnregisterTransaction(ctx.Bool("force"))
		})
	})
}

func dumpState(ctx *cli.Context) error {
	dir := ctx.String("out")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return withNode(ctx, func(n *node) error {
		if err := n.chain.Persist(); err != nil {
			return err
		}
		d, err := dump.NewCreator(dir, dump.ID{
			Label:     ctx.String("label"),
			Timestamp: uint64(time.Now().Unix()),
		})
		if err != nil {
			return fmt.Errorf("init dumper: %w", err)
		}
		defer d.Close()

		if err := d.AddFromChain(n.chain, n.token); err != nil {
			return err
		}
		if err := d.Flush(); err != nil {
			return fmt.Errorf("flush dump: %w", err)
		}
		n.log.Info("token contract is successfully dumped", zap.String("dir", dir))
		return nil
	})
}
