package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/ft-contract/dump"
	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/stretchr/testify/require"
)

type cliRunner struct {
	t   *testing.T
	cfg string
}

func newCLIRunner(t *testing.T) *cliRunner {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	data := `
Logger:
  Level: error
DB:
  Type: boltdb
  BoltDBOptions:
    FilePath: ` + filepath.Join(dir, "chain.bolt") + `
Token:
  TotalSupply: "1000"
`
	require.NoError(t, os.WriteFile(cfg, []byte(data), 0600))
	return &cliRunner{t: t, cfg: cfg}
}

func (r *cliRunner) run(args ...string) ([]byte, error) {
	app := newApp()
	buf := bytes.NewBuffer(nil)
	app.Writer = buf
	app.ErrWriter = buf
	err := app.Run(append([]string{"ftledger", "--config", r.cfg}, args...))
	return buf.Bytes(), err
}

func (r *cliRunner) mustRun(args ...string) []byte {
	out, err := r.run(args...)
	require.NoError(r.t, err, string(out))
	return out
}

type balanceOutput struct {
	Balance string `json:"balance"`
	Storage *struct {
		Total string `json:"total"`
	} `json:"storage"`
}

func (r *cliRunner) balance(account string) balanceOutput {
	var b balanceOutput
	require.NoError(r.t, json.Unmarshal(r.mustRun("balance", account), &b))
	return b
}

func TestLedgerCLI(t *testing.T) {
	r := newCLIRunner(t)

	var inf struct {
		Contract    string `json:"contract"`
		TotalSupply string `json:"total_supply"`
		Metadata    struct {
			Spec string `json:"spec"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(r.mustRun("info"), &inf))
	require.Equal(t, "token.ledger", inf.Contract)
	require.Equal(t, "1000", inf.TotalSupply)
	require.Equal(t, fungible.MetadataSpec, inf.Metadata.Spec)

	require.Equal(t, "1000", r.balance("owner.ledger").Balance)

	r.mustRun("create-account", "alice.ledger", host.OneNative.String())

	out, err := r.run("transfer", "--from", "owner.ledger", "--to", "alice.ledger", "--amount", "10")
	require.Error(t, err, "alice is not registered")
	require.Contains(t, string(out), "failure")

	r.mustRun("storage-deposit", "--from", "alice.ledger")
	b := r.balance("alice.ledger")
	require.NotNil(t, b.Storage)
	require.Equal(t, fungible.Bond.String(), b.Storage.Total)

	r.mustRun("transfer", "--from", "owner.ledger", "--to", "alice.ledger", "--amount", "10", "--memo", "hello")
	require.Equal(t, "10", r.balance("alice.ledger").Balance)
	require.Equal(t, "990", r.balance("owner.ledger").Balance)

	t.Run("transfer call to plain account", func(t *testing.T) {
		var res txResult
		out := r.mustRun("transfer-call", "--from", "alice.ledger", "--to", "owner.ledger", "--amount", "4", "--gas", "100")
		require.NoError(t, json.Unmarshal(out, &res))
		require.Equal(t, `"0"`, string(res.Result), "receiver call fails, everything is refunded")
		require.Equal(t, "10", r.balance("alice.ledger").Balance)
	})

	t.Run("unregister", func(t *testing.T) {
		_, err := r.run("storage-unregister", "--from", "alice.ledger")
		require.Error(t, err, "positive balance")

		r.mustRun("storage-unregister", "--from", "alice.ledger", "--force")
		b := r.balance("alice.ledger")
		require.Nil(t, b.Storage)
		require.Equal(t, "0", b.Balance)
	})

	t.Run("dump", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "dumps")
		r.mustRun("dump", "--out", dir, "--label", "test")

		var found bool
		require.NoError(t, dump.IterateDumps(dir, func(id dump.ID, rd *dump.Reader) {
			require.Equal(t, "test", id.Label)
			rd.IterateContractStates(func(name string, st host.AccountState) {
				require.Equal(t, "token.ledger", name)
				require.True(t, st.HasContract)
				found = true
			})
		}))
		require.True(t, found)
	})
}

func TestLedgerCLIArgs(t *testing.T) {
	r := newCLIRunner(t)

	_, err := r.run("balance")
	require.Error(t, err)
	_, err = r.run("transfer", "--from", "owner.ledger")
	require.Error(t, err)
	_, err = r.run("transfer", "--from", "owner.ledger", "--to", "a.ledger", "--amount", "-1")
	require.Error(t, err)
	_, err = r.run("create-account", "Bad!", "1")
	require.Error(t, err)
}
