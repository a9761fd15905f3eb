package guest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polycash/blockvm/internal/host"
	"github.com/polycash/blockvm/internal/merkle"
	"github.com/polycash/blockvm/internal/vm"
)

const writer = `InitBfr e
InitBfr l
SetCnst l 0000000000000001 e
InitBfr d
GetFromState l d e
PrintStr d e
InitBfr v
SetCnst v 776f726c64 e
UpdateState l v e
InitBfr x
SetCnst x 0000000000000012 e
InitBfr y
SetCnst y 0102 e
UpdateStateExternal x y e
Exit 5`

const reader = `InitBfr e
InitBfr x
SetCnst x 18 e
InitBfr d
GetFromStateExternalSync x d e
Stdout d e
Exit 0`

func contract(source string) Contract {
	return Contract{Contents: source, Hash: vm.ContractHash(source), GasLimit: 1000, Sender: []byte("alice")}
}

func setup(initial map[string][]byte, sources ...string) (RunDetails, merkle.Tree) {
	tree := merkle.Merklize(initial)
	details := RunDetails{BlockchainLen: 10, MerkleRoot: tree.Root()}
	for _, source := range sources {
		details.Contracts = append(details.Contracts, contract(source))
	}
	return details, tree
}

func TestExecuteBatch(t *testing.T) {
	writerHash := vm.ContractHash(writer)
	details, tree := setup(map[string][]byte{writerHash + "1": []byte("hello")}, writer, reader)

	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)

	require.Len(t, journal.Results, 2)
	assert.Equal(t, int64(5), journal.Results[0].ExitCode)
	assert.Equal(t, int64(0), journal.Results[1].ExitCode)
	assert.Positive(t, journal.Results[0].GasUsed)

	assert.True(t, strings.HasPrefix(journal.Out, "hello\n"))
	assert.Contains(t, journal.Out, "State change: "+writerHash+"1|776f726c64\n")
	assert.Contains(t, journal.Out, "External state change: 18|0102\n")
	assert.True(t, strings.HasSuffix(journal.Out, "[1, 2]\n"), "later contracts see earlier flushes through the pending overlay")

	assert.Equal(t, details.MerkleRoot, journal.MerkleRoot)
	assert.Equal(t, merkle.TransitionRoot(map[string][]byte{
		writerHash + "1": []byte("world"),
		"18":             {1, 2},
	}), journal.StateTransitionRoot)

	require.NoError(t, Verify(journal, details))
}

func TestExecuteIsDeterministic(t *testing.T) {
	details, tree := setup(map[string][]byte{"x": []byte("1")}, writer, reader)
	first, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	second, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	assert.NoError(t, Compare(second, first))
}

func TestExecutePendingState(t *testing.T) {
	details, tree := setup(nil, reader)
	details.PendingState = StateEntries(map[string][]byte{"18": {7}})

	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	assert.Equal(t, "[7]\n", journal.Out)
	assert.Equal(t, "", details.MerkleRoot)
}

func TestExecuteInvoke(t *testing.T) {
	child := "InitBfr 00000001\nSetCnst 00000001 0000000000000009 00000000\nExit 1"
	parent := "Invoke 5\nExitBfr 00000001 00000000"
	details, tree := setup(map[string][]byte{host.ContractLocation(5): []byte(child)}, parent)

	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	assert.Equal(t, []ContractResult{{ExitCode: 9, GasUsed: int64(vm.InvokeCost + 2 + 2 + 1 + 1)}}, journal.Results)
}

func TestExecuteOracleUnavailable(t *testing.T) {
	source := "InitBfr e\nInitBfr t\nSetCnst t 0000000000000001 e\nInitBfr b\nQueryOracle t b e\nStdout e e"
	details, tree := setup(nil, source)

	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	assert.Equal(t, "[1]\n", journal.Out)
}

type tamperingOracle struct {
	merkle.Tree
}

func (o tamperingOracle) FetchNode(index uint64) (merkle.Node, error) {
	n, err := o.Tree.FetchNode(index)
	if err == nil && len(n.Value) > 0 {
		n.Value = []byte("forged")
	}
	return n, err
}

func TestExecuteRejectsUntrustedData(t *testing.T) {
	writerHash := vm.ContractHash(writer)
	initial := map[string][]byte{writerHash + "1": []byte("hello")}

	t.Run("tampered leaf", func(t *testing.T) {
		details, tree := setup(initial, writer)
		_, err := Execute(context.Background(), details, tamperingOracle{tree})
		var fatal *vm.FatalError
		assert.ErrorAs(t, err, &fatal)
	})

	t.Run("wrong root", func(t *testing.T) {
		details, tree := setup(initial, "Exit 0")
		details.MerkleRoot = "00"
		_, err := Execute(context.Background(), details, tree)
		assert.ErrorIs(t, err, merkle.ErrHashMismatch)
	})

	t.Run("wrong contract hash", func(t *testing.T) {
		details, tree := setup(initial, "Exit 0")
		details.Contracts[0].Hash = vm.ContractHash("Exit 1")
		_, err := Execute(context.Background(), details, tree)
		assert.ErrorIs(t, err, ErrContractHashMismatch)
	})
}

func TestInputHash(t *testing.T) {
	details, _ := setup(map[string][]byte{"a": {1}}, "Exit 0")
	h, err := InputHash(details)
	require.NoError(t, err)
	assert.Len(t, h, 64)

	again, err := InputHash(details)
	require.NoError(t, err)
	assert.Equal(t, h, again)

	details.Contracts[0].GasLimit++
	changed, err := InputHash(details)
	require.NoError(t, err)
	assert.NotEqual(t, h, changed)
}

func TestVerify(t *testing.T) {
	details, tree := setup(map[string][]byte{"a": {1}}, reader)
	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)
	require.NoError(t, Verify(journal, details))

	tests := []struct {
		name   string
		tamper func(*Journal, *RunDetails)
	}{
		{name: "input", tamper: func(_ *Journal, d *RunDetails) { d.BlockchainLen++ }},
		{name: "merkle root", tamper: func(j *Journal, _ *RunDetails) { j.MerkleRoot = "ff" }},
		{name: "results", tamper: func(j *Journal, _ *RunDetails) { j.Results = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j, d := journal, details
			d.Contracts = append([]Contract(nil), details.Contracts...)
			tc.tamper(&j, &d)
			assert.ErrorIs(t, Verify(j, d), ErrJournalMismatch)
		})
	}

	forged := journal
	forged.Out = "TX alice mallory 100\n"
	assert.ErrorIs(t, Compare(forged, journal), ErrJournalMismatch)
}

func TestJournalCodec(t *testing.T) {
	details, tree := setup(map[string][]byte{"a": {1}}, writer)
	journal, err := Execute(context.Background(), details, tree)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeJournal(&buf, journal))
	decoded, err := DecodeJournal(&buf)
	require.NoError(t, err)
	assert.NoError(t, Compare(decoded, journal))

	buf.Reset()
	require.NoError(t, EncodeRunDetails(&buf, details))
	decodedDetails, err := DecodeRunDetails(&buf)
	require.NoError(t, err)
	h1, _ := InputHash(details)
	h2, _ := InputHash(decodedDetails)
	assert.Equal(t, h1, h2)
}
