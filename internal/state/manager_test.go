package state

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/polycash/blockvm/internal/merkle"
)

const contractHash = "c0ffee"

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) GetFromState(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	value, _ := args.Get(0).([]byte)
	return value, args.Error(1)
}

func TestManagerGetAfterWrite(t *testing.T) {
	host := &mockQuerier{}
	m := NewManager(NewOnchain(host), contractHash)

	m.Write(contractHash+"1", []byte("cached"))

	v, err := m.Get(context.Background(), contractHash+"1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), v)
	host.AssertNotCalled(t, "GetFromState", mock.Anything, mock.Anything)
}

func TestManagerGetBackfillsCache(t *testing.T) {
	ctx := context.Background()
	host := &mockQuerier{}
	host.On("GetFromState", ctx, "42").Return([]byte("onchain"), nil).Once()
	m := NewManager(NewOnchain(host), contractHash)

	for range 3 {
		v, err := m.Get(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, []byte("onchain"), v)
	}
	host.AssertNumberOfCalls(t, "GetFromState", 1)
}

func TestManagerGetCommittedFailure(t *testing.T) {
	ctx := context.Background()
	host := &mockQuerier{}
	host.On("GetFromState", ctx, "42").Return(nil, errors.New("node unreachable"))
	m := NewManager(NewOnchain(host), contractHash)

	_, err := m.Get(ctx, "42")
	assert.ErrorContains(t, err, "node unreachable")
	assert.Equal(t, 0, m.cache.Len())
}

func TestManagerGetSync(t *testing.T) {
	ctx := context.Background()
	host := &mockQuerier{}
	host.On("GetFromState", ctx, "2").Return([]byte("committed"), nil)

	pending := NewPending(map[string][]byte{"1": []byte("pending")})
	m := NewManager(NewOnchain(host), contractHash, WithPending(pending))
	m.Write("1", []byte("cached"))

	v, err := m.GetSync(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []byte("pending"), v, "pending takes priority on synchronous reads")

	v, err = m.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), v, "ordinary reads skip pending")

	v, err = m.GetSync(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, []byte("committed"), v)
}

func TestManagerFlush(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewOnchain(&mockQuerier{}), contractHash)

	m.Write("99", []byte{0xab})
	m.Write(contractHash+"2", []byte("b"))
	m.Write(contractHash+"1", []byte("a"))

	expected := "External state change: 99|ab\n" +
		"State change: c0ffee1|61\n" +
		"State change: c0ffee2|62\n"

	out, err := m.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, out)

	again, err := m.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	v, err := m.Pending().Get(ctx, contractHash+"1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)
}

func TestManagerExternalWriteGate(t *testing.T) {
	ctx := context.Background()
	host := &mockQuerier{}
	host.On("GetFromState", ctx, "7").Return(ExternalStateWriteableValue, nil)
	host.On("GetFromState", ctx, "8").Return([]byte("locked"), nil)

	m := NewManager(NewOnchain(host), contractHash, WithExternalWriteGate())
	m.Write("7", []byte{1})
	m.Write("8", []byte{2})
	m.Write(contractHash+"0", []byte{3})

	out, err := m.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, "External state change: 7|01\nState change: c0ffee0|03\n", out)

	// Dropped writes still reach the pending overlay
	v, err := m.Pending().Get(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, v)
}

func TestManagerWriteCopiesValue(t *testing.T) {
	m := NewManager(NewOnchain(&mockQuerier{}), contractHash)
	value := []byte("abc")
	m.Write("1", value)
	value[0] = 'x'

	v, err := m.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}

func TestProvenTier(t *testing.T) {
	ctx := context.Background()
	committed := map[string][]byte{"c0ffee1": []byte("proven"), "5": ExternalStateWriteableValue}
	tree := merkle.Merklize(committed)
	transitions := NewPending(nil)

	m := NewManager(NewProven(merkle.NewLazyTree(tree, tree.Root()), transitions), contractHash, WithExternalWriteGate())

	v, err := m.Get(ctx, "c0ffee1")
	require.NoError(t, err)
	assert.Equal(t, []byte("proven"), v)

	v, err = m.Get(ctx, "c0ffee9")
	require.NoError(t, err)
	assert.Empty(t, v)

	m.Write("5", []byte("x"))
	m.Write("6", []byte("y"))
	out, err := m.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, "External state change: 5|78\n", out)
	assert.Equal(t, map[string][]byte{"5": []byte("x")}, transitions.Entries())
}

func TestProvenTierTampered(t *testing.T) {
	tree := merkle.Merklize(map[string][]byte{"1": []byte("a")})
	root := tree.Root()
	tree[1].Value = []byte("b")

	_, err := NewProven(merkle.NewLazyTree(tree, root), NewPending(nil)).Get(context.Background(), "1")
	assert.ErrorIs(t, err, merkle.ErrHashMismatch)
}

func TestPendingCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePending(&buf, map[string][]byte{"a": {1, 2}, "b": []byte("text")}))

	p, err := DecodePending(&buf)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": {1, 2}, "b": []byte("text")}, p.Entries())
}

func TestPendingDecodeStringValues(t *testing.T) {
	var buf bytes.Buffer
	// Nodes encode values as msgpack str
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(map[string]string{"loc": "value"}))

	p, err := DecodePending(&buf)
	require.NoError(t, err)
	v, err := p.Get(context.Background(), "loc")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	_, err = p.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadPendingMissingFile(t *testing.T) {
	p, err := LoadPending(t.TempDir() + "/pending_state.msgpack")
	require.NoError(t, err)
	assert.Empty(t, p.Entries())
}
