package types

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey, _  = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr    = common.HexToAddress("0x71562b71999873db5b286df957af199ec94617f7")
	testTo      = common.HexToAddress("0x095e7baea6a6c7c4c2dfeb977efac326af552d87")
	frontier    = FrontierSigner{}
	homestead   = HomesteadSigner{}
	emptyCallTx = NewMessageCall(uint256.NewInt(1000), uint256.NewInt(1), uint256.NewInt(21000), testTo, nil)

	// value=1000 gasPrice=1 gas=21000 nonce=0, signed with testKey
	goldenCall        = common.FromHex("f861800182520894095e7baea6a6c7c4c2dfeb977efac326af552d878203e8801ca05001329f480eeb36fe9aa2ac3acdfc30f5438ec2d58248338cbc12df6e1d736ca01ee5cbd5eacd9dafe751089fa04ad9c23da343363f3443208663337a80ce5cc6")
	goldenCallSigHash = common.HexToHash("0x54d445d792a24191a39d33b31a3af559147bac7c61c3d4431ea46c2f6589275b")
	goldenCallHash    = common.HexToHash("0xb16acbfc17c3a8848b4acf82df3bd4827071f0020774a81fe5627bbc399475e2")

	// creation with init code 0x6060604052, gasPrice=20 gwei gas=100000 nonce=5
	goldenCreate     = common.FromHex("f856058504a817c800830186a080808560606040521ba06baf5df82bea777aec5c517b4ebb48815ea2e7d6b394aec2030b0605f9db8a6ca06de22695a739b02e1c828dfa166fb1d0ca2d178083afea6d2ba117f2cce69005")
	goldenCreateHash = common.HexToHash("0x4c117111fafb5e444ce6e2de070e725657f80ff14e71981673ed1f0b1c732774")
)

func requireErrorIs(t *testing.T, err, target error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, target), "error %q is not %q", err, target)
}

func TestMessageCallGolden(t *testing.T) {
	tx := MustSignNewTx(homestead, testKey, uint256.NewInt(0), &CallTx{
		To:       testTo,
		Value:    *uint256.NewInt(1000),
		GasPrice: *uint256.NewInt(1),
		Gas:      *uint256.NewInt(21000),
	})

	from, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, testAddr, from)
	assert.Equal(t, goldenCallSigHash, tx.Hash(false))
	assert.Equal(t, goldenCallHash, tx.Hash(true))
	assert.Equal(t, common.Bytes2Hex(goldenCall), common.Bytes2Hex(tx.RLP(true)))
	assert.Equal(t, string(goldenCall), tx.RLPString(true))
	assert.Equal(t, uint64(len(goldenCall)), tx.Size())

	dec, err := Decode(goldenCall, homestead, true)
	require.NoError(t, err)
	assert.Equal(t, KindMessageCall, dec.Kind())
	assert.Equal(t, uint64(0), dec.Nonce().Uint64())
	assert.Equal(t, uint64(1000), dec.Value().Uint64())
	assert.Equal(t, uint64(1), dec.GasPrice().Uint64())
	assert.Equal(t, uint64(21000), dec.Gas().Uint64())
	assert.Equal(t, &testTo, dec.To())
	assert.Empty(t, dec.Data())
	assert.Equal(t, tx.Signature(), dec.Signature())
	assert.Equal(t, uint64(28), dec.Signature().V.Uint64())

	decFrom, err := dec.Sender()
	require.NoError(t, err)
	assert.Equal(t, testAddr, decFrom)
}

func TestContractCreationGolden(t *testing.T) {
	gasPrice, _ := uint256.FromDecimal("20000000000")
	tx := MustSignNewTx(frontier, testKey, uint256.NewInt(5), &CreateTx{
		GasPrice: *gasPrice,
		Gas:      *uint256.NewInt(100000),
		Data:     common.FromHex("6060604052"),
	})
	assert.True(t, tx.IsCreation())
	assert.Nil(t, tx.To())
	assert.Equal(t, common.Bytes2Hex(goldenCreate), common.Bytes2Hex(tx.RLP(true)))
	assert.Equal(t, goldenCreateHash, tx.Hash(true))

	dec := MustDecode(goldenCreate, frontier)
	assert.Equal(t, KindContractCreation, dec.Kind())
	assert.True(t, dec.IsCreation())
	assert.Equal(t, uint64(5), dec.Nonce().Uint64())
	assert.Equal(t, common.FromHex("6060604052"), dec.Data())
	assert.Equal(t, testAddr, dec.SafeSender())
}

func TestCreationEncodesEmptyDestination(t *testing.T) {
	tx := NewContractCreation(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(53000), []byte{0x60})
	var items []rlp.RawValue
	require.NoError(t, rlp.DecodeBytes(tx.RLP(false), &items))
	require.Len(t, items, 6)
	assert.Equal(t, []byte{0x80}, []byte(items[3]))

	call := NewMessageCall(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(21000), common.Address{}, nil)
	require.NoError(t, rlp.DecodeBytes(call.RLP(false), &items))
	assert.Len(t, items[3], 21, "zero address is a real destination")
	assert.False(t, call.IsCreation())
}

func TestRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	large := bytes.Repeat([]byte{0xab, 0x01}, 50000)
	maxU256 := new(uint256.Int).SetAllOne()

	for _, data := range [][]byte{nil, {0x01}, {0x80}, large} {
		inners := []TxData{
			&CreateTx{Value: *uint256.NewInt(7), GasPrice: *uint256.NewInt(3), Gas: *uint256.NewInt(90000), Data: data},
			&CallTx{To: testTo, Value: *maxU256, GasPrice: *uint256.NewInt(0), Gas: *maxU256, Data: data},
		}
		for _, inner := range inners {
			tx := MustSignNewTx(homestead, key, maxU256, inner)
			enc := tx.RLP(true)

			dec, err := Decode(enc, homestead, true)
			require.NoError(t, err)
			assert.Equal(t, tx.Kind(), dec.Kind())
			assert.Equal(t, tx.Nonce(), dec.Nonce())
			assert.Equal(t, tx.Value(), dec.Value())
			assert.Equal(t, tx.GasPrice(), dec.GasPrice())
			assert.Equal(t, tx.Gas(), dec.Gas())
			assert.Equal(t, tx.To(), dec.To())
			assert.True(t, bytes.Equal(data, dec.Data()))
			assert.Equal(t, tx.Signature(), dec.Signature())
			assert.Equal(t, enc, dec.RLP(true))
			assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), dec.SafeSender())
		}
	}
}

func TestSignatureBinding(t *testing.T) {
	keys := make([]*ecdsa.PrivateKey, 4)
	for i := range keys {
		keys[i], _ = crypto.GenerateKey()
	}
	for i, key := range keys {
		tx := MustSignNewTx(homestead, key, uint256.NewInt(uint64(i)), &CallTx{To: testTo, Value: *uint256.NewInt(uint64(i))})
		from, err := tx.Sender()
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
	}
}

// replaceItem swaps item i of an encoded transaction for raw.
func replaceItem(t *testing.T, enc []byte, i int, raw []byte) []byte {
	var items []rlp.RawValue
	require.NoError(t, rlp.DecodeBytes(enc, &items))
	items[i] = raw
	out, err := rlp.EncodeToBytes(items)
	require.NoError(t, err)
	return out
}

func TestTamperedFieldChangesSender(t *testing.T) {
	orig := MustDecode(goldenCall, homestead)
	other := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	mutations := map[string]struct {
		index int
		value interface{}
	}{
		"nonce":       {0, uint64(1)},
		"gasPrice":    {1, uint64(2)},
		"gas":         {2, uint64(21001)},
		"destination": {3, other},
		"value":       {4, uint64(1001)},
		"payload":     {5, []byte{0x01}},
	}
	for name, m := range mutations {
		t.Run(name, func(t *testing.T) {
			raw, err := rlp.EncodeToBytes(m.value)
			require.NoError(t, err)
			tampered, err := Decode(replaceItem(t, goldenCall, m.index, raw), homestead, false)
			require.NoError(t, err)

			assert.NotEqual(t, orig.Hash(false), tampered.Hash(false))
			from, err := tampered.Sender()
			if err == nil {
				assert.NotEqual(t, testAddr, from)
			} else {
				requireErrorIs(t, err, ErrInvalidSig)
			}
		})
	}
}

func TestWithSignatureOnModifiedCopy(t *testing.T) {
	orig := MustDecode(goldenCall, homestead)
	modified := NewMessageCall(uint256.NewInt(999), uint256.NewInt(1), uint256.NewInt(21000), testTo, nil).
		WithSignature(homestead, *orig.Signature())
	assert.NotEqual(t, testAddr, modified.SafeSender())

	same := emptyCallTx.WithSignature(homestead, *orig.Signature())
	from, err := same.Sender()
	require.NoError(t, err)
	assert.Equal(t, testAddr, from)
}

func TestEquality(t *testing.T) {
	key, _ := crypto.GenerateKey()
	base := MustSignNewTx(homestead, testKey, uint256.NewInt(0), &CallTx{To: testTo, Value: *uint256.NewInt(10), GasPrice: *uint256.NewInt(1), Gas: *uint256.NewInt(21000), Data: []byte{1, 2}})

	// nonce, fees and signature do not take part
	bumped := MustSignNewTx(frontier, key, uint256.NewInt(9), &CallTx{To: testTo, Value: *uint256.NewInt(10), GasPrice: *uint256.NewInt(50), Gas: *uint256.NewInt(90000), Data: []byte{1, 2}})
	assert.True(t, base.Equal(bumped))
	assert.True(t, base.Equal(NewMessageCall(uint256.NewInt(10), nil, nil, testTo, []byte{1, 2})))

	assert.False(t, base.Equal(NewMessageCall(uint256.NewInt(11), nil, nil, testTo, []byte{1, 2})))
	assert.False(t, base.Equal(NewMessageCall(uint256.NewInt(10), nil, nil, testTo, []byte{1, 3})))
	assert.False(t, base.Equal(NewMessageCall(uint256.NewInt(10), nil, nil, testAddr, []byte{1, 2})))
	assert.False(t, base.Equal(NewContractCreation(uint256.NewInt(10), nil, nil, []byte{1, 2})))

	c1 := NewContractCreation(uint256.NewInt(10), uint256.NewInt(1), nil, []byte{1})
	c2 := MustSignNewTx(homestead, key, uint256.NewInt(3), &CreateTx{Value: *uint256.NewInt(10), Data: []byte{1}})
	assert.True(t, c1.Equal(c2))

	assert.True(t, new(Transaction).Equal(new(Transaction)))
	assert.False(t, base.Equal(nil))
}

func TestHashDivergence(t *testing.T) {
	for _, enc := range [][]byte{goldenCall, goldenCreate} {
		tx := MustDecode(enc, homestead)
		assert.NotEqual(t, tx.Hash(true), tx.Hash(false))
	}
	// without a signature both encodings coincide
	assert.Equal(t, emptyCallTx.Hash(true), emptyCallTx.Hash(false))
}

func TestMalformedInput(t *testing.T) {
	var items []rlp.RawValue
	require.NoError(t, rlp.DecodeBytes(goldenCall, &items))
	missing, err := rlp.EncodeToBytes(items[:8])
	require.NoError(t, err)
	extra, err := rlp.EncodeToBytes(append(append([]rlp.RawValue{}, items...), rlp.RawValue{0x80}))
	require.NoError(t, err)
	oversized, err := rlp.EncodeToBytes(bytes.Repeat([]byte{0xff}, 33))
	require.NoError(t, err)
	shortAddr, err := rlp.EncodeToBytes(make([]byte, 19))
	require.NoError(t, err)

	tests := map[string][]byte{
		"empty input":         {},
		"not a list":          {0x80},
		"missing item":        missing,
		"extra item":          extra,
		"unsigned only":       emptyCallTx.RLP(false),
		"oversized nonce":     replaceItem(t, goldenCall, 0, oversized),
		"oversized s":         replaceItem(t, goldenCall, 8, oversized),
		"leading zero nonce":  replaceItem(t, goldenCall, 0, []byte{0x82, 0x00, 0x01}),
		"short destination":   replaceItem(t, goldenCall, 3, shortAddr),
		"list as destination": replaceItem(t, goldenCall, 3, []byte{0xc0}),
		"list as value":       replaceItem(t, goldenCall, 4, []byte{0xc0}),
		"trailing bytes":      append(common.CopyBytes(goldenCall), 0x00),
		"truncated":           goldenCall[:len(goldenCall)-1],
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input, homestead, false)
			requireErrorIs(t, err, ErrInvalidTransactionFormat)
			assert.False(t, errors.Is(err, ErrInvalidSig))
			assert.False(t, errors.Is(err, ErrMissingSignature))
		})
	}
}

func TestDeferredAndEagerVerification(t *testing.T) {
	badV := replaceItem(t, goldenCall, 6, []byte{29})

	tx, err := Decode(badV, homestead, false)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = tx.Sender()
		requireErrorIs(t, err, ErrInvalidSig)
	}
	assert.Equal(t, common.Address{}, tx.SafeSender())
	assert.NotContains(t, tx.String(), "<-")

	_, err = Decode(badV, homestead, true)
	requireErrorIs(t, err, ErrInvalidTransactionFormat)
	requireErrorIs(t, err, ErrInvalidSig)

	zeroR := replaceItem(t, goldenCall, 7, []byte{0x80})
	_, err = Decode(zeroR, homestead, true)
	requireErrorIs(t, err, ErrInvalidTransactionFormat)
}

func TestMissingSignature(t *testing.T) {
	_, err := emptyCallTx.Sender()
	requireErrorIs(t, err, ErrMissingSignature)
	assert.Equal(t, common.Address{}, emptyCallTx.SafeSender())
	assert.Nil(t, emptyCallTx.Signature())

	var noop Transaction
	assert.Equal(t, KindNoOp, noop.Kind())
	assert.True(t, noop.IsCreation())
	_, err = noop.Sender()
	requireErrorIs(t, err, ErrMissingSignature)
	requireErrorIs(t, noop.Sign(homestead, testKey), ErrEmptyTransaction)
}

func TestNilSignerDefaultsToHomestead(t *testing.T) {
	for _, verify := range []bool{false, true} {
		tx, err := Decode(goldenCall, nil, verify)
		require.NoError(t, err)
		assert.Equal(t, homestead, tx.Signer())
		from, err := tx.Sender()
		require.NoError(t, err)
		assert.Equal(t, testAddr, from)
	}

	sig := *MustDecode(goldenCall, homestead).Signature()
	tx := emptyCallTx.WithSignature(nil, sig)
	assert.Equal(t, homestead, tx.Signer())
	from, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, testAddr, from)

	// A signature that is present never reports as missing.
	sig.V.SetUint64(29)
	_, err = Decode(replaceItem(t, goldenCall, 6, []byte{29}), nil, true)
	requireErrorIs(t, err, ErrInvalidSig)
	requireErrorIs(t, err, ErrInvalidTransactionFormat)
	assert.False(t, errors.Is(err, ErrMissingSignature))
	_, err = emptyCallTx.WithSignature(nil, sig).Sender()
	requireErrorIs(t, err, ErrInvalidSig)
	assert.False(t, errors.Is(err, ErrMissingSignature))
}

func TestResignClearsSenderCache(t *testing.T) {
	other, _ := crypto.GenerateKey()
	tx := NewMessageCall(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(21000), testTo, nil)

	require.NoError(t, tx.Sign(homestead, testKey))
	from, err := tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, testAddr, from)

	require.NoError(t, tx.Sign(homestead, other))
	from, err = tx.Sender()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(other.PublicKey), from)
}

func TestConcurrentSender(t *testing.T) {
	tx, err := Decode(goldenCall, homestead, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]common.Address, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tx.SafeSender()
		}(i)
	}
	wg.Wait()
	for _, from := range results {
		assert.Equal(t, testAddr, from)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	tx := MustDecode(goldenCreate, homestead)
	tx.Data()[0] = 0x00
	tx.Value().SetUint64(12345)
	tx.Signature().R.Clear()
	assert.Equal(t, goldenCreateHash, tx.Hash(true))

	data := []byte{1, 2, 3}
	call := NewMessageCall(nil, nil, nil, testTo, data)
	data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, call.Data())
}

func TestCost(t *testing.T) {
	cost, overflow := emptyCallTx.Cost()
	assert.False(t, overflow)
	assert.Equal(t, uint64(1000+21000), cost.Uint64())

	maxU256 := new(uint256.Int).SetAllOne()
	_, overflow = NewMessageCall(uint256.NewInt(1), maxU256, uint256.NewInt(2), testTo, nil).Cost()
	assert.True(t, overflow)
}

func TestString(t *testing.T) {
	call := MustDecode(goldenCall, homestead)
	assert.Equal(t, "{095e7bae…/0$1000+21000@1<-71562b71… #0}", call.String())

	create := NewContractCreation(uint256.NewInt(5), uint256.NewInt(2), uint256.NewInt(60000), []byte{1, 2, 3})
	assert.Equal(t, "{[CREATE]/0$5+60000@2 #3}", create.String())
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(MustDecode(goldenCall, homestead))
	require.NoError(t, err)

	var dec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &dec))
	assert.Equal(t, "MessageCall", dec["kind"])
	assert.Equal(t, "0x3e8", dec["value"])
	assert.Equal(t, "0x1c", dec["v"])
	assert.Equal(t, goldenCallHash.Hex(), dec["hash"])
	assert.True(t, strings.EqualFold(testAddr.Hex(), dec["from"].(string)))

	b, err = json.Marshal(NewContractCreation(nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"to":null`)
	assert.NotContains(t, string(b), `"from"`)
	assert.NotContains(t, string(b), `"v"`)
}
