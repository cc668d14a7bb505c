package bridge

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	var (
		typ            int8 = 1
		uid                 = uuid.Must(uuid.NewV4())
		str                 = "123"
		amount              = decimal.RequireFromString("12.345678")
		data           RawMessage
	)

	data = make([]byte, 100)
	_, _ = io.ReadFull(rand.Reader, data)

	body, err := Encode(typ, uid, str, amount, data)
	require.Nil(t, err)

	var (
		dtyp    int8
		duid    uuid.UUID
		dstr    string
		damount decimal.Decimal
		ddata   RawMessage
	)

	remain, err := Scan(body, &dtyp)
	require.Nil(t, err)
	assert.Equal(t, typ, dtyp)

	remain, err = Scan(remain, &duid, &dstr, &damount, &ddata)
	require.Nil(t, err)
	require.Equal(t, 0, len(remain))

	assert.Equal(t, uid.String(), duid.String())
	assert.Equal(t, str, dstr)
	assert.Equal(t, amount.String(), damount.String())
	assert.Equal(t, []byte(data), []byte(ddata))
}

func TestScanShortPayload(t *testing.T) {
	body, err := Encode(uint64(7))
	require.Nil(t, err)

	var v uint64
	_, err = Scan(body[:len(body)-1], &v)
	require.NotNil(t, err)
}

func TestScanIntegers(t *testing.T) {
	body, err := Encode(uint64(42), int64(-7), true)
	require.Nil(t, err)

	var (
		a uint64
		b int64
		c bool
	)

	remain, err := Scan(body, &a, &b, &c)
	require.Nil(t, err)
	require.Equal(t, 0, len(remain))

	assert.Equal(t, uint64(42), a)
	assert.Equal(t, int64(-7), b)
	assert.Equal(t, true, c)
}
