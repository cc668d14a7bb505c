package id

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoanID(t *testing.T) {
	account := uuid.Must(uuid.NewV4()).String()

	a := LoanID(account, "1")
	b := LoanID(account, "1")
	assert.Equal(t, a, b)

	c := LoanID(account, "2")
	require.NotEqual(t, a, c)

	_, err := uuid.FromString(a)
	require.Nil(t, err)
}

func TestUUIDFromString(t *testing.T) {
	a := UUIDFromString("hello")
	b := UUIDFromString("hello")
	assert.Equal(t, a, b)

	_, err := uuid.FromString(a)
	require.Nil(t, err)
}
