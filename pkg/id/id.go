package id

import (
	"crypto/md5"
	"fmt"
	"io"

	"github.com/gofrs/uuid"
)

// GenTraceID new random trace id
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// TraceIDFrom derives a deterministic trace id from text
func TraceIDFrom(text string) string {
	return UUIDFromString(text)
}

// LoanID derives the loan id from the owner account and a caller-chosen
// nonce. The same (account, nonce) pair always yields the same id, so a
// replayed create message maps onto the existing loan.
func LoanID(accountID, nonce string) string {
	return UUIDFromString(fmt.Sprintf("loan:%s:%s", accountID, nonce))
}

// UUIDByName new uuid v5 string in the uuidStr namespace
func UUIDByName(uuidStr, name string) string {
	ns, err := uuid.FromString(uuidStr)
	if err != nil {
		panic(err)
	}

	return uuid.NewV5(ns, name).String()
}

// UUIDFromString new deterministic uuid string from arbitrary text
func UUIDFromString(text string) string {
	h := md5.New()
	io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}
