// Package service holds domain logic that spans repositories.  This file
// implements the event access-code generator: 6 characters drawn uniformly
// from [A-Z0-9], retried until the draw does not collide with any existing
// event code.  The 36^6 space makes collisions practically unreachable, so
// the loop carries no retry bound; what matters is that every draw is
// checked against the store before use.
package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"math/big"

	"github.com/bilhetinho/server/internal/repository"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// CodeGenerator produces unique event access codes.
type CodeGenerator struct {
	events *repository.EventRepo
}

// NewCodeGenerator constructs a CodeGenerator backed by the event store.
func NewCodeGenerator(events *repository.EventRepo) *CodeGenerator {
	return &CodeGenerator{events: events}
}

// GenerateTx returns a fresh code whose uniqueness was verified on the
// caller's transaction, so the check and the subsequent event insert
// observe one consistent snapshot.
func (g *CodeGenerator) GenerateTx(ctx context.Context, tx *sql.Tx) (string, error) {
	for {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		exists, err := g.events.CodeExistsTx(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
}

// randomCode draws codeLength characters uniformly from the alphabet using
// crypto/rand.  rand.Int avoids the modulo bias a byte-mask approach would
// introduce with a 36-character alphabet.
func randomCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
