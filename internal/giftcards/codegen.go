package giftcards

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/richxcame/giftcards/pkg/logger"
	"go.uber.org/zap"
)

// CodeLength is the number of hex characters in a card code
const CodeLength = 8

// CodeChecker reports whether a code is already taken
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator derives short codes from a hash of the clock and a random
// value, checking each candidate against storage. The storage unique
// constraint stays the final guard.
type CodeGenerator struct {
	checker     CodeChecker
	maxAttempts int
	now         func() time.Time
	random      io.Reader
}

// NewCodeGenerator creates a generator that gives up after maxAttempts
// taken candidates
func NewCodeGenerator(checker CodeChecker, maxAttempts int) *CodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 32
	}
	return &CodeGenerator{
		checker:     checker,
		maxAttempts: maxAttempts,
		now:         time.Now,
		random:      rand.Reader,
	}
}

// MaxAttempts returns the attempt budget
func (g *CodeGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Generate returns the first candidate not present in storage
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code, err := g.candidate()
		if err != nil {
			return "", err
		}

		exists, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !exists {
			return code, nil
		}

		codeCollisions.WithLabelValues("lookup").Inc()
		logger.WithContext(ctx).Warn("gift card code collision",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}
	return "", ErrCodeGenerationExhausted
}

func (g *CodeGenerator) candidate() (string, error) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(g.now().UnixNano()))
	if _, err := io.ReadFull(g.random, buf[8:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:])[:CodeLength], nil
}
