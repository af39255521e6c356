package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ShareTokens mints report share-tokens of the form
// <scheme>://patient/<patientId>/report/<unix millis>. The millisecond
// component is strictly increasing across calls on one instance, so two
// tokens minted in the same millisecond still differ.
type ShareTokens struct {
	scheme string

	mu   sync.Mutex
	last int64
}

func NewShareTokens(scheme string) *ShareTokens {
	return &ShareTokens{scheme: scheme}
}

// Mint returns a token for patientID and the instant it embeds.
func (t *ShareTokens) Mint(patientID string, at time.Time) (string, int64) {
	t.mu.Lock()
	ms := at.UnixMilli()
	if ms <= t.last {
		ms = t.last + 1
	}
	t.last = ms
	t.mu.Unlock()

	return fmt.Sprintf("%s://patient/%s/report/%d", t.scheme, patientID, ms), ms
}

// Parse splits a token into its patient identifier and timestamp.
func (t *ShareTokens) Parse(token string) (patientID string, ms int64, err error) {
	rest, ok := strings.CutPrefix(token, t.scheme+"://patient/")
	if !ok {
		return "", 0, fmt.Errorf("share token: unexpected scheme in %q", token)
	}
	idx := strings.LastIndex(rest, "/report/")
	if idx <= 0 {
		return "", 0, fmt.Errorf("share token: malformed %q", token)
	}
	patientID = rest[:idx]
	ms, err = strconv.ParseInt(rest[idx+len("/report/"):], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("share token: bad timestamp in %q: %w", token, err)
	}
	return patientID, ms, nil
}
