package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseBlockID(t *testing.T) {
	id, err := ParseBlockID("17633573")
	if err != nil {
		t.Fatalf("parse number: %v", err)
	}
	if id.IsHash || id.Number != 17633573 {
		t.Fatalf("number mismatch: %+v", id)
	}
	if id.rpcArg() != "0x10d1125" {
		t.Fatalf("rpc arg mismatch: %s", id.rpcArg())
	}

	const hash = "0x1c411e9a96e071241c2f21f7726b17ae89e3cab4c78be50e062b03a9fffbbad1"
	for _, in := range []string{hash, hash[2:]} {
		id, err = ParseBlockID(in)
		if err != nil {
			t.Fatalf("parse hash %s: %v", in, err)
		}
		if !id.IsHash || id.Hash != common.HexToHash(hash) {
			t.Fatalf("hash mismatch: %+v", id)
		}
		if id.String() != hash {
			t.Fatalf("string mismatch: %s", id.String())
		}
	}

	for _, bad := range []string{"", "abc", "-1", hash + "00", "zz" + hash[4:]} {
		if _, err := ParseBlockID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWithRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("method not found")
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error mismatch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent error should not retry, calls=%d", calls)
	}
}

func TestWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls mismatch: %d", calls)
	}
}
