// Package testutil holds small fixtures shared across test suites.
package testutil

import (
	"fmt"
	"testing"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// Actor returns a deterministic actor address derived from n.
func Actor(t *testing.T, n int) id.ActorID {
	t.Helper()
	actor, err := id.ParseActorID(fmt.Sprintf("0x%040x", n))
	if err != nil {
		t.Fatalf("build test actor: %v", err)
	}
	return actor
}

// DigestOf returns a digest with its last byte set to n.
func DigestOf(n byte) id.Digest {
	var d id.Digest
	d[31] = n
	return d
}
