// Package governorkey generates caller keys for the budget governor.
package governorkey

import (
	"errors"
	"fmt"
	"io"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/identity"
)

// Run generates a caller key pair and writes shell exports for it. A nil
// reader uses crypto/rand.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	address, privateKey, err := identity.GenerateKeyFrom(reader)
	if err != nil {
		return fmt.Errorf("generate governor key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export BUDGET_GOVERNOR_PRIVATE_KEY=%s\n", identity.EncodePrivateKey(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export BUDGET_GOVERNOR_ADDRESS=%s\n", address); err != nil {
		return err
	}
	return nil
}
