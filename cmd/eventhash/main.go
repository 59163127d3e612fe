// Command eventhash computes and checks event commitments offline, producing
// the same canonical form and Keccak-256 hash the oracle publishes.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/turforacle/internal/domain/canonical"
	"github.com/okian/turforacle/internal/domain/model"
)

// errMismatch is returned by verify when the hash does not match.
var errMismatch = errors.New("hash mismatch")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eventhash",
		Short:         "Canonicalize and verify horse events",
		SilenceUsage:  true,
	}
	root.AddCommand(newCanonicalizeCmd(), newVerifyCmd())
	return root
}

func newCanonicalizeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "canonicalize <file|->",
		Short: "Print the canonical form and hash of an event",
		Example: `  eventhash canonicalize event.json
  cat event.json | eventhash canonicalize - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readEvent(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			c, err := canonical.Commit(e)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				return enc.Encode(c)
			}
			_, err = fmt.Fprintf(out, "%s\n%s\n", c.Canonical, c.Hash.Hex())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print {canonical, hash} as JSON")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "verify <file|-> <hash>",
		Short:   "Check an event against a published hash",
		Example: `  eventhash verify event.json 0x6f1c...`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readEvent(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			ok, err := canonical.Verify(e, args[1])
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "MISMATCH")
				return errMismatch
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return err
		},
	}
}

// readEvent decodes an event from path, or from stdin when path is "-".
func readEvent(stdin io.Reader, path string) (model.Event, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return model.Event{}, fmt.Errorf("failed to open event: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var e model.Event
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return model.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return e, nil
}
