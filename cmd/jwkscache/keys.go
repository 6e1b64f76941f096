package main

import (
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexadamm/jwks-cache-go/pkg/jwks"
)

type keyView struct {
	ID        string `json:"kid"`
	KeyType   string `json:"kty,omitempty"`
	Algorithm string `json:"alg,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every key of the current key set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			provider, err := opts.provider(ctx, cmd)
			if err != nil {
				return err
			}

			keys, err := provider.GetAll(ctx)
			if err != nil {
				return err
			}

			views := make([]keyView, 0, len(keys))
			for _, key := range keys {
				views = append(views, keyView{ID: key.ID, KeyType: key.KeyType, Algorithm: key.Algorithm})
			}
			return printKeys(cmd.OutOrStdout(), opts.output, views)
		},
	}
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kid>",
		Short: "Resolve a single key by its key ID and print it as PEM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			provider, err := opts.provider(ctx, cmd)
			if err != nil {
				return err
			}

			key, err := provider.GetByID(ctx, args[0])
			if err != nil {
				return err
			}

			encoded, err := encodePEM(key)
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return printKeys(cmd.OutOrStdout(), opts.output, []keyView{{
					ID:        key.ID,
					KeyType:   key.KeyType,
					Algorithm: key.Algorithm,
					PublicKey: encoded,
				}})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), encoded)
			return err
		},
	}
}

func printKeys(w io.Writer, output string, views []keyView) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KID\tKTY\tALG")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.KeyType, v.Algorithm)
	}
	return tw.Flush()
}

func encodePEM(key jwks.Key) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode key %s: %w", key.ID, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
