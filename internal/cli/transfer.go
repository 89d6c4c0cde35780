package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/formulary/internal/seed"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

// stdio names standard input or output in place of a file path.
const stdio = "-"

func (a *app) newImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a YAML, TOML, or JSONL document into the store",
		Long: "Adds every category, group, and item of the document. Existing categories\n" +
			"and groups are merged into; items are appended. Use - to read stdin, which\n" +
			"requires --format.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := readDocument(cmd, args[0], format)
			if err != nil {
				return err
			}

			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := seed.Apply(ctx, repo, doc); err != nil {
				return err
			}
			changed, err := commit(ctx, repo)
			if err != nil {
				return err
			}
			cats, groups, items := doc.Counts()
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{
					"changed":    changed,
					"categories": cats,
					"groups":     groups,
					"items":      items,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories, %d groups, %d items\n", cats, groups, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format: yaml, toml, or jsonl (default: from extension)")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the reference tree as YAML, TOML, or JSONL",
		Long:  "Writes the tree atomically. Use - to write stdout, which requires --format.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := documentFormat(args[0], format)
			if err != nil {
				return err
			}

			repo, s, err := a.openRepository(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := repo.Snapshot(ctx)
			if err != nil {
				return err
			}
			if args[0] == stdio {
				if err := seed.Encode(cmd.OutOrStdout(), doc, f); err != nil {
					return sysError("%s", err)
				}
				return nil
			}
			if err := seed.WriteFile(args[0], doc, f); err != nil {
				return sysError("%s", err)
			}
			cats, groups, items := doc.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d categories, %d groups, %d items to %s\n", cats, groups, items, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format: yaml, toml, or jsonl (default: from extension)")
	return cmd
}

// documentFormat picks the explicit format if given, else the one implied
// by path.
func documentFormat(path, explicit string) (seed.Format, error) {
	if explicit != "" {
		f, err := seed.ParseFormat(explicit)
		if err != nil {
			return "", userError("%s", err)
		}
		return f, nil
	}
	if path == stdio {
		return "", userError("--format is required with -")
	}
	f, err := seed.FormatFromPath(path)
	if err != nil {
		return "", userError("%s", err)
	}
	return f, nil
}

// readDocument decodes the document at path, or stdin for -.
func readDocument(cmd *cobra.Command, path, explicit string) (types.Document, error) {
	f, err := documentFormat(path, explicit)
	if err != nil {
		return types.Document{}, err
	}
	in := cmd.InOrStdin()
	if path != stdio {
		file, err := os.Open(path)
		if err != nil {
			return types.Document{}, userError("%s", err)
		}
		defer file.Close()
		in = file
	}
	doc, err := seed.Decode(in, f)
	if err != nil {
		return types.Document{}, userError("%s", err)
	}
	return doc, nil
}
