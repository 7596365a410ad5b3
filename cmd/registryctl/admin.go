// cmd/registryctl/admin.go
package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dalemusser/stratacatalog/internal/app/adminclient"
	"github.com/dalemusser/stratacatalog/internal/app/registryclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func loginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the admin token",
		Long:  `Check the admin token by signing the ping path, as the editor does on login.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.session(cmd.Context(), e.adminClient()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "admin token accepted")
			return nil
		},
	}
}

func uploadCmd(e *env) *cobra.Command {
	var (
		draftPath   string
		brand       string
		field       string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload an asset and point a draft field at it",
		Long: `Sign a destination under the brand's upload folder, PUT the file, and set
the draft field to the stored path. The draft file is rewritten only when
the upload succeeds.

Fields: brandLogo, homeLogoBase, homeLogoHover, items.N.baseImage,
items.N.hoverImage, items.N.article.images.S (S = 0..6).

Examples:
  registryctl upload --draft draft.json --brand ACME --field brandLogo logo.png
  registryctl upload --draft draft.json --brand ACME --field items.0.article.images.0 lead.webp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := adminclient.ParseField(field)
			if err != nil {
				return err
			}
			reg, err := parseFile(cmd, draftPath)
			if err != nil {
				return err
			}
			d := adminclient.NewDraft(reg)

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return err
			}
			ct := contentType
			if ct == "" {
				ct = mime.TypeByExtension(filepath.Ext(args[0]))
			}

			c := e.adminClient()
			sess, err := e.session(cmd.Context(), c)
			if err != nil {
				return err
			}
			p := adminclient.NewPipeline(c, sess, nil, nil, e.logger)
			path, err := p.Upload(cmd.Context(), d, brand, f, adminclient.File{
				Name:        filepath.Base(args[0]),
				ContentType: ct,
				Body:        file,
				Size:        info.Size(),
			})
			if err != nil {
				return err
			}
			if err := writeRegistry(cmd, draftPath, d.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %s\n", brand, f, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&draftPath, "draft", "", "Draft registry file to update")
	cmd.Flags().StringVar(&brand, "brand", "", "Brand key")
	cmd.Flags().StringVar(&field, "field", "", "Draft field to set")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type (default: from the file extension)")
	_ = cmd.MarkFlagRequired("draft")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func saveCmd(e *env) *cobra.Command {
	var draftPath string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Validate and commit a draft",
		Long: `Load the published registry for its change-token, validate the draft,
and commit it. A conflict refreshes the token and resubmits once; a second
conflict is reported and nothing is overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := parseFile(cmd, draftPath)
			if err != nil {
				return err
			}

			store := registryclient.NewStore(e.loader(), e.logger)
			defer store.Close()
			if err := store.Activate(cmd.Context()); err != nil {
				// Nothing published yet is fine; the commit goes out without a token.
				if !errors.Is(err, registryclient.ErrSourceUnavailable) {
					return err
				}
				e.logger.Warn("registry not loaded, saving without a change-token", zap.Error(err))
			}

			c := e.adminClient()
			sess, err := e.session(cmd.Context(), c)
			if err != nil {
				return err
			}
			p := adminclient.NewPipeline(c, sess, store, nil, e.logger)
			res, err := p.Save(cmd.Context(), draft, store.ChangeToken(), store.IsRemote())
			if err != nil {
				printIssues(cmd.OutOrStdout(), err)
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "saved: etag %s version %s\n", res.ETag, res.VersionID)
			if res.Retried {
				fmt.Fprintln(out, "note: the registry changed during the save; your draft replaced the newer version")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&draftPath, "draft", "", "Draft registry file to save")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}
