package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/cmd/nano/input"
)

func getDocCmd(r *root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-doc <database> <docid>",
		Short: "Fetch a document",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			opts := &nano.GetOptions{
				Rev:              stringOpt(fs, "rev"),
				Revs:             boolOpt(fs, "revs"),
				RevsInfo:         boolOpt(fs, "revs-info"),
				Conflicts:        boolOpt(fs, "conflicts"),
				DeletedConflicts: boolOpt(fs, "deleted-conflicts"),
				Deleted:          boolOpt(fs, "deleted"),
				Meta:             boolOpt(fs, "meta"),
				Latest:           boolOpt(fs, "latest"),
				LocalSeq:         boolOpt(fs, "local-seq"),
				Attachments:      boolOpt(fs, "attachments"),
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				doc, err := db.Get(ctx, args[1], opts)
				if err != nil {
					return err
				}
				return r.fmt.Output(doc)
			})
		},
	}
	fs := cmd.Flags()
	fs.String("rev", "", "Fetch this revision")
	fs.Bool("revs", false, "Include the revision history")
	fs.Bool("revs-info", false, "Include revision availability")
	fs.Bool("conflicts", false, "Include conflicting revisions")
	fs.Bool("deleted-conflicts", false, "Include deleted conflicting revisions")
	fs.Bool("deleted", false, "Return a deleted document's tombstone")
	fs.Bool("meta", false, "Include conflicts, deleted conflicts and revision info")
	fs.Bool("latest", false, "Return the latest leaf of the requested revision")
	fs.Bool("local-seq", false, "Include the document's update sequence")
	fs.Bool("attachments", false, "Include attachment bodies")
	return cmd
}

func putDocCmd(r *root) *cobra.Command {
	in := input.New()
	var id, rev string
	cmd := &cobra.Command{
		Use:   "put-doc <database>",
		Short: "Create or update a document",
		Long:  `Create or update a document from --data or --data-file. Without --id, a random UUID is used as the document ID.`,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.SetStdin(cmd.InOrStdin())
			doc, err := in.JSONData()
			if err != nil {
				return err
			}
			if rev != "" && id == "" {
				return errors.Code(errors.ErrUsage, "--rev requires --id")
			}
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.Save(ctx, id, rev, doc)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
	in.ConfigFlags(cmd.Flags())
	cmd.Flags().StringVar(&id, "id", "", "Document ID")
	cmd.Flags().StringVar(&rev, "rev", "", "Revision being updated")
	return cmd
}

func deleteDocCmd(r *root) *cobra.Command {
	var rev string
	cmd := &cobra.Command{
		Use:   "delete-doc <database> <docid>",
		Short: "Delete a document",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rev == "" {
				return errors.Code(errors.ErrUsage, "--rev is required")
			}
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.Delete(ctx, args[1], rev)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
	cmd.Flags().StringVar(&rev, "rev", "", "Revision to delete")
	return cmd
}

func allDocsCmd(r *root) *cobra.Command {
	var keys []string
	cmd := &cobra.Command{
		Use:   "all-docs <database>",
		Short: "List the documents of a database",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			opts := &nano.AllDocsOptions{
				Conflicts:     boolOpt(fs, "conflicts"),
				Descending:    boolOpt(fs, "descending"),
				IncludeDocs:   boolOpt(fs, "include-docs"),
				InclusiveEnd:  boolOpt(fs, "inclusive-end"),
				UpdateSeq:     boolOpt(fs, "update-seq"),
				Limit:         intOpt(fs, "limit"),
				Skip:          intOpt(fs, "skip"),
				Key:           stringOpt(fs, "key"),
				StartKey:      stringOpt(fs, "start-key"),
				EndKey:        stringOpt(fs, "end-key"),
				StartKeyDocID: stringOpt(fs, "start-key-doc-id"),
				EndKeyDocID:   stringOpt(fs, "end-key-doc-id"),
				Keys:          keys,
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.AllDocs(ctx, opts)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
	fs := cmd.Flags()
	fs.Bool("conflicts", false, "Include conflicts of each document, with --include-docs")
	fs.Bool("descending", false, "Return rows in descending key order")
	fs.Bool("include-docs", false, "Include document bodies")
	fs.Bool("inclusive-end", true, "Include rows whose key equals --end-key")
	fs.Bool("update-seq", false, "Include the database's update sequence")
	fs.Int64("limit", 0, "Maximum number of rows")
	fs.Int64("skip", 0, "Number of rows to skip")
	fs.String("key", "", "Return only the row with this key")
	fs.String("start-key", "", "Return rows starting at this key")
	fs.String("end-key", "", "Return rows up to this key")
	fs.String("start-key-doc-id", "", "Document ID to start at, among rows sharing --start-key")
	fs.String("end-key-doc-id", "", "Document ID to stop at, among rows sharing --end-key")
	fs.StringSliceVar(&keys, "keys", nil, "Return only these document IDs")
	return cmd
}
