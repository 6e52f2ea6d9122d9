package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/cmd/nano/input"
)

func bulkDocsCmd(r *root) *cobra.Command {
	in := input.New()
	cmd := &cobra.Command{
		Use:   "bulk-docs <database>",
		Short: "Write several documents at once",
		Long:  `Write the documents given with --data or --data-file, either as an array or as an object with a "docs" array. Documents rejected by the server are reported in the results, and set the exit status to 5.`,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.SetStdin(cmd.InOrStdin())
			docs, err := bulkInput(in)
			if err != nil {
				return err
			}
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			opts := &nano.BulkDocsOptions{NewEdits: boolOpt(cmd.Flags(), "new-edits")}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				results, err := db.BulkDocs(ctx, docs, opts)
				if err != nil {
					return err
				}
				if err := r.fmt.Output(results); err != nil {
					return err
				}
				failed := 0
				for _, res := range results {
					if res.Failed() {
						failed++
					}
				}
				if failed > 0 {
					return errors.Codef(errors.ErrRemote, "%d of %d documents rejected", failed, len(results))
				}
				return nil
			})
		},
	}
	in.ConfigFlags(cmd.Flags())
	cmd.Flags().Bool("new-edits", true, "Set to false to store the documents' revisions as given")
	return cmd
}

func bulkInput(in *input.Input) ([]interface{}, error) {
	data, err := in.JSONData()
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if json.Unmarshal(data, &list) != nil {
		var obj struct {
			Docs []json.RawMessage `json:"docs"`
		}
		if err := json.Unmarshal(data, &obj); err != nil || obj.Docs == nil {
			return nil, errors.Code(errors.ErrUsage, "expected an array of documents, or an object with a docs array")
		}
		list = obj.Docs
	}
	docs := make([]interface{}, len(list))
	for i, doc := range list {
		docs[i] = doc
	}
	return docs, nil
}

func bulkGetCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-get <database> <docid>[@rev]...",
		Short: "Fetch several documents, or revisions, at once",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			refs := make([]nano.DocRef, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, rev, _ := strings.Cut(arg, "@")
				refs = append(refs, nano.DocRef{ID: id, Rev: rev})
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.BulkGet(ctx, refs)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
}

func purgeCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <database> <docid>...",
		Short: "Permanently remove documents and all their revisions",
		Args:  usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			r.log.Debugf("will purge %v from %s", args[1:], args[0])
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.Purge(ctx, args[1:]...)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
}
