package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/go-kivik/nano"
	"github.com/go-kivik/nano/cmd/nano/errors"
	"github.com/go-kivik/nano/cmd/nano/input"
)

// mangoQuery is the JSON form of a query given on the command line.
type mangoQuery struct {
	Selector       json.RawMessage `json:"selector"`
	Sort           []interface{}   `json:"sort"`
	Fields         []string        `json:"fields"`
	Limit          *int64          `json:"limit"`
	Skip           *int64          `json:"skip"`
	UseIndex       json.RawMessage `json:"use_index"`
	Conflicts      *bool           `json:"conflicts"`
	R              *int64          `json:"r"`
	Bookmark       *string         `json:"bookmark"`
	Update         *bool           `json:"update"`
	Stable         *bool           `json:"stable"`
	ExecutionStats *bool           `json:"execution_stats"`
}

func optional[T any](v *T) nano.Optional[T] {
	if v == nil {
		return nano.Optional[T]{}
	}
	return nano.Some(*v)
}

// useIndex accepts a design document name, or a [ddoc, index] pair.
func useIndex(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var name string
	if json.Unmarshal(raw, &name) == nil {
		return []string{name}, nil
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, errors.Code(errors.ErrUsage, "use_index must be a string or an array of strings")
	}
	return pair, nil
}

func (q *mangoQuery) query() (*nano.MangoQuery, error) {
	if len(q.Selector) == 0 {
		return nil, errors.Code(errors.ErrUsage, "query selector required")
	}
	idx, err := useIndex(q.UseIndex)
	if err != nil {
		return nil, err
	}
	return &nano.MangoQuery{
		Selector:       q.Selector,
		Sort:           q.Sort,
		Fields:         q.Fields,
		Limit:          optional(q.Limit),
		Skip:           optional(q.Skip),
		UseIndex:       idx,
		Conflicts:      optional(q.Conflicts),
		R:              optional(q.R),
		Bookmark:       optional(q.Bookmark),
		Update:         optional(q.Update),
		Stable:         optional(q.Stable),
		ExecutionStats: optional(q.ExecutionStats),
	}, nil
}

func findCmd(r *root) *cobra.Command {
	in := input.New()
	cmd := &cobra.Command{
		Use:   "find <database>",
		Short: "Run a Mango query",
		Long:  `Run the Mango query given with --data or --data-file, such as {"selector":{"type":"user"},"limit":10}.`,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.SetStdin(cmd.InOrStdin())
			var q mangoQuery
			if err := in.As(&q); err != nil {
				return err
			}
			query, err := q.query()
			if err != nil {
				return err
			}
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.Find(ctx, query)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
	in.ConfigFlags(cmd.Flags())
	return cmd
}

func createIndexCmd(r *root) *cobra.Command {
	in := input.New()
	cmd := &cobra.Command{
		Use:   "create-index <database>",
		Short: "Create a Mango index",
		Long:  `Create the index given with --data or --data-file, such as {"index":{"fields":["type"]},"ddoc":"by-type","name":"type"}.`,
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.SetStdin(cmd.InOrStdin())
			var def struct {
				Index struct {
					Fields                []interface{}   `json:"fields"`
					PartialFilterSelector json.RawMessage `json:"partial_filter_selector"`
				} `json:"index"`
				DDoc        *string `json:"ddoc"`
				Name        *string `json:"name"`
				Type        *string `json:"type"`
				Partitioned *bool   `json:"partitioned"`
			}
			if err := in.As(&def); err != nil {
				return err
			}
			idx := &nano.IndexDefinition{
				Fields:      def.Index.Fields,
				DDoc:        optional(def.DDoc),
				Name:        optional(def.Name),
				Type:        optional(def.Type),
				Partitioned: optional(def.Partitioned),
			}
			if len(def.Index.PartialFilterSelector) > 0 {
				idx.PartialFilterSelector = def.Index.PartialFilterSelector
			}
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.CreateIndex(ctx, idx)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
	in.ConfigFlags(cmd.Flags())
	return cmd
}

func listIndexesCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "list-indexes <database>",
		Short: "List a database's indexes",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				result, err := db.GetIndexes(ctx)
				if err != nil {
					return err
				}
				return r.fmt.Output(result)
			})
		},
	}
}

func deleteIndexCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-index <database> <ddoc> <name>",
		Short: "Delete a Mango index",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				if err := db.DeleteIndex(ctx, args[1], args[2]); err != nil {
					return err
				}
				return r.fmt.OK()
			})
		},
	}
}
