package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/go-kivik/nano"
)

func infoCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "info",
		Aliases: []string{"version"},
		Short:   "Show the server's welcome message",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := r.client()
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				info, err := client.Info(ctx)
				if err != nil {
					return err
				}
				return r.fmt.Output(info)
			})
		},
	}
}

func listDBsCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "list-dbs",
		Aliases: []string{"all-dbs"},
		Short:   "List all databases",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := r.client()
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				dbs, err := client.AllDBs(ctx)
				if err != nil {
					return err
				}
				return r.fmt.Output(dbs)
			})
		},
	}
}

func createDBCmd(r *root) *cobra.Command {
	var (
		partitioned bool
		q, n        int64
	)
	cmd := &cobra.Command{
		Use:   "create-db <database>",
		Short: "Create a database",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := r.client()
			if err != nil {
				return err
			}
			opts := &nano.CreateDBOptions{}
			flags := cmd.Flags()
			if flags.Changed("partitioned") {
				opts.Partitioned = nano.Some(partitioned)
			}
			if flags.Changed("q") {
				opts.Q = nano.Some(q)
			}
			if flags.Changed("n") {
				opts.N = nano.Some(n)
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				if err := client.CreateDB(ctx, args[0], opts); err != nil {
					return err
				}
				return r.fmt.OK()
			})
		},
	}
	pf := cmd.Flags()
	pf.BoolVar(&partitioned, "partitioned", false, "Create a partitioned database")
	pf.Int64Var(&q, "q", 0, "Number of shards")
	pf.Int64Var(&n, "n", 0, "Number of replicas of each shard")
	return cmd
}

func deleteDBCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "delete-db <database>",
		Aliases: []string{"destroy-db"},
		Short:   "Delete a database",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := r.client()
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				if err := client.DestroyDB(ctx, args[0]); err != nil {
					return err
				}
				return r.fmt.OK()
			})
		},
	}
}

func describeDBCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "describe-db <database>",
		Short: "Describe a database",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := r.db(args[0])
			if err != nil {
				return err
			}
			return r.retry(cmd.Context(), func(ctx context.Context) error {
				info, err := db.Info(ctx)
				if err != nil {
					return err
				}
				return r.fmt.Output(info)
			})
		},
	}
}
