package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sib-utrecht/portal/client"
)

func committeesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "committees",
		Short: "List the committees you are a member of",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			committees, err := c.Committees(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tMEMBERS")
			for _, committee := range committees {
				fmt.Fprintf(w, "%s\t%s\t%d\n", committee.Name, committee.Id, len(committee.Members))
			}
			return w.Flush()
		},
	}
}

// resolve returns the requested ids and their names, or all of the
// caller's committees when none are given.
func resolve(ctx context.Context, c *client.Client, ids []string) ([]string, []string, error) {
	committees, err := c.Committees(ctx)
	if err != nil {
		return nil, nil, err
	}

	names := make(map[string]string, len(committees))
	for _, committee := range committees {
		names[committee.Id] = committee.Name
	}

	if len(ids) == 0 {
		for _, committee := range committees {
			ids = append(ids, committee.Id)
		}
	}

	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = names[id]
		if labels[i] == "" {
			labels[i] = id
		}
	}
	return ids, labels, nil
}
