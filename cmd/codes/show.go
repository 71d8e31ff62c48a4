package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sib-utrecht/portal/countdown"
)

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [committee-id...]",
		Short: "Print the current codes once",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ids, labels, err := resolve(cmd.Context(), c, args)
			if err != nil {
				return err
			}

			res, err := c.GenerateCodes(cmd.Context(), ids)
			if err != nil {
				return err
			}

			now := time.Now()
			render(cmd.OutOrStdout(), labels, countdown.State{
				Ring:    countdown.RingAt(now, res.EndTime),
				Codes:   res.Secrets,
				EndTime: res.EndTime,
				Now:     now,
			}, nil)
			return nil
		},
	}
}
