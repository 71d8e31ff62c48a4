package main

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sib-utrecht/portal/clipboard"
	"github.com/sib-utrecht/portal/countdown"
)

const clearScreen = "\x1b[H\x1b[2J"

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [committee-id...]",
		Short: "Keep the codes on screen; type a number and enter to copy that code, q to quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ids, labels, err := resolve(ctx, c, args)
			if err != nil {
				return err
			}

			states := make(chan countdown.State, 1)
			toasts := make(chan *clipboard.Toast, 1)

			controller := countdown.New(c, ids, countdown.OnChange(func(s countdown.State) {
				latest(states, s)
			}))
			feedback := clipboard.New(clipboard.OnToast(func(t *clipboard.Toast) {
				latest(toasts, t)
			}))
			controller.Start(ctx)
			defer controller.Stop()
			defer feedback.Close()

			lines := readLines(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var state countdown.State
			var toast *clipboard.Toast
			var previous []byte
			for {
				select {
				case <-ctx.Done():
					return nil
				case state = <-states:
				case toast = <-toasts:
				case line, ok := <-lines:
					if !ok {
						lines = nil
						continue
					}
					if line == "q" {
						return nil
					}
					if n, err := strconv.Atoi(line); err == nil && n > 0 && n <= len(state.Codes) {
						feedback.Copy(state.Codes[n-1], n-1, 0, n)
					}
					continue
				}

				var buf bytes.Buffer
				render(&buf, labels, state, toast)
				if !bytes.Equal(buf.Bytes(), previous) {
					previous = buf.Bytes()
					io.WriteString(out, clearScreen)
					out.Write(previous)
				}
			}
		},
	}
}

// latest replaces whatever is buffered in ch with v, never blocking.
func latest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}
