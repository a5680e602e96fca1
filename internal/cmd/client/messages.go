package client

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	msgsvc "github.com/filedrop-io/courier/internal/services/messages"
	"github.com/filedrop-io/courier/internal/spool"
	"github.com/filedrop-io/courier/internal/tailer"
	logpkg "github.com/filedrop-io/courier/pkg/log"
)

// newPostCommand constructs the `post` subcommand.
func newPostCommand(logger logpkg.Logger) *cobra.Command {
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Post a message to a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			room, _ := cmd.Flags().GetString("room")
			text, _ := cmd.Flags().GetString("text")
			replyTo, _ := cmd.Flags().GetString("reply-to")
			attachFlags, _ := cmd.Flags().GetStringArray("attach")

			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			user, err := requireUser(rt.Config())
			if err != nil {
				return err
			}
			attachments, err := parseAttachments(attachFlags)
			if err != nil {
				return err
			}
			svc := msgsvc.New(rt)
			rec, err := svc.Post(cmd.Context(), room, user, text, replyTo, attachments)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "posted:", rec.ID)
			return nil
		},
	}
	postCmd.Flags().StringP("room", "r", "general", "Room")
	postCmd.Flags().StringP("text", "t", "", "Message text")
	postCmd.Flags().String("reply-to", "", "ID of the message being replied to")
	postCmd.Flags().StringArray("attach", nil, "Attachment as relPath:mime[:display], repeatable")
	return postCmd
}

// parseAttachments decodes repeated relPath:mime[:display] flags.
func parseAttachments(flags []string) ([]spool.Attachment, error) {
	var out []spool.Attachment
	for _, f := range flags {
		parts := strings.Split(f, ":")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --attach %q; expected relPath:mime[:display]", f)
		}
		display := spool.DisplayLink
		if len(parts) >= 3 {
			switch parts[2] {
			case spool.DisplayInline, spool.DisplayLink:
				display = parts[2]
			default:
				return nil, fmt.Errorf("invalid display %q; use inline or link", parts[2])
			}
		}
		out = append(out, spool.Attachment{RelPath: parts[0], Mime: parts[1], Display: display})
	}
	return out, nil
}

// newTailCommand constructs the `tail` subcommand.
func newTailCommand(logger logpkg.Logger) *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Show a room's newest messages, optionally following live",
		RunE: func(cmd *cobra.Command, args []string) error {
			room, _ := cmd.Flags().GetString("room")
			lines, _ := cmd.Flags().GetInt("lines")
			follow, _ := cmd.Flags().GetBool("follow")
			filter, _ := cmd.Flags().GetString("filter")
			cursor, _ := cmd.Flags().GetString("cursor")

			rt, err := openRuntime(cmd, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			svc := msgsvc.New(rt)
			out := cmd.OutOrStdout()

			if !follow {
				ev, err := svc.Snapshot(cmd.Context(), room, lines, filter)
				if err != nil {
					return err
				}
				renderEvent(out, ev)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			sess, err := svc.NewSession(msgsvc.SessionOptions{
				Room:       room,
				MaxInitial: lines,
				Cursor:     cursor,
				Filter:     filter,
				Handler:    func(ev tailer.Event) { renderEvent(out, &ev) },
			})
			if err != nil {
				return err
			}
			sess.Start()
			<-ctx.Done()
			sess.Stop()
			fmt.Fprintln(out, "cursor:", sess.Cursor())
			return nil
		},
	}
	tailCmd.Flags().StringP("room", "r", "general", "Room")
	tailCmd.Flags().IntP("lines", "n", 0, "Initial snapshot size (default from config)")
	tailCmd.Flags().BoolP("follow", "f", false, "Keep polling and print new messages")
	tailCmd.Flags().String("filter", "", "CEL filter, e.g. 'from == \"alice\"'")
	tailCmd.Flags().String("cursor", "", "Resume from a previously printed cursor")
	return tailCmd
}

func renderEvent(w io.Writer, ev *tailer.Event) {
	if ev == nil {
		return
	}
	for _, rec := range ev.Records {
		renderRecord(w, rec)
	}
	if ev.Skipped > 0 {
		fmt.Fprintf(w, "(%d unreadable message(s) skipped)\n", ev.Skipped)
	}
}

func renderRecord(w io.Writer, rec *spool.MessageRecord) {
	ts := rec.TS.Time().Local().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", ts, rec.From, rec.Text)
	if rec.ReplyTo != nil {
		line += fmt.Sprintf(" (re %s)", *rec.ReplyTo)
	}
	fmt.Fprintln(w, line)
	for _, a := range rec.Attachments {
		fmt.Fprintf(w, "    attachment: %s (%s, %s)\n", a.RelPath, a.Mime, a.Display)
	}
}
