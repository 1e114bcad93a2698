package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/session"
)

var noticeIcons = map[session.NoticeKind]string{
	session.NoticeSuccess: "✅",
	session.NoticeError:   "❌",
	session.NoticeInfo:    "ℹ️ ",
	session.NoticeWarning: "⚠️ ",
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow bookmark changes from every session in real time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.client()
			if err != nil {
				return err
			}

			coll := session.NewCollection(c, ctx.logger())
			// Subscribe first so nothing between the read and the stream is lost.
			events, err := c.Stream(cmd.Context())
			if err != nil {
				return err
			}
			if err := coll.Refresh(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %d bookmarks, Ctrl+C to stop.\n", coll.Len())

			notices := newNoticePrinter(out)
			defer notices.Close()

			return watch(cmd.Context(), coll, events, notices.Notifier)
		},
	}
}

// watch applies events to coll and raises a notice for each one that
// changed it. It returns when events is closed or ctx is done.
func watch(ctx context.Context, coll *session.Collection, events <-chan realtime.Event, notices *session.Notifier) error {
	err := coll.Run(ctx, events, func(e realtime.Event) {
		switch e.Type {
		case realtime.EventInsert:
			notices.Success(fmt.Sprintf("Added %q [%s] (%d total)", e.New.Title, e.New.Category, coll.Len()))
		case realtime.EventUpdate:
			notices.Info(fmt.Sprintf("Updated %q", e.New.Title))
		case realtime.EventDelete:
			notices.Info(fmt.Sprintf("Removed %s (%d total)", e.ID, coll.Len()))
		}
	})
	if err != nil || ctx.Err() != nil {
		// Interrupted by the user.
		return nil
	}
	notices.Warning("Change feed closed by the server")
	return nil
}

// noticePrinter writes each notice once, when it appears.
type noticePrinter struct {
	*session.Notifier
	mu      sync.Mutex
	out     io.Writer
	printed uint64
}

func newNoticePrinter(out io.Writer) *noticePrinter {
	p := &noticePrinter{Notifier: session.NewNotifier(), out: out}
	p.OnChange = p.flush
	return p
}

func (p *noticePrinter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.Active() {
		if n.ID <= p.printed {
			continue
		}
		p.printed = n.ID
		fmt.Fprintf(p.out, "%s %s\n", noticeIcons[n.Kind], n.Message)
	}
}
