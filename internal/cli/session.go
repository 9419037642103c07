package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/litikesh/Patient-Record-Management-System/internal/app"
	"github.com/litikesh/Patient-Record-Management-System/internal/broadcast"
	"github.com/litikesh/Patient-Record-Management-System/internal/records"
)

// session is one command's view of the database.
type session struct {
	app       *app.App
	bridge    *broadcast.Bridge // nil when other processes cannot be reached
	formatter *OutputFormatter
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openSession loads configuration and initializes the database. The caller
// must close the session.
//
// A CLI process is a single context. Its hub is bridged to the other prms
// processes using the same database, so their announcements reach this
// session and this session's reach them. Without a bridge the session still
// works, and announcements only update the local last-event slot.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	formatter := newFormatter(opts, cmd)

	cfg, err := opts.Config()
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("Using database %s", cfg.DBPath)

	hub := broadcast.NewHub()
	bridge, err := broadcast.OpenBridge(hub, cfg.SyncRendezvous(), cfg.Channel)
	if err != nil {
		slog.Warn("sync bridge unavailable; other processes will not see changes", "error", err)
		bridge = nil
	}

	s := &session{
		app:       app.New(records.New(cfg.Records()), broadcast.Open(hub, cfg.Channel)),
		bridge:    bridge,
		formatter: formatter,
	}
	if err := s.app.Start(ctx); err != nil {
		s.Close()
		return nil, formatter.Fail(err)
	}
	return s, nil
}

// Close closes the app before the bridge, so the bridge still sends the
// announcements of the session's last write.
func (s *session) Close() {
	s.app.Close()
	if s.bridge != nil {
		if err := s.bridge.Close(); err != nil {
			slog.Debug("sync bridge close failed", "error", err)
		}
	}
}
