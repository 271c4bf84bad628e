package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/strollcast/strollcast/internal/history"
	"github.com/strollcast/strollcast/internal/kv"
	"github.com/strollcast/strollcast/internal/notes"
	"github.com/strollcast/strollcast/internal/player"
)

const playHelp = `Commands:
  p          play / pause
  f          skip forward 15s
  b          skip back 15s
  B          go back 30s
  s <sec>    seek to an absolute position
  g          go to the referenced episode
  v          previous episode
  n <text>   add a timestamped note
  i          show playback status
  q          quit`

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play [episode-id]",
		Short: "Play an episode (defaults to the last played one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			// One live player per data directory.
			lock := flock.New(filepath.Join(cfg.DataDir, "play.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire player lock: %w", err)
			}
			if !ok {
				return errors.New("another strollcast player is already running")
			}
			defer lock.Unlock()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := ctx.newCatalog()
			if err != nil {
				return err
			}

			id := ""
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = store.Get("last_episode")
				if err != nil {
					if errors.Is(err, kv.ErrNotFound) {
						return errors.New("no episode id given and nothing played before")
					}
					return err
				}
			}

			episode, err := ctx.lookupEpisode(cmd.Context(), client, id)
			if err != nil {
				return err
			}

			tracker, err := ctx.newTracker()
			if err != nil {
				return err
			}
			noteStore, err := ctx.newNotesStore()
			if err != nil {
				return err
			}
			transcripts, err := ctx.newTranscripts()
			if err != nil {
				return err
			}

			transport, err := player.NewMPVTransport(logger)
			if err != nil {
				return err
			}

			session := player.NewSession(player.Deps{
				Transport:   transport,
				Catalog:     client,
				Store:       store,
				Notes:       noteStore,
				Transcripts: transcripts,
				Tracker:     tracker,
				History:     history.New(),
				Chimer:      player.TerminalBell{Out: cmd.OutOrStdout()},
				Logger:      logger,
			}, player.Options{
				TickInterval:  time.Duration(cfg.TickIntervalMS) * time.Millisecond,
				SkipSeconds:   float64(cfg.SkipSeconds),
				GoBackSeconds: float64(cfg.GoBackSeconds),
			})
			defer session.Close()

			done := make(chan struct{})
			go watchSession(cmd, session, done)

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(interrupt)
			go func() {
				<-interrupt
				close(done)
				session.Stop()
				session.Close()
				// The command loop is blocked on stdin; the kernel releases
				// the player lock with the process.
				os.Exit(0)
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%s)\n%s\n", episode.Title, episode.ID, playHelp)
			session.Load(episode, true)

			readCommands(cmd, session, done)
			return nil
		},
	}
}

// watchSession prints state transitions and chimes until done closes. It
// also starts playback whenever a freshly loaded episode reports ready.
func watchSession(cmd *cobra.Command, session *player.Session, done chan struct{}) {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-done:
			return
		case ev := <-session.Events():
			switch ev.Kind {
			case player.EventStateChanged:
				switch ev.State {
				case player.Ready:
					fmt.Fprintf(out, "Ready at %s / %s\n",
						notes.FormatTimestamp(ev.Position), notes.FormatTimestamp(ev.Duration))
					session.Play()
				case player.Completed:
					fmt.Fprintln(out, "Finished.")
				case player.Failed:
					fmt.Fprintf(out, "Playback failed: %s\n", ev.Message)
				}
			case player.EventChime:
				fmt.Fprintf(out, "Reference available at %s (press g)\n",
					notes.FormatTimestamp(ev.Position))
			}
		}
	}
}

func readCommands(cmd *cobra.Command, session *player.Session, done chan struct{}) {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")

		switch verb {
		case "p":
			if session.Snapshot().State == player.Playing {
				session.Pause()
			} else {
				session.Play()
			}
		case "f":
			session.SkipForward()
		case "b":
			session.SkipBack()
		case "B":
			session.GoBackCommand()
		case "s":
			seconds, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				fmt.Fprintln(out, "Usage: s <seconds>")
				continue
			}
			session.Seek(seconds)
		case "g":
			if err := session.GoToReference(); err != nil {
				fmt.Fprintln(out, err)
			}
		case "v":
			if err := session.PreviousEpisode(); err != nil {
				fmt.Fprintln(out, err)
			}
		case "n":
			text := strings.TrimSpace(rest)
			if text == "" {
				fmt.Fprintln(out, "Usage: n <text>")
				continue
			}
			if err := session.AddComment(text); err != nil {
				fmt.Fprintln(out, err)
			}
		case "i":
			st := session.Snapshot()
			fmt.Fprintf(out, "%s  %s / %s  [%s]\n", st.Episode.ID,
				notes.FormatTimestamp(st.Position), notes.FormatTimestamp(st.Duration), st.State)
		case "q":
			session.Stop()
			return
		case "h", "help", "?":
			fmt.Fprintln(out, playHelp)
		default:
			fmt.Fprintf(out, "Unknown command %q (h for help)\n", verb)
		}
	}
}
