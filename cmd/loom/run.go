package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fogfish/opts"
	"github.com/spf13/cobra"

	"github.com/casualjim/loom/broker"
	"github.com/casualjim/loom/flowfile"
	"github.com/casualjim/loom/internal/console"
	"github.com/casualjim/loom/pkg/natsx"
	"github.com/casualjim/loom/pkg/slogx"
	"github.com/casualjim/loom/provider"
	"github.com/casualjim/loom/provider/openai"
	"github.com/casualjim/loom/runner"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/store"
)

var runCmd = &cobra.Command{
	Use:   "run <flowfile>",
	Short: "Drive a flowfile conversation on this terminal",
	Long: `Loads the given flowfile and drives the conversation on this terminal.
Model turns go to OpenAI unless --offline is set, user turns are read from
stdin, and the finished transcript can be archived with --save.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runFlow(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("model", "", "OpenAI model name (defaults to $LOOM_DEFAULT_MODEL)")
	runCmd.Flags().Bool("offline", false, "Echo user input back instead of calling a model")
	runCmd.Flags().Int("max-messages", 0, "Stop the run after this many messages (0 = unlimited)")
	runCmd.Flags().String("start-at", "", "Start at this node instead of the root")
	runCmd.Flags().String("save", "", "Archive the transcript (file path for SQLite, redis:// for Redis)")
	runCmd.Flags().Bool("nats", false, "Publish run events to NATS ($NATS_URL)")
	runCmd.MarkFlagsMutuallyExclusive("model", "offline")
}

func runFlow(cmd *cobra.Command, path string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fl, err := flowfile.Load(path)
	if err != nil {
		return err
	}

	st := session.New(session.WithVars(fl.Vars))

	options := []opts.Option[runner.Runner]{
		runner.WithModel(pickModel(cmd)),
		runner.WithPrompter(runner.Console()),
		runner.WithHook(console.New(os.Stdout)),
	}
	if maxMessages, _ := cmd.Flags().GetInt("max-messages"); maxMessages > 0 {
		options = append(options, runner.WithMaxMessages(maxMessages))
	}
	if startAt, _ := cmd.Flags().GetString("start-at"); startAt != "" {
		options = append(options, runner.WithStartAt(startAt))
	}
	if useNATS, _ := cmd.Flags().GetBool("nats"); useNATS {
		nc, err := natsx.NewClient()
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				slog.Warn("draining NATS connection", slogx.Error(err))
			}
		}()
		topic := broker.NATS(nc).Topic(ctx, "loom.events."+st.ID().String())
		options = append(options, runner.WithTopic(topic))
	}

	r, err := runner.New(fl.Root, options...)
	if err != nil {
		return err
	}

	final, runErr := r.Run(ctx, st)

	if dsn, _ := cmd.Flags().GetString("save"); dsn != "" {
		if err := archive(ctx, dsn, final); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

func pickModel(cmd *cobra.Command) session.ModelSender {
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		return provider.Echo()
	}
	if name, _ := cmd.Flags().GetString("model"); name != "" {
		return openai.Model(name)
	}
	return openai.Default()
}

func archive(ctx context.Context, dsn string, st *session.State) error {
	s, err := openStore(dsn)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", dsn, err)
	}
	defer s.Close()

	tr := store.Transcript{
		RunID:    st.ID().String(),
		Messages: st.Messages(),
		Vars:     st.Vars(),
	}
	if err := s.Save(ctx, tr); err != nil {
		return err
	}
	fmt.Printf("Archived transcript %s\n", tr.RunID)
	return nil
}

func openStore(dsn string) (store.Store, error) {
	if addr, ok := strings.CutPrefix(dsn, "redis://"); ok {
		return store.NewRedis(addr)
	}
	return store.NewSQLite(dsn)
}
