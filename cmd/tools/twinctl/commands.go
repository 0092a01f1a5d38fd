package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/supervisor"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/tools"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
)

var personaID int64
var seedFile string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Route a question to the best persona and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat <question>",
	Short: "Ask one persona a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load personas into the configured store",
	Long: `Load personas into the configured store.

Without --file the built-in personas are used. Seeding is skipped when the
store already holds personas.`,
	RunE: runSeed,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the relational schema",
	RunE:  runMigrate,
}

func init() {
	chatCmd.Flags().Int64VarP(&personaID, "persona", "p", 0, "persona id to ask")
	_ = chatCmd.MarkFlagRequired("persona")
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with persona profiles")
}

// agents builds the model-backed services; it fails when no chat model is configured.
func (rt *app) agents(ctx context.Context) (*ai.Service, *agent.Agent, *supervisor.Supervisor, error) {
	if !rt.cfg.AI.Enabled() {
		return nil, nil, nil, errors.New("chat model not configured: set ARK_API_KEY and Model")
	}
	chatModel, err := rt.cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := tools.NewDefaultRegistry(rt.cfg.Tools)
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := agent.New(ctx, chatModel, registry, agent.Config{
		MaxIterations:    rt.cfg.Agent.MaxIterations,
		MaxParseFailures: rt.cfg.Agent.MaxParseFailures,
	}, rt.log)
	if err != nil {
		return nil, nil, nil, err
	}
	briefings := ai.NewService(rt.db, rt.log)
	router, err := supervisor.NewRouter(ctx, chatModel)
	if err != nil {
		return nil, nil, nil, err
	}
	sup, err := supervisor.New(ctx, briefings, router, a, rt.cfg.Agent.Confidence, rt.log)
	if err != nil {
		return nil, nil, nil, err
	}
	return briefings, a, sup, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	_, _, sup, err := rt.agents(ctx)
	if err != nil {
		return err
	}
	res, ok := sup.Ask(ctx, strings.Join(args, " "), printSteps(cmd))
	if !ok {
		return errors.New("no persona could answer")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, confidence %.2f):\n%s\n", res.Persona, res.Route, res.Confidence, res.Answer)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	briefings, a, _, err := rt.agents(ctx)
	if err != nil {
		return err
	}
	b, found, err := briefings.Briefing(ctx, personaID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("persona %s not found", strconv.FormatInt(personaID, 10))
	}
	res, err := a.Run(ctx, b, strings.Join(args, " "), printSteps(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s\n", b.Name, res.Answer)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	profiles := persona.Seed()
	if seedFile != "" {
		if profiles, err = persona.LoadSeedFile(seedFile); err != nil {
			return err
		}
	}
	n, err := store.SeedIfEmpty(ctx, rt.db, profiles)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "store already has personas, nothing seeded")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d personas\n", n)
	return nil
}

// runMigrate relies on store.New, which migrates relational drivers on open.
func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, ok := rt.db.(*store.Memory); ok {
		fmt.Fprintln(cmd.OutOrStdout(), "memory store selected, nothing to migrate")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", rt.cfg.Database.Driver)
	return nil
}

func printSteps(cmd *cobra.Command) agent.RunOption {
	return agent.WithStepHandler(func(t agent.Trace) {
		if !verbose {
			return
		}
		out := cmd.ErrOrStderr()
		switch {
		case t.Tool != "":
			fmt.Fprintf(out, "[%d] %s(%q) -> %s\n", t.Iteration, t.Tool, t.Input, t.Observation)
		case t.Thought != "":
			fmt.Fprintf(out, "[%d] %s\n", t.Iteration, t.Thought)
		}
	})
}
