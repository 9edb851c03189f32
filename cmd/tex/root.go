package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/tex/internal/llm"
	"github.com/NERVsystems/tex/internal/shellhist"
	"github.com/NERVsystems/tex/internal/ui"
)

// rootArgs is the bare-prompt invocation split into the leading root flags
// and the prompt words.
type rootArgs struct {
	setup   bool
	help    bool
	verbose bool
	prompt  []string
}

// parseRootArgs consumes known root flags up to the first other word, so a
// prompt may start with anything that looks like a flag ("-la means what").
// "--" ends flag parsing explicitly.
func parseRootArgs(args []string) rootArgs {
	var r rootArgs
	i := 0
loop:
	for ; i < len(args); i++ {
		switch args[i] {
		case "--setup":
			r.setup = true
		case "-h", "--help":
			r.help = true
		case "-v", "--verbose":
			r.verbose = true
		case "--":
			i++
			break loop
		default:
			break loop
		}
	}
	r.prompt = args[i:]
	return r
}

func newRootCmd(a *app) *cobra.Command {
	var parsed rootArgs

	root := &cobra.Command{
		Use:   "tex [prompt...]",
		Short: "Ask Gemini, OpenAI or Anthropic models from the terminal",
		Long: `tex sends a prompt to the selected model and prints the reply as markdown.
Words that are not a subcommand are sent as a prompt.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Prompt words are not flags; parseRootArgs handles the few root flags
		DisableFlagParsing: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				parsed = parseRootArgs(args)
				a.verbose = a.verbose || parsed.verbose
			}
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case parsed.help:
				return cmd.Help()
			case parsed.setup:
				return runSetup(a)
			case len(parsed.prompt) == 0:
				return cmd.Help()
			}
			return runChat(cmd, a, strings.Join(parsed.prompt, " "), "")
		},
	}
	// Listed in usage; parsed by parseRootArgs
	root.Flags().Bool("setup", false, "Write the default model configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	// "help ..." and "completion ..." are prompts, not cobra builtins
	root.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newChatCmd(a),
		newDebugCmd(a),
		newConfigCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newSelectCmd(a),
		newProvidersCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func runSetup(a *app) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	if err := store.Reset(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Default configuration created at %s\n", store.Path())
	return nil
}

func runChat(cmd *cobra.Command, a *app, prompt, model string) error {
	svc, _, err := a.newService()
	if err != nil {
		return err
	}
	reply, err := svc.Ask(cmd.Context(), prompt, model)
	if err != nil {
		return err
	}
	if reply.Err != nil {
		a.log.Debug().Err(reply.Err).Str("model", reply.Model).Msg("reply failed")
	}
	return nil
}

func newChatCmd(a *app) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "chat <text...>",
		Short: "Send a prompt to the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a, strings.Join(args, " "), model)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use instead of the selected one")
	return cmd
}

func newDebugCmd(a *app) *cobra.Command {
	var (
		count int
		extra string
		model string
	)
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Ask what is wrong with your recent shell commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("number") {
				count = a.settings.DebugCount
			}
			path := a.settings.ShellHistoryPath
			if path == "" {
				var err error
				if path, err = shellhist.DefaultPath(); err != nil {
					return err
				}
			}
			cmds, err := shellhist.Recent(path, count)
			if err != nil {
				return err
			}
			if len(cmds) == 0 {
				return fmt.Errorf("no commands found in %s", path)
			}
			return runChat(cmd, a, shellhist.Prompt(cmds, extra), model)
		},
	}
	cmd.Flags().IntVarP(&count, "number", "n", 3, "Number of recent commands")
	cmd.Flags().StringVarP(&extra, "prompt", "p", "", "Additional explanation prompt")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use instead of the selected one")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	var (
		provider    string
		temperature float64
		maxTokens   int
	)
	cmd := &cobra.Command{
		Use:   "config <model> <api_key>",
		Short: "Configure a model",
		Example: `  tex config gemini-2.5-flash AIza...
  tex config my-proxy-model sk-... --provider openai --temperature 0.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, key := args[0], args[1]
			kind, err := detectProvider(name, provider)
			if err != nil {
				return err
			}

			cfg := llm.NewModelConfig(name, kind.String(), key)
			cfg.Temperature = temperature
			if cmd.Flags().Changed("max-tokens") {
				cfg.MaxTokens = &maxTokens
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Set(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Configured %s (%s)\n", ui.ModelStyle.Render(name), kind.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Provider (auto-detected from the model name if not set)")
	cmd.Flags().Float64Var(&temperature, "temperature", llm.DefaultTemperature, "Temperature (0.0-1.0)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens in a reply")
	return cmd
}

// detectProvider validates an explicit provider tag, or infers one from the
// model name.
func detectProvider(model, explicit string) (llm.Kind, error) {
	if explicit != "" {
		kind, ok := llm.ParseKind(explicit)
		if !ok {
			return llm.KindUnknown, &llm.UnsupportedProviderError{Value: explicit, Supported: llm.SupportedProviders()}
		}
		return kind, nil
	}
	kind, ok := llm.InferKind(model)
	if !ok {
		return llm.KindUnknown, fmt.Errorf("could not auto-detect provider for '%s', specify one with --provider (available: %s)",
			model, strings.Join(llm.SupportedProviders(), ", "))
	}
	return kind, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			models := store.List()
			unreadable := store.Unreadable()
			selected, _ := store.Selected()

			fmt.Fprintln(a.stdout, ui.HeaderStyle.Render("Configured models:"))
			fmt.Fprintln(a.stdout, ui.SeparatorStyle.Render(strings.Repeat("-", 60)))
			if len(models) == 0 && len(unreadable) == 0 {
				fmt.Fprintln(a.stdout, "No models configured.")
				return nil
			}
			for _, name := range store.Names() {
				m := models[name]
				line := ui.ModelStyle.Render(name)
				if name == selected {
					line += " " + ui.SelectedStyle.Render("[SELECTED]")
				}
				provider := m.Provider
				if provider == "" {
					provider = "N/A"
				}
				fmt.Fprintln(a.stdout, line)
				fmt.Fprintf(a.stdout, "  %s %s\n", ui.LabelStyle.Render("Provider:"), provider)
				fmt.Fprintf(a.stdout, "  %s %s\n", ui.LabelStyle.Render("API Key:"), ui.Check(m.APIKey != ""))
				fmt.Fprintf(a.stdout, "  %s %.2f\n", ui.LabelStyle.Render("Temperature:"), m.Temperature)
				if m.MaxTokens != nil {
					fmt.Fprintf(a.stdout, "  %s %d\n", ui.LabelStyle.Render("Max tokens:"), *m.MaxTokens)
				}
				fmt.Fprintln(a.stdout)
			}
			for _, name := range unreadable {
				fmt.Fprintf(a.stdout, "%s %s\n", ui.ModelStyle.Render(name), ui.ErrorStyle.Render("[UNREADABLE]"))
				fmt.Fprintf(a.stdout, "  %s\n\n", ui.LabelStyle.Render("Kept as is; run config again to replace it."))
			}
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Remove a configured model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Removed %s\n", args[0])
			return nil
		},
	}
}

func newSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <model>",
		Short: "Select the default model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.Select(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Selected %s\n", ui.ModelStyle.Render(args[0]))
			return nil
		},
	}
}

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show supported providers and how they are inferred",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "%s %s\n", ui.LabelStyle.Render("Provider tags:"), strings.Join(llm.SupportedProviders(), ", "))
			fmt.Fprintln(a.stdout, ui.LabelStyle.Render("Inferred from model names containing:"))
			for _, p := range llm.ModelPatterns() {
				fmt.Fprintf(a.stdout, "  %-8s %s\n", p.Pattern, p.Kind.DisplayName())
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the rolling chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist := a.openHistory()
			if reset {
				if err := hist.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "History cleared.")
				return nil
			}
			if hist.Len() == 0 {
				fmt.Fprintln(a.stdout, "History is empty.")
				return nil
			}
			fmt.Fprintf(a.stdout, "%s %s (%d/%d turns)\n",
				ui.LabelStyle.Render("Session"), hist.SessionID(), hist.Len(), hist.Capacity())
			for _, t := range hist.Turns() {
				fmt.Fprintf(a.stdout, "%s %s\n", ui.HeaderStyle.Render(t.Role.Label()+":"), t.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "Clear the history and start a new session")
	return cmd
}
