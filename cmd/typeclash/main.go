package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/venh/typeclash/internal/config"
	"github.com/venh/typeclash/internal/engine"
	"github.com/venh/typeclash/internal/model"
	"github.com/venh/typeclash/internal/stats"
	"github.com/venh/typeclash/internal/store"
	"github.com/venh/typeclash/internal/tui"
	"github.com/venh/typeclash/internal/wordlist"
)

var (
	langFlag             string
	difficultyFlag       string
	playerLevelFlag      int
	timeLimitFlag        int
	enemyAttackEveryFlag int
	guardWindowFlag      int
	enemyBaseDamageFlag  int
	wordsFileFlag        string
	maxWPMFlag           float64
	minCharTimeMsFlag    int64
	maxPerfectFlag       int
	minVarianceMsFlag    float64
	streakResetFlag      bool
	noHistoryFlag        bool
	maxHistoryFlag       int
	noValidateFlag       bool
	debugLogFlag         bool
)

func main() {
	root := newRootCmd()
	root.AddCommand(newConfigCmd())
	root.AddCommand(newLangsCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typeclash",
		Short: "Typing battle game in the terminal",
		Long: "typeclash is a terminal typing battle: heal, attack and guard\n" +
			"by typing the offered words faster and cleaner than the enemy.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
			if err != nil {
				logErrf("Failed to load config: %v\n", err)
				return err
			}
			applyFileConfig(cmd, fileCfg)

			if err := validateBattleFlags(); err != nil {
				logErrln(err.Error())
				return err
			}

			words, err := loadBattleWords(cmd)
			if err != nil {
				return err
			}

			st, err := store.Open(config.DefaultDBPath())
			if err != nil {
				logErrf("Failed to open battle history db: %v\n", err)
				return err
			}
			defer st.Close()

			gameCfg := battleConfig()
			game, err := engine.New(model.SessionSeed{
				PackID:     langFlag,
				Difficulty: model.Difficulty(difficultyFlag),
				Words:      words,
				TimeLimit:  timeLimitFlag,
			}, gameCfg, engine.Deps{Log: newLogger()})
			if err != nil {
				logErrf("Failed to create battle: %v\n", err)
				return err
			}
			if err := game.Mount(); err != nil {
				logErrf("Failed to start battle: %v\n", err)
				return err
			}

			program := tea.NewProgram(tui.NewModel(game, st), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				logErrf("Failed to run: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "en", "word list language")
	cmd.Flags().StringVarP(&difficultyFlag, "difficulty", "d", "normal", "battle difficulty: easy, normal or hard")
	cmd.Flags().IntVar(&playerLevelFlag, "player-level", 1, "player level, 1..10")
	cmd.Flags().IntVarP(&timeLimitFlag, "time-limit", "t", 120, "battle time limit in seconds")
	cmd.Flags().IntVar(&enemyAttackEveryFlag, "enemy-attack-every", 8, "quiet seconds before the enemy telegraphs an attack")
	cmd.Flags().IntVar(&guardWindowFlag, "guard-window", 5, "seconds to finish the guard word")
	cmd.Flags().IntVar(&enemyBaseDamageFlag, "enemy-base-damage", 10, "base damage of an unguarded enemy attack")
	cmd.Flags().StringVar(&wordsFileFlag, "words-file", "", "path to a custom word list file")
	cmd.Flags().Float64Var(&maxWPMFlag, "max-wpm", 250, "instantaneous WPM ceiling before input is rejected")
	cmd.Flags().Int64Var(&minCharTimeMsFlag, "min-char-time-ms", 50, "minimum milliseconds between keystrokes")
	cmd.Flags().IntVar(&maxPerfectFlag, "max-consecutive-perfect", 15, "perfect words in a row before flagging")
	cmd.Flags().Float64Var(&minVarianceMsFlag, "min-variance-ms", 12, "minimum keystroke interval variance before flagging")
	cmd.Flags().BoolVar(&streakResetFlag, "streak-reset-per-round", false, "reset the perfect-word streak every round")
	cmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "disable state transition history")
	cmd.Flags().IntVar(&maxHistoryFlag, "max-history", 100, "state transition history size")
	cmd.Flags().BoolVar(&noValidateFlag, "no-validate", false, "disable state invariant validation")
	cmd.Flags().BoolVar(&debugLogFlag, "debug-log", false, "write a debug log next to the battle db")

	return cmd
}

// applyFileConfig overlays the TOML file onto flag values. A flag the
// user set explicitly always beats the file.
func applyFileConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "lang", &langFlag, fileCfg.Battle.Lang)
	applyStringConfig(cmd, "difficulty", &difficultyFlag, fileCfg.Battle.Difficulty)
	applyIntConfig(cmd, "player-level", &playerLevelFlag, fileCfg.Battle.PlayerLevel)
	applyIntConfig(cmd, "time-limit", &timeLimitFlag, fileCfg.Battle.TimeLimit)
	applyIntConfig(cmd, "enemy-attack-every", &enemyAttackEveryFlag, fileCfg.Battle.EnemyAttackEvery)
	applyIntConfig(cmd, "guard-window", &guardWindowFlag, fileCfg.Battle.GuardWindow)
	applyIntConfig(cmd, "enemy-base-damage", &enemyBaseDamageFlag, fileCfg.Battle.EnemyBaseDamage)

	applyFloatConfig(cmd, "max-wpm", &maxWPMFlag, fileCfg.AntiCheat.MaxWPM)
	applyInt64Config(cmd, "min-char-time-ms", &minCharTimeMsFlag, fileCfg.AntiCheat.MinCharTimeMs)
	applyIntConfig(cmd, "max-consecutive-perfect", &maxPerfectFlag, fileCfg.AntiCheat.MaxConsecutivePerfect)
	applyFloatConfig(cmd, "min-variance-ms", &minVarianceMsFlag, fileCfg.AntiCheat.MinVarianceMs)
	applyBoolConfig(cmd, "streak-reset-per-round", &streakResetFlag, fileCfg.AntiCheat.StreakResetPerRound)

	if fileCfg.State.History != nil && !cmd.Flags().Changed("no-history") {
		noHistoryFlag = !*fileCfg.State.History
	}
	applyIntConfig(cmd, "max-history", &maxHistoryFlag, fileCfg.State.MaxHistory)
	if fileCfg.State.Validate != nil && !cmd.Flags().Changed("no-validate") {
		noValidateFlag = !*fileCfg.State.Validate
	}
	applyBoolConfig(cmd, "debug-log", &debugLogFlag, fileCfg.State.Logging)
}

func applyStringConfig(cmd *cobra.Command, name string, target *string, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target *int, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target *int64, value *int64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target *float64, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target *bool, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateBattleFlags() error {
	switch model.Difficulty(difficultyFlag) {
	case model.DifficultyEasy, model.DifficultyNormal, model.DifficultyHard:
	default:
		return fmt.Errorf("invalid difficulty %q: want easy, normal or hard", difficultyFlag)
	}
	if playerLevelFlag < 1 || playerLevelFlag > 10 {
		return fmt.Errorf("invalid player level %d: want 1..10", playerLevelFlag)
	}
	if timeLimitFlag < 10 {
		return fmt.Errorf("invalid time limit %d: want at least 10 seconds", timeLimitFlag)
	}
	if guardWindowFlag < 1 || enemyAttackEveryFlag < 1 {
		return fmt.Errorf("enemy-attack-every and guard-window must be positive")
	}
	return nil
}

func battleConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Difficulty = model.Difficulty(difficultyFlag)
	cfg.PlayerLevel = playerLevelFlag
	cfg.TimeLimit = timeLimitFlag
	cfg.EnemyAttackEvery = enemyAttackEveryFlag
	cfg.GuardWindow = guardWindowFlag
	cfg.EnemyBaseDamage = enemyBaseDamageFlag

	cfg.Typing.MaxWPM = maxWPMFlag
	cfg.Typing.MinCharTimeMs = minCharTimeMsFlag
	cfg.Typing.MaxConsecutivePerfect = maxPerfectFlag
	cfg.Typing.MinVarianceMs = minVarianceMsFlag
	cfg.Typing.StreakResetPerRound = streakResetFlag

	cfg.State.EnableHistory = !noHistoryFlag
	cfg.State.MaxHistorySize = maxHistoryFlag
	cfg.State.ValidateTransitions = !noValidateFlag
	cfg.State.EnableLogging = debugLogFlag
	return cfg
}

// loadBattleWords loads the word pool from --words-file, the installed
// list for --lang, or the built-in starter pool.
func loadBattleWords(cmd *cobra.Command) ([]model.Word, error) {
	path := wordsFileFlag
	if path == "" {
		path = config.DefaultWordListPath(langFlag)
		if _, err := os.Stat(path); os.IsNotExist(err) && !cmd.Flags().Changed("lang") {
			return wordlist.Builtin(), nil
		}
	}
	words, err := wordlist.LoadWords(path)
	if err != nil {
		logErrln(wordListLoadError(path, err))
		return nil, err
	}
	words = wordlist.FilterWords(words, wordlist.FilterForLang(langFlag))
	if len(words) == 0 {
		err := fmt.Errorf("word list %s has no usable words", path)
		logErrln(err.Error())
		return nil, err
	}
	return words, nil
}

func wordListLoadError(path string, err error) string {
	return fmt.Sprintf(`Failed to load word list: %v

Word lists are plain text files, one word per line:
    text[,level[,category]]

Install one at:
    %s

or pass --words-file to use a custom list.`, err, path)
}

// newLogger writes the debug log next to the battle database so it
// never interleaves with the TUI.
func newLogger() zerolog.Logger {
	if !debugLogFlag {
		return zerolog.Nop()
	}
	path := filepath.Join(filepath.Dir(config.DefaultDBPath()), "typeclash.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Open the configuration file in your editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					logErrf("Failed to create config directory: %v\n", err)
					return err
				}
				if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
					logErrf("Failed to write config template: %v\n", err)
					return err
				}
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "vi"
			}
			edit := exec.Command(editor, path)
			edit.Stdin = os.Stdin
			edit.Stdout = os.Stdout
			edit.Stderr = os.Stderr
			if err := edit.Run(); err != nil {
				logErrf("Failed to open editor: %v\n", err)
				return err
			}

			if _, err := config.LoadConfig(path); err != nil {
				logErrf("Config saved with errors: %v\n", err)
				return err
			}
			return nil
		},
	}
}

func defaultConfigTemplate() string {
	return `# typeclash configuration.
# Uncomment a line to override the default. CLI flags beat this file.

[battle]
# lang = "en"
# difficulty = "normal"      # easy, normal or hard
# player-level = 1
# time-limit = 120           # seconds
# enemy-attack-every = 8     # quiet seconds before the enemy attacks
# guard-window = 5           # seconds to finish the guard word
# enemy-base-damage = 10

[anticheat]
# max-wpm = 250.0
# min-char-time-ms = 50
# max-consecutive-perfect = 15
# min-variance-ms = 12.0
# streak-reset-per-round = false

[state]
# history = true
# max-history = 100
# validate = true
# logging = false
`
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List installed word lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.DefaultWordListDir()
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("No word lists installed; the built-in English pool is used.\nInstall .txt files under %s\n", dir)
					return nil
				}
				logErrf("Failed to read word list directory: %v\n", err)
				return err
			}

			var langs []string
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
					continue
				}
				langs = append(langs, strings.TrimSuffix(name, ".txt"))
			}
			if len(langs) == 0 {
				fmt.Printf("No word lists installed; the built-in English pool is used.\nInstall .txt files under %s\n", dir)
				return nil
			}
			for _, lang := range langs {
				fmt.Println(lang)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var (
		difficulty  string
		since       string
		last        int
		trendWindow int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show battle history and trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f store.Filter
			if difficulty != "" {
				f.Difficulty = model.Difficulty(difficulty)
			}
			if since != "" {
				ts, err := time.Parse("2006-01-02", since)
				if err != nil {
					logErrf("Invalid --since %q: want YYYY-MM-DD\n", since)
					return err
				}
				f.Since = &ts
			}

			st, err := store.Open(config.DefaultDBPath())
			if err != nil {
				logErrf("Failed to open battle history db: %v\n", err)
				return err
			}
			defer st.Close()

			report, err := stats.BuildReport(cmd.Context(), st, f, last)
			if err != nil {
				logErrf("Failed to build report: %v\n", err)
				return err
			}
			if len(report.Battles) == 0 {
				fmt.Println("No battles recorded yet. Play one with `typeclash`.")
				return nil
			}

			width := stats.TerminalWidth(int(os.Stdout.Fd()), 80)
			if err := stats.RenderSummary(os.Stdout, report.Battles); err != nil {
				return err
			}
			fmt.Println()
			if err := stats.RenderBattleTable(os.Stdout, report.Battles); err != nil {
				return err
			}
			fmt.Println()
			return stats.RenderTrends(os.Stdout, report.Battles, trendWindow, width)
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "only battles at this difficulty")
	cmd.Flags().StringVar(&since, "since", "", "only battles on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&last, "last", 20, "number of recent battles to show")
	cmd.Flags().IntVar(&trendWindow, "trend-window", 5, "moving-average window for trend lines")

	return cmd
}

func logErrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}

func logErrln(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}
