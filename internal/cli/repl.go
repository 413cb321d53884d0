// Package cli provides the interactive shell for chql.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/JayabrataBasu/chql/internal/config"
	"github.com/JayabrataBasu/chql/internal/logger"
	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/engine"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
)

// REPL implements the Read-Eval-Print Loop for chql.
type REPL struct {
	config  *config.Config
	log     *logger.Logger
	session *engine.Session
	rl      *readline.Instance
}

// NewREPL creates a new REPL instance backed by a fresh engine Session.
// settings may be nil, in which case the session uses engineopts.Default().
func NewREPL(cfg *config.Config, log *logger.Logger, settings *engineopts.Options) *REPL {
	if settings == nil {
		settings = engineopts.Default()
	}
	return &REPL{
		config:  cfg,
		log:     log,
		session: engine.New(engine.WithLogger(log), engine.WithEngineOptions(settings)),
	}
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	rlConfig := &readline.Config{
		Prompt:          r.config.REPL.Prompt,
		HistoryFile:     expandHome(r.config.REPL.HistoryFile),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	var multilineBuffer strings.Builder
	inMultiline := false

	for {
		if inMultiline {
			rl.SetPrompt(strings.Repeat(" ", len(r.config.REPL.Prompt)-3) + "-> ")
		} else {
			rl.SetPrompt(r.config.REPL.Prompt)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if inMultiline {
				multilineBuffer.Reset()
				inMultiline = false
				fmt.Println("^C")
				continue
			}
			continue
		} else if err == io.EOF {
			fmt.Println("\nGoodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		multilineBuffer.WriteString(line)
		fullInput := multilineBuffer.String()

		if strings.HasPrefix(fullInput, "\\") || strings.HasSuffix(fullInput, ";") {
			result := r.processCommand(strings.TrimSuffix(fullInput, ";"))
			if result == commandExit {
				fmt.Println("Goodbye!")
				return nil
			}
			multilineBuffer.Reset()
			inMultiline = false
		} else {
			multilineBuffer.WriteString(" ")
			inMultiline = true
		}
	}
}

type commandResult int

const (
	commandOK commandResult = iota
	commandExit
	commandError
)

func (r *REPL) processCommand(input string) commandResult {
	input = strings.TrimSpace(input)
	upperInput := strings.ToUpper(input)

	if strings.HasPrefix(input, "\\") {
		return r.handleBackslashCommand(input)
	}

	switch upperInput {
	case "EXIT", "QUIT", "\\Q":
		return commandExit
	case "HELP", "\\?", "\\HELP":
		r.printHelp()
		return commandOK
	}

	return r.runSQL(input)
}

func (r *REPL) runSQL(input string) commandResult {
	res, err := r.session.Execute(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return commandError
	}
	if len(res.Columns) == 0 {
		fmt.Printf("OK, %d row(s) affected\n", res.AffectedCount)
		return commandOK
	}
	printResultTable(res)
	fmt.Printf("(%d row(s))\n", len(res.Rows))
	return commandOK
}

func printResultTable(res *engine.QueryResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	names := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func formatValue(v catalog.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}

func (r *REPL) handleBackslashCommand(input string) commandResult {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return commandOK
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "\\q", "\\quit", "\\exit":
		return commandExit

	case "\\?", "\\help":
		r.printHelp()
		return commandOK

	case "\\dt", "\\tables":
		for _, name := range r.session.ListTables() {
			fmt.Println(name)
		}
		return commandOK

	case "\\d":
		if len(parts) > 1 {
			return r.runSQL(fmt.Sprintf("EXPLAIN SELECT * FROM %s", parts[1]))
		}
		fmt.Println("Usage: \\d <table_name>")
		return commandOK

	case "\\status":
		r.printStatus()
		return commandOK

	case "\\config":
		r.printConfig()
		return commandOK

	case "\\clear":
		fmt.Print("\033[H\033[2J")
		return commandOK

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type \\? for help")
		return commandError
	}
}

func (r *REPL) printWelcome() {
	fmt.Println(`
  ____ _   _  ___  _
 / ___| | | |/ _ \| |
| |   | |_| | | | | |
| |___|  _  | |_| | |___
 \____|_| |_|\__\_\_____|

    chql - an in-memory, ClickHouse-flavored SQL engine
    Type HELP; or \? for available commands
    `)
}

func (r *REPL) printHelp() {
	fmt.Println(`
chql Commands
=============

SQL Commands:
  SELECT ... FROM ... [WHERE] [GROUP BY] [ORDER BY] [LIMIT]
  INSERT INTO table [(cols)] VALUES (...) | SELECT ...
  UPDATE table SET ... [WHERE]
  DELETE FROM table [WHERE]
  CREATE TABLE name (columns...)
  DROP TABLE name
  SHOW TABLES
  EXPLAIN <statement>

Backslash Commands:
  \dt, \tables                     List all tables
  \d <table>                       Describe a table
  \status                          Show session status
  \config                          Show configuration
  \clear                           Clear screen
  \?, \help                        Show this help
  \q, \quit                        Exit

Other:
  EXIT; or QUIT;                   Exit the shell
  HELP;                            Show this help

Note: Commands must end with ; (semicolon)
      Backslash commands do not need ;`)
}

func (r *REPL) printStatus() {
	fmt.Println("\nchql session status")
	fmt.Println("====================")
	fmt.Printf("Tables:     %d\n", len(r.session.ListTables()))
	fmt.Printf("Log Level:  %s\n", r.config.Log.Level)
	fmt.Println()
}

func (r *REPL) printConfig() {
	fmt.Println("\nCurrent Configuration")
	fmt.Println("=====================")
	fmt.Printf("REPL:\n")
	fmt.Printf("  Prompt:           %q\n", r.config.REPL.Prompt)
	fmt.Printf("  Output Format:    %s\n", r.config.REPL.OutputFormat)
	fmt.Printf("\nLogging:\n")
	fmt.Printf("  Level:            %s\n", r.config.Log.Level)
	fmt.Printf("  Format:           %s\n", r.config.Log.Format)
	fmt.Printf("  Output:           %s\n", r.config.Log.Output)
	fmt.Println()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// newCompleter creates an auto-completer for the REPL.
func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT"),
		readline.PcItem("UPDATE"),
		readline.PcItem("DELETE"),
		readline.PcItem("CREATE",
			readline.PcItem("TABLE"),
		),
		readline.PcItem("DROP",
			readline.PcItem("TABLE"),
		),
		readline.PcItem("SHOW",
			readline.PcItem("TABLES"),
		),
		readline.PcItem("EXPLAIN"),
		readline.PcItem("HELP"),
		readline.PcItem("EXIT"),
		readline.PcItem("QUIT"),
		readline.PcItem("\\dt"),
		readline.PcItem("\\d"),
		readline.PcItem("\\status"),
		readline.PcItem("\\config"),
		readline.PcItem("\\clear"),
		readline.PcItem("\\help"),
		readline.PcItem("\\q"),
	)
}
