package cli

import (
	"fmt"
	"os"

	"github.com/JayabrataBasu/chql/internal/config"
	"github.com/JayabrataBasu/chql/internal/logger"
	"github.com/JayabrataBasu/chql/pkg/engine"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
)

// RunOnce executes every statement in sqlText against a fresh session
// and prints each result, for non-interactive use (`chql exec -q "..."`).
// settings may be nil, in which case the session uses engineopts.Default().
func RunOnce(cfg *config.Config, log *logger.Logger, settings *engineopts.Options, sqlText string) error {
	if settings == nil {
		settings = engineopts.Default()
	}
	session := engine.New(engine.WithLogger(log), engine.WithEngineOptions(settings))

	results, err := session.ExecuteMany(sqlText)
	for _, res := range results {
		if len(res.Columns) == 0 {
			fmt.Printf("OK, %d row(s) affected\n", res.AffectedCount)
			continue
		}
		printResultTable(res)
		fmt.Printf("(%d row(s))\n", len(res.Rows))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
