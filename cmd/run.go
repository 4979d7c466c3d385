package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/chatlead/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process eligible chat sessions once",
	Long:  "Runs one pipeline invocation: scans the session cache, converts eligible conversations into leads, and prints the per-key outcomes as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Pipeline.RunTimeoutSecs > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Pipeline.RunTimeoutSecs)*time.Second)
			defer cancel()
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx)
		if err != nil {
			if eris.Is(err, pipeline.ErrRunInProgress) {
				cmd.PrintErrln("run already in progress")
			}
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
