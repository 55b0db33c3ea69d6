// Command wcgw is a local debug/smoke-test CLI wiring the dispatcher
// directly to a terminal: a thin harness, not a wire adapter.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wcgw-run/wcgw-go/internal/contract"
	"github.com/wcgw-run/wcgw-go/internal/dispatch"
	"github.com/wcgw-run/wcgw-go/internal/fileops"
	"github.com/wcgw-run/wcgw-go/internal/logger"
	"github.com/wcgw-run/wcgw-go/internal/shellsession"
)

const defaultThreadID = "cli"

func main() {
	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	wb := shellsession.DefaultWaitBudget()
	registry := shellsession.NewRegistry(shellsession.SpawnOptions{Logger: logger.Log}, wb)
	defer registry.Close()

	files, err := fileops.NewWatchingService(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer files.Watcher.Close()
	d := dispatch.New(registry, files, wb, logger.Log)

	root := &cobra.Command{
		Use:   "wcgw",
		Short: "wcgw — agent-facing shell and file-editing runtime",
	}

	root.AddCommand(
		initCmd(d),
		bashCmd(d),
		readCmd(d),
		writeCmd(d),
		editCmd(d),
		imageCmd(d),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd(d *dispatch.Dispatcher) *cobra.Command {
	var mode string
	var taskID string
	cmd := &cobra.Command{
		Use:   "init [workspace-path]",
		Short: "Initialize a workspace (must run before bash/read/write/edit)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			out, err := d.Invoke(context.Background(), contract.InitializeCall{
				Type:             contract.InitFirstCall,
				AnyWorkspacePath: path,
				ModeName:         contract.Mode(mode),
				TaskIDToResume:   taskID,
				ThreadID:         defaultThreadID,
			})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "wcgw", "wcgw, architect, or code_writer")
	cmd.Flags().StringVar(&taskID, "resume", "", "task id to resume")
	return cmd
}

func bashCmd(d *dispatch.Dispatcher) *cobra.Command {
	var background bool
	var bgID string
	var statusCheck bool
	cmd := &cobra.Command{
		Use:   "bash [command]",
		Short: "Run (or poll) a command in the foreground shell",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var action contract.BashCommandAction
			switch {
			case statusCheck:
				action = contract.StatusCheck{BgCommandID: bgID}
			case len(args) > 0:
				action = contract.Command{Command: args[0], IsBackground: background}
			default:
				return fmt.Errorf("provide a command, or pass --status-check")
			}
			out, err := d.Invoke(context.Background(), contract.BashCommandCall{
				Action:   action,
				ThreadID: defaultThreadID,
			})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&background, "background", false, "run as a background shell")
	cmd.Flags().StringVar(&bgID, "bg-id", "", "background shell id to address")
	cmd.Flags().BoolVar(&statusCheck, "status-check", false, "poll instead of sending a new command")
	return cmd
}

func readCmd(d *dispatch.Dispatcher) *cobra.Command {
	return &cobra.Command{
		Use:   "read [path[:start-end]]...",
		Short: "Read one or more files, recording read coverage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := d.Invoke(context.Background(), contract.ReadFilesCall{FilePaths: args, ThreadID: defaultThreadID})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func writeCmd(d *dispatch.Dispatcher) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [path]",
		Short: "Write a file's full content (read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readStdin()
			if err != nil {
				return err
			}
			out, err := d.Invoke(context.Background(), contract.FileWriteOrEditCall{
				FilePath:                  args[0],
				TextOrSearchReplaceBlocks: content,
				PercentageToChange:        100,
				ThreadID:                  defaultThreadID,
			})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	return cmd
}

func editCmd(d *dispatch.Dispatcher) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [path]",
		Short: "Apply SEARCH/REPLACE blocks (read from stdin) to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readStdin()
			if err != nil {
				return err
			}
			out, err := d.Invoke(context.Background(), contract.FileWriteOrEditCall{
				FilePath:                  args[0],
				TextOrSearchReplaceBlocks: blocks,
				PercentageToChange:        1,
				ThreadID:                  defaultThreadID,
			})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	return cmd
}

func imageCmd(d *dispatch.Dispatcher) *cobra.Command {
	return &cobra.Command{
		Use:   "image [path]",
		Short: "Read an image file as a base64 data URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := d.Invoke(context.Background(), contract.ReadImageCall{FilePath: args[0], ThreadID: defaultThreadID})
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func readStdin() (string, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return string(buf), nil
}
