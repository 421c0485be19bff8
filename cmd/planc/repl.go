package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	planc "github.com/planc-lang/planc"
)

const (
	historyFile = ".planc_history"
	promptMain  = "planc> "
	promptCont  = "   ... "
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively build and check a model, one declaration at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

// replSession accumulates declarations; each accepted line recompiles the
// whole buffer so cross-declaration errors surface immediately.
type replSession struct {
	lines []string
}

func (s *replSession) source() string { return strings.Join(s.lines, "\n") }

func runRepl() error {
	fmt.Printf("%s %s - :help for commands\n", appName, Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sess := &replSession{}
	for {
		code, ok := readBalanced(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return nil
			case ":reset":
				sess = &replSession{}
				fmt.Println("session cleared")
			case ":show":
				fmt.Println(sess.source())
			case ":check":
				report(sess.source(), planc.Compile("repl", sess.source()))
			case ":help":
				fmt.Println("  :show   print the accumulated model")
				fmt.Println("  :check  recompile the accumulated model")
				fmt.Println("  :reset  discard the accumulated model")
				fmt.Println("  :quit   exit")
			default:
				fmt.Println("unknown command. Type :help.")
			}
			continue
		}

		candidate := sess.source()
		if candidate != "" {
			candidate += "\n"
		}
		candidate += code

		res := planc.Compile("repl", candidate)
		report(candidate, res)
		if res.Usable() {
			// Keep the line only when the model still compiles, so one
			// typo does not poison the rest of the session.
			sess.lines = append(sess.lines, code)
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

func report(src string, res *planc.Result) {
	if res.Diags.Len() > 0 {
		fmt.Print(planc.RenderAll(res.Diags, src))
	}
	if res.Usable() {
		fmt.Printf("ok: %d type(s), %d action(s), %d goal(s)\n",
			len(res.Domain.Types.Types())-1, len(res.Domain.Actions), len(res.Problem.Goals))
	}
}

// readBalanced keeps prompting until braces, brackets and parentheses
// balance, so a multi-line action body reads as one entry.
func readBalanced(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(promptMain)
		} else {
			line, err = ln.Prompt(promptCont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if balanced(b.String()) {
			return b.String(), true
		}
	}
}

func balanced(src string) bool {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth <= 0
}
