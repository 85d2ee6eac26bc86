package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/grounding"
	"github.com/ryandumpert/flint/internal/session"
	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ground <contract> [message...]",
		Short: "Prefix a chat message with the contract's analysis summary",
		Long: "Print the message as it would be sent to the assistant: prefixed with the contract " +
			"summary when it is about the contract, unchanged otherwise. The message can be given " +
			"as arguments or piped via stdin.",
		Args: cobra.MinimumNArgs(1),
		Run:  runGround,
	}

	RootCmd.AddCommand(cmd)
}

func runGround(cmd *cobra.Command, args []string) {
	message := messageArg(args[1:])

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sess, err := openSession(cmd.Context(), s, args[0])
	if err != nil {
		exitErr("ground", err)
	}
	fmt.Fprintln(stdout, sess.Ground(message))
}

// newGrounder applies the configured extra keywords.
func newGrounder() *grounding.Grounder {
	return grounding.New(grounding.WithKeywords(cfg.Grounding.ExtraKeywords...))
}

// openSession loads a contract and its issues into a fresh session.
func openSession(ctx context.Context, s store.Store, idOrName string) (*session.Manager, error) {
	a, err := s.LoadAnalysis(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	sess := session.NewManager(newGrounder())
	sess.Open(a.Contract, a.Issues)
	return sess, nil
}

// messageArg joins args, or reads stdin when there are none.
func messageArg(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return strings.TrimRight(string(b), "\n")
	}
	exitErr("message", fmt.Errorf("a message is required (arguments or stdin)"))
	return ""
}
