package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	dasherr "github.com/tristendillon/dashc/core/errors"
)

// PosixShell is looked up on PATH to expand commands the way a user's
// shell would
const PosixShell = "sh"

// Verify expands command, without executing the program, and checks that
// its final argument is exactly text.
func Verify(ctx context.Context, command, text string) error {
	argv, err := Argv(ctx, command)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return dasherr.New(dasherr.ShellRoundTrip, "", "command executes nothing")
	}
	if got := argv[len(argv)-1]; got != text {
		return dasherr.Newf(dasherr.ShellRoundTrip, "",
			"program argument expands to %d bytes, want %d", len(got), len(text))
	}
	return nil
}

// Argv checks that command is one simple command and returns the argument
// vector a shell would execute. Words are expanded by the POSIX sh on PATH;
// without one the in-process interpreter is used, which drops the CR of a
// CRLF pair inside quotes.
func Argv(ctx context.Context, command string) ([]string, error) {
	prog, err := parseSimpleCommand(command)
	if err != nil {
		return nil, err
	}
	if sh, err := exec.LookPath(PosixShell); err == nil {
		return shellArgv(ctx, sh, command)
	}
	return interpArgv(ctx, prog)
}

func parseSimpleCommand(command string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return nil, dasherr.Wrap(dasherr.ShellRoundTrip, "", "command does not parse", err)
	}
	if len(prog.Stmts) != 1 {
		return nil, dasherr.Newf(dasherr.ShellRoundTrip, "", "expected one statement, got %d", len(prog.Stmts))
	}
	stmt := prog.Stmts[0]
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(stmt.Redirs) > 0 || stmt.Background || stmt.Negated {
		return nil, dasherr.New(dasherr.ShellRoundTrip, "", "command is not a simple command")
	}

	var subst syntax.Node
	syntax.Walk(prog, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.CmdSubst, *syntax.ProcSubst:
			subst = node
		}
		return subst == nil
	})
	if subst != nil {
		return nil, dasherr.New(dasherr.ShellRoundTrip, "", "command runs a substitution")
	}
	return prog, nil
}

// shellArgv feeds "set -- <command>" to sh on stdin and reads the
// positional parameters back NUL separated
func shellArgv(ctx context.Context, sh, command string) ([]string, error) {
	script := "set -- " + command + "\nprintf '%s\\000' \"$@\"\n"

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, sh)
	c.Stdin = strings.NewReader(script)
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return nil, dasherr.Wrap(dasherr.ShellRoundTrip, "", "command failed to expand: "+strings.TrimSpace(stderr.String()), err)
	}

	out := stdout.String()
	if out == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(out, "\x00"), "\x00"), nil
}

func interpArgv(ctx context.Context, prog *syntax.File) ([]string, error) {
	var argv []string
	capture := func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			argv = append([]string(nil), args...)
			return nil
		}
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron()),
		interp.ExecHandlers(capture),
	)
	if err != nil {
		return nil, err
	}
	if err := runner.Run(ctx, prog); err != nil {
		return nil, dasherr.Wrap(dasherr.ShellRoundTrip, "", "command failed to run", err)
	}
	return argv, nil
}
