package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lssrv/internal/app"
	"lssrv/internal/config"
)

func main() {
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) == "completion" {
		os.Exit(runCompletion(os.Args[2:]))
	}
	if len(os.Args) > 1 && isHelpArg(strings.TrimSpace(os.Args[1])) {
		fmt.Fprint(os.Stdout, config.HelpText())
		os.Exit(0)
	}

	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			fmt.Fprint(os.Stdout, config.HelpText())
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		fmt.Fprintln(os.Stderr, "run 'lssrv --help' for usage details")
		os.Exit(2)
	}

	cfg, err = config.ApplyFile(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	switch cfg.Command {
	case config.CommandDoctor:
		err = app.RunDoctor(cfg, os.Stdout)
	case config.CommandDryRun:
		err = app.RunDryRun(cfg, os.Stdout)
	default:
		err = app.Run(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "lssrv error: %v\n", err)
		os.Exit(1)
	}
}

func runCompletion(args []string) int {
	if len(args) >= 1 && isHelpArg(args[0]) {
		fmt.Fprint(os.Stdout, completionHelpText())
		return 0
	}
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "argument error: completion accepts zero or one shell argument (bash or zsh)")
		return 2
	}
	shell := "bash"
	if len(args) == 1 {
		shell = strings.ToLower(strings.TrimSpace(args[0]))
	}
	script, err := completionScript(shell)
	if err != nil {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", err)
		return 2
	}
	fmt.Fprint(os.Stdout, script)
	return 0
}

func isHelpArg(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func completionHelpText() string {
	return `lssrv completion

Print shell completion script output for lssrv.

Usage:
  lssrv completion [bash|zsh]

Examples:
  lssrv completion bash > ~/.local/share/bash-completion/completions/lssrv
  mkdir -p ~/.zsh/completions
  lssrv completion zsh > ~/.zsh/completions/_lssrv
`
}

func completionScript(shell string) (string, error) {
	switch shell {
	case "bash":
		return `# bash completion for lssrv
_lssrv_completion() {
  local cur prev words cword
  _init_completion || return
  local commands="report doctor dry-run completion help"
  if [[ ${cword} -eq 1 ]]; then
    COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
    return
  fi
  case "${words[1]}" in
    completion)
      COMPREPLY=( $(compgen -W "bash zsh" -- "${cur}") )
      ;;
    report|doctor|dry-run)
      COMPREPLY=( $(compgen -W "--config --state-file --hide --connect-timeout --command-timeout --ssh-config --identity-file --port --no-color --plain --log-level" -- "${cur}") )
      ;;
    *)
      COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
      ;;
  esac
}
complete -F _lssrv_completion lssrv
`, nil
	case "zsh":
		return `#compdef lssrv
_lssrv() {
  local -a commands
  commands=(
    'report:show the partition availability table (default)'
    'doctor:run non-mutating preflight checks'
    'dry-run:print planned execution order'
    'completion:print shell completion script'
    'help:show help text'
  )
  if (( CURRENT == 2 )); then
    _describe 'command' commands
    return
  fi
  case "${words[2]}" in
    completion)
      _values 'shell' bash zsh
      ;;
    report|doctor|dry-run)
      _values 'flag' --config --state-file --hide --connect-timeout --command-timeout --ssh-config --identity-file --port --no-color --plain --log-level
      ;;
    *)
      _message 'optional ssh target'
      ;;
  esac
}
_lssrv "$@"
`, nil
	default:
		return "", fmt.Errorf("unsupported shell %q (expected bash or zsh)", shell)
	}
}
