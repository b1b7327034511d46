package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmdbg/internal/debugger"
	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/testutil"
)

// cliResult captures one CLI invocation.
type cliResult struct {
	Stdout string
	Stderr string
	Code   int
}

// testOptions returns options isolated from the process environment.
func testOptions(env map[string]string) *RootOptions {
	if env == nil {
		env = map[string]string{}
	}
	return &RootOptions{
		Env:            env,
		RunIDGenerator: testutil.NewFixedRunID("run-cli-1"),
	}
}

// scriptInput feeds lines to the debugger, echoing prompts like a terminal.
func scriptInput(lines ...string) InputFactory {
	return func(prompt, _ string, out io.Writer) (debugger.LineReader, error) {
		return debugger.NewScriptInput(lines, out, prompt), nil
	}
}

func runCLI(t *testing.T, opts *RootOptions, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(opts, args, &stdout, &stderr)
	return cliResult{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tmdbg <file>", cmd.Use)
	assert.Contains(t, cmd.Long, "break <kind> <value>")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"debug", "validate", "run", "trace", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"probe", "prompt", "history"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestExecute_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"two files", []string{"a.tm", "b.tm"}},
		{"debug without file", []string{"debug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, testOptions(nil), tt.args...)
			assert.Equal(t, ExitUsage, res.Code)
			assert.Equal(t, "[ERR] usage: tmdbg <file>\n", res.Stdout)
		})
	}
}

func TestExecute_LoadFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name string
		path string
		code int
		diag string
	}{
		{"missing file", filepath.Join(dir, "missing.tm"), ExitFileRead, MsgFileRead},
		{"malformed rule", write("bad.tm", testutil.MalformedMachine), ExitParse, MsgParse},
		{"empty file", write("empty.tm", ""), ExitParse, MsgParse},
		{"non-deterministic", write("nd.tm", testutil.NonDeterministicMachine), ExitNonDeterministic, MsgNonDeterministic},
		{"cue schema violation", write("bad.cue", "machine: {head: \"x\"}\n"), ExitParse, MsgParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(nil)
			opts.NewInput = scriptInput("quit")

			res := runCLI(t, opts, tt.path)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, DiagnosticPrefix+tt.diag+"\n", res.Stdout)
		})
	}
}

func TestExecute_OutOfMemory(t *testing.T) {
	saved := loader.MaxLineLength
	loader.MaxLineLength = 16
	t.Cleanup(func() { loader.MaxLineLength = saved })

	path := testutil.WriteMachine(t, "long.tm", strings.Repeat("1", 64)+"\n0\n0\n")

	res := runCLI(t, testOptions(nil), path)
	assert.Equal(t, ExitOutOfMemory, res.Code)
	assert.Equal(t, "[ERR] out of memory\n", res.Stdout)
}

func TestExecute_DebugSession(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)

	tests := []struct {
		name  string
		args  []string
		lines []string
		want  string
	}{
		{
			name:  "step and show",
			args:  []string{path},
			lines: []string{"step", "show", "quit"},
			want:  "esp> step\n0 1 -> 0 0 R\nesp> show\n0|>0<|1|0\nesp> quit\nBye.\n",
		},
		{
			name:  "end of input",
			args:  []string{path},
			lines: nil,
			want:  "esp> \nBye.\n",
		},
		{
			name:  "continue to halt",
			args:  []string{"debug", path},
			lines: []string{"continue", "show"},
			want:  "esp> continue\nmachine stopped in state 0\n0|1|0|1|>_<\n",
		},
		{
			name:  "prompt flag",
			args:  []string{"--prompt", "tm> ", path},
			lines: []string{"bogus", "quit"},
			want:  "tm> bogus\ntm> quit\nBye.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(nil)
			opts.NewInput = scriptInput(tt.lines...)

			res := runCLI(t, opts, tt.args...)
			assert.Equal(t, ExitSuccess, res.Code, res.Stdout)
			assert.Equal(t, tt.want, res.Stdout)
		})
	}
}

func TestExecute_ConfigFromEnv(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)

	opts := testOptions(map[string]string{
		"TMDBG_PROMPT":     "(tm) ",
		"TMDBG_PROBE_MODE": "step",
	})
	opts.NewInput = scriptInput("quit")

	res := runCLI(t, opts, path)
	require.Equal(t, ExitSuccess, res.Code)
	assert.Equal(t, "(tm) quit\nBye.\n", res.Stdout)
	assert.Equal(t, engine.ProbeStep, opts.Config.ProbeMode)
}

func TestExecute_ProbeFlagOverridesEnv(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)

	opts := testOptions(map[string]string{"TMDBG_PROBE_MODE": "step"})
	opts.NewInput = scriptInput()

	res := runCLI(t, opts, "--probe", "scan", path)
	require.Equal(t, ExitSuccess, res.Code)
	assert.Equal(t, engine.ProbeScan, opts.Config.ProbeMode)
}

func TestExecute_InvalidGlobalFlags(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "xml", path}, `[ERR] invalid format "xml"`},
		{"probe", []string{"--probe", "sometimes", path}, `[ERR] invalid probe mode "sometimes"`},
		{"unknown flag", []string{"--nope", path}, "[ERR] unknown flag: --nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, testOptions(nil), tt.args...)
			assert.Equal(t, ExitUsage, res.Code)
			assert.True(t, strings.HasPrefix(res.Stdout, tt.want), res.Stdout)
		})
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)

	res := runCLI(t, testOptions(map[string]string{"TMDBG_LOG_LEVEL": "loud"}), path)
	assert.Equal(t, ExitFailure, res.Code)
	assert.Equal(t, "[ERR] invalid configuration\n", res.Stdout)
}

func TestExecute_LogFile(t *testing.T) {
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)
	logPath := filepath.Join(t.TempDir(), "tmdbg.log")

	opts := testOptions(map[string]string{"TMDBG_LOG_FILE": logPath})
	opts.NewInput = scriptInput("step", "quit")

	res := runCLI(t, opts, "--verbose", path)
	require.Equal(t, ExitSuccess, res.Code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"machine loaded"`)
	assert.Contains(t, string(data), `"msg":"step"`)
	assert.Contains(t, res.Stderr, "msg=\"machine loaded\"")
}

func TestExecute_FileNamedLikeSubcommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	res := runCLI(t, testOptions(nil), "run")
	assert.NotEqual(t, ExitSuccess, res.Code, "without a file, run is the subcommand")

	for _, name := range []string{"run", "help"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(testutil.FlipMachine), 0o644))

		opts := testOptions(nil)
		opts.NewInput = scriptInput("quit")
		res := runCLI(t, opts, name)
		assert.Equal(t, ExitSuccess, res.Code, res.Stdout)
		assert.Equal(t, "esp> quit\nBye.\n", res.Stdout, name)
	}
}

func TestRouteFileArgument(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.Mkdir("trace", 0o755))
	require.NoError(t, os.WriteFile("test", []byte(testutil.FlipMachine), 0o644))

	root := NewRootCommand()
	assert.Equal(t, []string{"debug", "--", "test"}, routeFileArgument(root, []string{"test"}))
	assert.Equal(t, []string{"trace"}, routeFileArgument(root, []string{"trace"}), "directories are not machines")
	assert.Equal(t, []string{"flip.tm"}, routeFileArgument(root, []string{"flip.tm"}))
	assert.Equal(t, []string{"test", "x"}, routeFileArgument(root, []string{"test", "x"}))
}
