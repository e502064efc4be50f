// Package script runs the deployment scripts shipped inside packages.
package script

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"nudeploy/internal/config"
	"nudeploy/internal/logger"
	"nudeploy/internal/result"
	"nudeploy/internal/utils"
)

// EnvPrefix prefixes the environment variable exported for every parameter
const EnvPrefix = "NUDEPLOY_"

const outputTailLines = 20

// CommandData is the data available to the interpreter and args templates
type CommandData struct {
	Interpreter string
	Script      string
	Folder      string
}

type Runner struct {
	interpreter string
	args        []string
	output      io.Writer
}

func NewRunner(cfg config.ScriptConfig) *Runner {
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "sh"
	}
	args := cfg.Args
	if len(args) == 0 {
		args = []string{"{{.Script}}"}
	}
	return &Runner{interpreter: interpreter, args: args}
}

// SetOutput mirrors the script output to w
func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

/**
 * Run a package script
 * @param {string} scriptPath - Script file inside the package folder
 * @param {map[string]string} params - Parameters, passed as "-Key Value" and as NUDEPLOY_<KEY>
 * @returns {*result.Result} Success, or Failure with the exit code and the output tail
 * @description
 * - The working directory is the folder of the script
 * - Parameters are appended in key order
 */
func (r *Runner) Execute(ctx context.Context, scriptPath string, params map[string]string) *result.Result {
	name := filepath.Base(scriptPath)
	data := CommandData{Interpreter: r.interpreter, Script: scriptPath, Folder: filepath.Dir(scriptPath)}
	program, args, err := utils.GetCommandLine(r.interpreter, r.args, data)
	if err != nil {
		return result.NewFailure("script '%s': %v", name, err)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := os.Environ()
	for _, k := range keys {
		args = append(args, "-"+k, params[k])
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+params[k])
	}

	var captured bytes.Buffer
	var w io.Writer = &captured
	if r.output != nil {
		w = io.MultiWriter(&captured, r.output)
	}
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = data.Folder
	cmd.Env = env
	cmd.Stdout = w
	cmd.Stderr = w

	logger.Infof("Script: running %s %s", program, strings.Join(args, " "))
	err = cmd.Run()
	tail := lastLines(captured.String(), outputTailLines)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Errorf("Script: '%s' was cancelled: %v\n%s", name, ctxErr, tail)
			return result.NewFailure("script '%s' was cancelled: %v", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Errorf("Script: '%s' exited with code %d\n%s", name, exitErr.ExitCode(), tail)
			failure := result.NewFailure("script '%s' exited with code %d", name, exitErr.ExitCode())
			if tail != "" {
				failure = failure.WithCause(result.NewFailure("%s", tail))
			}
			return failure
		}
		logger.Errorf("Script: '%s' could not be started: %v", name, err)
		return result.NewFailure("script '%s' could not be started: %v", name, err)
	}
	logger.Debugf("Script: '%s' output:\n%s", name, tail)
	return result.NewSuccess("script '%s' completed", name)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
