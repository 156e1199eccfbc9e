// Package script runs generated UI test scripts. A script is plain
// JavaScript executed by goja; it drives the application through the global
// ui object, whose functions map one to one onto the uitest verbs.
package script

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/gxtest/uitest/pkg/logger"
	"github.com/gxtest/uitest/pkg/uitest"
)

// Engine wraps a goja runtime bound to one Tester.
type Engine struct {
	runtime    *goja.Runtime
	tester     *uitest.Tester
	ctx        context.Context
	httpClient *http.Client
	variables  map[string]interface{}
	platform   string
	mu         sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithContext cancels a running script when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// WithHTTPClient sets the client used by the http global.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithVariables exposes values under the env global.
func WithVariables(vars map[string]string) Option {
	return func(e *Engine) {
		for k, v := range vars {
			e.variables[k] = v
		}
	}
}

// WithPlatform sets env.platform.
func WithPlatform(platform string) Option {
	return func(e *Engine) { e.platform = platform }
}

// New creates an engine whose ui object drives tester.
func New(tester *uitest.Tester, opts ...Option) *Engine {
	e := &Engine{
		runtime:    goja.New(),
		tester:     tester,
		ctx:        context.Background(),
		httpClient: http.DefaultClient,
		variables:  make(map[string]interface{}),
		platform:   "ios",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.runtime.Set("http", e.httpModule())
	e.runtime.Set("env", e.envObject())
	e.runtime.Set("ui", e.uiObject())
}

// setupConsole routes console output to the run log.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log("console: %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("info", makeConsoleFunc(logger.Info))
	console.Set("debug", makeConsoleFunc(logger.Debug))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	console.Set("error", makeConsoleFunc(logger.Error))
	e.runtime.Set("console", console)
}

// envObject exposes the run variables plus env.platform.
func (e *Engine) envObject() *goja.Object {
	obj := e.runtime.NewObject()
	for k, v := range e.variables {
		obj.Set(k, v)
	}
	obj.DefineAccessorProperty("platform", e.runtime.ToValue(func() string {
		return e.platform
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	return obj
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.variables[name] = value
	e.runtime.Set(name, value)
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(src string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(src)
	if err != nil {
		return nil, scriptError("eval", err)
	}
	return result.Export(), nil
}

// RunFile runs the script stored at path.
func (e *Engine) RunFile(path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided script
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return e.RunScript(filepath.Base(path), string(data))
}

// RunScript compiles and runs src. Failed checks are reported through the
// Tester and do not stop the script; an uncaught exception does, and is
// returned as a *Error.
func (e *Engine) RunScript(name, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	program, err := goja.Compile(name, src, false)
	if err != nil {
		return scriptError(name, err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-e.ctx.Done():
			e.runtime.Interrupt(e.ctx.Err())
		case <-stop:
		}
	}()
	defer e.runtime.ClearInterrupt()

	logger.Info("running script %s", name)
	if _, err := e.runtime.RunProgram(program); err != nil {
		logger.Error("script %s aborted: %v", name, err)
		return scriptError(name, err)
	}
	return nil
}

// Error is an uncaught exception, syntax error or interruption of a script.
type Error struct {
	Script  string
	Message string
	Stack   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Script, e.Message)
}

func scriptError(name string, err error) error {
	out := &Error{Script: name, Message: err.Error()}

	var exc *goja.Exception
	var interrupted *goja.InterruptedError
	switch {
	case errors.As(err, &exc):
		out.Message = exc.Value().String()
		out.Stack = exc.String()
	case errors.As(err, &interrupted):
		out.Message = fmt.Sprintf("interrupted: %v", interrupted.Value())
	}
	return out
}
