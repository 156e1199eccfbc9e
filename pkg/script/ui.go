package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// args reads the arguments of one ui call. Optional strings accept
// undefined and null; a missing required argument throws a TypeError.
type args struct {
	rt   *goja.Runtime
	verb string
	call goja.FunctionCall
}

func (a args) present(i int) bool {
	v := a.call.Argument(i)
	return !goja.IsUndefined(v) && !goja.IsNull(v)
}

func (a args) require(i int) goja.Value {
	if !a.present(i) {
		panic(a.rt.NewTypeError(fmt.Sprintf("ui.%s: missing argument %d", a.verb, i+1)))
	}
	return a.call.Argument(i)
}

func (a args) str(i int) string   { return a.require(i).String() }
func (a args) integer(i int) int  { return int(a.require(i).ToInteger()) }
func (a args) boolean(i int) bool { return a.require(i).ToBoolean() }

func (a args) optStr(i int) string {
	if !a.present(i) {
		return ""
	}
	return a.call.Argument(i).String()
}

func (a args) optBool(i int, def bool) bool {
	if !a.present(i) {
		return def
	}
	return a.call.Argument(i).ToBoolean()
}

type verbFunc func(a args) interface{}

// verbs maps the script names onto the Tester. Optional parameters follow
// the generated-script defaults: expected is true, context and control
// names are empty.
func (e *Engine) verbs() map[string]verbFunc {
	t := e.tester
	return map[string]verbFunc{
		"back":        func(a args) interface{} { t.Back(); return nil },
		"tap":         func(a args) interface{} { t.Tap(a.str(0), a.optStr(1)); return nil },
		"longtap":     func(a args) interface{} { t.LongTap(a.str(0), a.optStr(1)); return nil },
		"doubletap":   func(a args) interface{} { t.DoubleTap(a.str(0), a.optStr(1)); return nil },
		"fill":        func(a args) interface{} { t.Fill(a.str(0), a.str(1), a.optStr(2)); return nil },
		"selectvalue": func(a args) interface{} { t.SelectValue(a.str(0), a.str(1), a.optStr(2)); return nil },
		"pickdate": func(a args) interface{} {
			t.PickDate(a.str(0), a.integer(1), a.integer(2), a.integer(3), a.optStr(4))
			return nil
		},
		"pickdatetime": func(a args) interface{} {
			t.PickDateTime(a.str(0), a.integer(1), a.integer(2), a.integer(3), a.integer(4), a.integer(5), a.optStr(6))
			return nil
		},
		"picktime": func(a args) interface{} {
			t.PickTime(a.str(0), a.integer(1), a.integer(2), a.optStr(3))
			return nil
		},
		"swipe": func(a args) interface{} { t.Swipe(a.integer(0), a.optStr(1), a.optStr(2)); return nil },
		"wait":  func(a args) interface{} { t.Wait(a.integer(0)); return nil },

		"verifytext": func(a args) interface{} {
			t.VerifyText(a.str(0), a.optBool(1, true), a.optStr(2))
			return nil
		},
		"verifygridrowscount": func(a args) interface{} {
			t.VerifyGridRowsCount(a.str(0), a.integer(1), a.optBool(2, true), a.optStr(3))
			return nil
		},
		"verifycheckbox": func(a args) interface{} {
			t.VerifyCheckbox(a.str(0), a.boolean(1), a.optStr(2))
			return nil
		},
		"verifycontrolvalue": func(a args) interface{} {
			t.VerifyControlValue(a.str(0), a.str(1), a.optBool(2, true), a.optStr(3))
			return nil
		},
		"verifycontrolenabled": func(a args) interface{} {
			t.VerifyControlEnabled(a.str(0), a.optBool(1, true), a.optStr(2))
			return nil
		},
		"verifycontrolvisible": func(a args) interface{} {
			t.VerifyControlVisible(a.str(0), a.optBool(1, true), a.optStr(2))
			return nil
		},
		"verifymsg": func(a args) interface{} { t.VerifyMsg(a.str(0), a.optBool(1, true)); return nil },
		"verifyscreenshot": func(a args) interface{} {
			t.VerifyScreenshot(a.str(0), a.optStr(1), a.optStr(2))
			return nil
		},
		"verifycondition": func(a args) interface{} {
			t.VerifyCondition(a.boolean(0), a.optStr(1))
			return nil
		},
		"tapsystemalertifshown": func(a args) interface{} {
			t.TapSystemAlertIfShown(a.integer(0), a.optStr(1))
			return nil
		},

		"getcheckboxvalue": func(a args) interface{} { return t.GetCheckboxValue(a.str(0), a.optStr(1)) },
		"getcontrolvalue":  func(a args) interface{} { return t.GetControlValue(a.str(0), a.optStr(1)) },
		"getgridrowscount": func(a args) interface{} { return t.GetGridRowsCount(a.str(0), a.optStr(1)) },
		"getmessagetext":   func(a args) interface{} { return t.GetMessageText() },
		"iscontrolvisible": func(a args) interface{} { return t.IsControlVisible(a.str(0), a.optStr(1)) },
		"iscontrolenabled": func(a args) interface{} { return t.IsControlEnabled(a.str(0), a.optStr(1)) },
		"isshowingmessage": func(a args) interface{} { return t.IsShowingMessage() },
	}
}

// uiObject returns the ui global.
func (e *Engine) uiObject() *goja.Object {
	obj := e.runtime.NewObject()
	for name, fn := range e.verbs() {
		name, fn := name, fn
		if err := obj.Set(name, func(call goja.FunctionCall) goja.Value {
			result := fn(args{rt: e.runtime, verb: name, call: call})
			if result == nil {
				return goja.Undefined()
			}
			return e.runtime.ToValue(result)
		}); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set ui.%s: %v", name, err)))
		}
	}

	// failed reports whether any check has failed so far
	obj.Set("failed", func(goja.FunctionCall) goja.Value {
		return e.runtime.ToValue(e.tester.Failed())
	})
	return obj
}
