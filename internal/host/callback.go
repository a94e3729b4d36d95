package host

// AsCallback adapts the callable shapes accepted as element callbacks.
// It reports false for nil and for values that cannot be called.
func AsCallback(v any) (Callback, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, false
	case Callback:
		return fn, fn != nil
	case func(args []any, kwargs map[string]any) any:
		return Callback(fn), fn != nil
	case func(args []any, kwargs map[string]any):
		if fn == nil {
			return nil, false
		}
		return func(args []any, kwargs map[string]any) any {
			fn(args, kwargs)
			return nil
		}, true
	case func(args ...any) any:
		if fn == nil {
			return nil, false
		}
		return func(args []any, _ map[string]any) any {
			return fn(args...)
		}, true
	case func(args ...any):
		if fn == nil {
			return nil, false
		}
		return func(args []any, _ map[string]any) any {
			fn(args...)
			return nil
		}, true
	case func() any:
		if fn == nil {
			return nil, false
		}
		return func([]any, map[string]any) any { return fn() }, true
	case func():
		if fn == nil {
			return nil, false
		}
		return func([]any, map[string]any) any {
			fn()
			return nil
		}, true
	}
	return nil, false
}
