package builtins

import (
	"net/url"
	"strings"

	"dsq/internal/ops"
	"dsq/internal/value"
)

func registerString(r map[string]ops.BuiltinFunc) {
	r["split"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("split", "expects exactly 1 argument")
		}
		sep, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		parts := strings.Split(input.AsString(), sep.AsString())
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.Array(out), nil
	}

	r["join"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("join", "expects exactly 1 argument")
		}
		sep, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		arr := input.AsArray()
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = v.String()
		}
		return value.String(strings.Join(parts, sep.AsString())), nil
	}

	r["ascii_upcase"] = str1(strings.ToUpper)
	r["ascii_downcase"] = str1(strings.ToLower)
	r["ltrimstr"] = strArg(func(s, arg string) string {
		return strings.TrimPrefix(s, arg)
	})
	r["rtrimstr"] = strArg(func(s, arg string) string {
		return strings.TrimSuffix(s, arg)
	})
	r["startswith"] = strPred(strings.HasPrefix)
	r["endswith"] = strPred(strings.HasSuffix)

	r["to_string"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		return value.String(input.String()), nil
	}

	r["buffer"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		// Materializes an ArrayIteration's fan-out back into a single Array,
		// the filter-language equivalent of jq's `[...]` collector used when
		// a builtin needs its argument realized eagerly rather than streamed.
		arr, err := toArray(ctx, input)
		if err != nil {
			return value.Null(), err
		}
		return value.Array(arr), nil
	}

	r["dos2unix"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		s := strings.ReplaceAll(input.AsString(), "\r\n", "\n")
		return value.String(s), nil
	}

	r["pluralize"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("pluralize", "expects exactly 1 argument (count)")
		}
		n, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		word := input.AsString()
		if n.AsInt() == 1 {
			return value.String(word), nil
		}
		return value.String(pluralForm(word)), nil
	}

	r["url_encode"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if input.Kind() != value.KindString {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), ops.NewError("url_encode", "input must be a string, got %s", input.Kind())
			}
			return input, nil
		}
		return value.String(url.QueryEscape(input.AsString())), nil
	}

	r["url_decode"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if input.Kind() != value.KindString {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), ops.NewError("url_decode", "input must be a string, got %s", input.Kind())
			}
			return input, nil
		}
		decoded, err := url.QueryUnescape(input.AsString())
		if err != nil {
			if ctx.Mode == ops.ModeStrict {
				return value.Null(), ops.NewError("url_decode", "%v", err)
			}
			return input, nil
		}
		return value.String(decoded), nil
	}

	// url_parse raises under every error mode (spec §9's Open Question:
	// one policy per helper, documented in DESIGN.md) since a caller that
	// asked to decompose a URL into its parts has no sensible fallback
	// value for a string that isn't one.
	r["url_parse"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		u, err := url.Parse(input.AsString())
		if err != nil {
			return value.Null(), ops.NewError("url_parse", "%v", err)
		}
		b := value.NewObjectBuilder()
		b.Set("scheme", value.String(u.Scheme))
		b.Set("host", value.String(u.Hostname()))
		b.Set("port", value.String(u.Port()))
		b.Set("path", value.String(u.Path))
		b.Set("query", value.String(u.RawQuery))
		b.Set("fragment", value.String(u.Fragment))
		return b.Build(), nil
	}

	// The remaining url_* helpers fall back to returning the input
	// unchanged on an unparseable URL (per the Open Question decision),
	// since each is a best-effort rewrite rather than a required
	// decomposition.
	r["url_extract_domain_without_www"] = urlRewrite(func(u *url.URL) {
		u.Host = strings.TrimPrefix(u.Hostname(), "www.")
	}, func(u *url.URL) string { return u.Hostname() })

	r["url_set_protocol"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("url_set_protocol", "expects exactly 1 argument")
		}
		proto, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		return urlRewrite(func(u *url.URL) { u.Scheme = proto.AsString() }, (*url.URL).String)(ctx, input, nil)
	}

	r["url_set_query_string"] = func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("url_set_query_string", "expects exactly 1 argument")
		}
		q, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		return urlRewrite(func(u *url.URL) { u.RawQuery = q.AsString() }, (*url.URL).String)(ctx, input, nil)
	}

	r["url_strip_fragment"] = urlRewrite(func(u *url.URL) { u.Fragment = "" }, (*url.URL).String)
	r["url_strip_protocol"] = urlRewrite(func(u *url.URL) { u.Scheme = "" }, func(u *url.URL) string {
		return strings.TrimPrefix(u.String(), "//")
	})
	r["url_strip_query_string"] = urlRewrite(func(u *url.URL) { u.RawQuery = "" }, (*url.URL).String)
}

// urlRewrite builds a url_* builtin that parses the input, applies mutate,
// renders with render, and falls back to returning the input string
// unchanged if it doesn't parse as a URL at all.
func urlRewrite(mutate func(*url.URL), render func(*url.URL) string) ops.BuiltinFunc {
	return func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		u, err := url.Parse(input.AsString())
		if err != nil {
			return input, nil
		}
		mutate(u)
		return value.String(render(u)), nil
	}
}

func pluralForm(word string) string {
	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !strings.ContainsRune("aeiou", rune(word[len(word)-2])):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"):
		return word + "es"
	default:
		return word + "s"
	}
}

func str1(fn func(string) string) ops.BuiltinFunc {
	return func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		return value.String(fn(input.AsString())), nil
	}
}

func strArg(fn func(s, arg string) string) ops.BuiltinFunc {
	return func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("string", "expects exactly 1 argument")
		}
		arg, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		return value.String(fn(input.AsString(), arg.AsString())), nil
	}
}

func strPred(fn func(s, arg string) bool) ops.BuiltinFunc {
	return func(ctx *ops.Context, input value.Value, args []ops.Operation) (value.Value, error) {
		if len(args) != 1 {
			return value.Null(), ops.NewError("string", "expects exactly 1 argument")
		}
		arg, err := ops.ApplyOne(ctx, args[0], input)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(fn(input.AsString(), arg.AsString())), nil
	}
}
