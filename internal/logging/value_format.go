package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// byteSize marks an integer attribute as a size. The console renders it
// humanized, JSON sinks keep the raw count.
type byteSize int64

const redacted = "********"

// sensitiveKeys never reach a sink in clear text.
var sensitiveKeys = map[string]bool{
	"secret_key": true,
	"access_key": true,
	"password":   true,
}

func isSensitive(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	return sensitiveKeys[strings.ToLower(key)]
}

// plainValue renders v for humans. Sizes are humanized and durations use
// FormatDuration.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return FormatDuration(v.Duration())
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	}
	switch x := v.Any().(type) {
	case byteSize:
		if x < 0 {
			return "0 B"
		}
		return humanize.IBytes(uint64(x))
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// quotedValue is plainValue quoted when the result would break key=value parsing.
func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
