package pipetask

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout renders DD/MM/YYYY hh:mm:ss on a 12-hour clock.
const TimestampLayout = "02/01/2006 03:04:05"

// FormatLogLine renders a task log line: the timestamp followed by every
// argument and a trailing space after each one.
func FormatLogLine(now time.Time, args ...any) string {
	var b strings.Builder
	b.WriteString(now.Format(TimestampLayout))
	b.WriteByte(' ')
	for _, arg := range args {
		b.WriteString(renderArg(arg))
		b.WriteByte(' ')
	}
	return b.String()
}

func renderArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case error:
		return v.Error()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arg); err != nil {
		return fmt.Sprintf("%v", arg)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
