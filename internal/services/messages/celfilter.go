package msgsvc

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/filedrop-io/courier/internal/spool"
)

// celFilter wraps a compiled CEL program and provides a common evaluator
// used by snapshots and live sessions. When disabled, Eval always returns
// true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("room", cel.StringType),
		cel.Variable("from", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("reply_to", cel.StringType),
		cel.Variable("attachments", cel.IntType),
		// Expose the full record as parsed JSON for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a record. When disabled,
// returns true. Evaluation errors drop the record rather than failing the
// batch.
func (f celFilter) Eval(rec *spool.MessageRecord) bool {
	if !f.enabled {
		return true
	}
	replyTo := ""
	if rec.ReplyTo != nil {
		replyTo = *rec.ReplyTo
	}
	var jsonObj any
	if b, err := rec.Encode(); err == nil {
		_ = json.Unmarshal(b, &jsonObj)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"room":        rec.Room,
		"from":        rec.From,
		"text":        rec.Text,
		"ts_ms":       rec.TS.Time().UnixMilli(),
		"reply_to":    replyTo,
		"attachments": int64(len(rec.Attachments)),
		"json":        jsonObj,
		"now_ms":      time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
