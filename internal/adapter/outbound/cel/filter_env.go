package cel

import (
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
)

// NewFilterEnvironment creates the CEL environment for forwarding filters.
//
// Variables:
//   - from, to: bare sender and recipient addresses
//   - from_domain, to_domain: their domainparts
//   - subject, body: message content
//   - presence: the recipient's presence status, lower-cased
//
// Functions: glob(pattern, s) for shell-style matching.
func NewFilterEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),

		cel.Variable("from", cel.StringType),
		cel.Variable("to", cel.StringType),
		cel.Variable("from_domain", cel.StringType),
		cel.Variable("to_domain", cel.StringType),
		cel.Variable("subject", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("presence", cel.StringType),

		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p, ok1 := pattern.Value().(string)
					n, ok2 := name.Value().(string)
					if !ok1 || !ok2 {
						return types.Bool(false)
					}
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),
	)
}

// activation builds the variable bindings for one message.
func activation(in gate.FilterInput) map[string]any {
	return map[string]any{
		"from":        in.From,
		"to":          in.To,
		"from_domain": domainOf(in.From),
		"to_domain":   domainOf(in.To),
		"subject":     in.Subject,
		"body":        in.Body,
		"presence":    strings.ToLower(in.Presence),
	}
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
