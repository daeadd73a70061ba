// Package fetch composes the canonical untrusted-source pipeline: perform a
// request through the transport capability, gate on the status code, parse
// the body through the raw-tree capability, and validate the tree against a
// schema. Every failure mode is a distinct typed fault on the effect's
// error channel: transport.Fault, *transport.StatusFault,
// *rawtree.SyntaxFault, *schema.ValidationFailure.
package fetch

import (
	"context"

	"github.com/tidemill/effectum/effect"
	"github.com/tidemill/effectum/rawtree"
	"github.com/tidemill/effectum/schema"
	"github.com/tidemill/effectum/transport"
)

// Request describes one transport invocation as an effect. The description
// is inert until run; each run performs exactly one request.
func Request(target transport.Target) effect.Effect[transport.Response] {
	return effect.Call(transport.CapabilityName,
		func(ctx context.Context, tr transport.Transport) (transport.Response, error) {
			return tr.Request(ctx, target)
		},
	)
}

// ExpectStatus fails responses outside [200, 300) with a StatusFault and
// passes the raw body through otherwise.
func ExpectStatus(e effect.Effect[transport.Response]) effect.Effect[[]byte] {
	return effect.FlatMap(e, func(resp transport.Response) effect.Effect[[]byte] {
		if resp.Status < 200 || resp.Status >= 300 {
			return effect.FailWith[[]byte](&transport.StatusFault{Status: resp.Status})
		}
		return effect.Pure(resp.Body)
	})
}

// ParseBody decodes raw bytes into a loosely-typed tree through the raw-tree
// capability; an unparseable body fails with a SyntaxFault.
func ParseBody(e effect.Effect[[]byte]) effect.Effect[rawtree.Tree] {
	return effect.FlatMap(e, func(body []byte) effect.Effect[rawtree.Tree] {
		return effect.Call(rawtree.CapabilityName,
			func(_ context.Context, p rawtree.Parser) (rawtree.Tree, error) {
				return p.ParseBytes(body)
			},
		)
	})
}

// JSON is the full pipeline: request, status gate, parse, validate.
func JSON[T any](target transport.Target, s schema.Parser[T]) effect.Effect[T] {
	return effect.ValidateWith(ParseBody(ExpectStatus(Request(target))), s)
}
