package auth

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var authTracer = otel.Tracer("catalog/auth")

// CheckAccess authorizes action and turns a denial into *NotAuthorized.
// It loads the acting user into c.AuthUserObj once so later checks on the same context reuse it;
// a user that does not exist is remembered and not looked up again.
func (r *Resolver) CheckAccess(ctx context.Context, action string, c *Context, data DataDict) error {
	ctx, span := authTracer.Start(ctx, "CheckAccess",
		trace.WithAttributes(
			attribute.String("action", NormalizeAction(action)),
		),
	)
	defer span.End()

	if c == nil {
		c = &Context{}
	}

	if !c.IgnoreAuth && c.User != "" && !c.attached() && c.missingUser != c.User {
		u, err := ContextUser(ctx, c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load user")
			return err
		}
		c.AuthUserObj = u
		if u == nil {
			c.missingUser = c.User
		}
	}

	span.SetAttributes(
		attribute.Bool("anonymous", !c.attached()),
		attribute.Bool("ignore_auth", c.IgnoreAuth),
	)

	res, err := r.IsAuthorized(ctx, action, c, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authorization check failed")
		return err
	}
	if !res.Success {
		span.SetAttributes(attribute.Bool("authorized", false))
		return &NotAuthorized{Action: NormalizeAction(action), Msg: res.Msg}
	}

	span.SetAttributes(attribute.Bool("authorized", true))
	span.SetStatus(codes.Ok, "authorized")
	return nil
}
