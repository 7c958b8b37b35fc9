package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// RequestData carries the pre-validated caller identity. Authorization and
// organization membership are checked in the middleware layer; everything
// below it treats a populated RequestData as proof of access.
type RequestData struct {
	UserID uuid.UUID
	OrgID  *uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, ctxKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(ctxKey{}).(*RequestData)
	return rd
}
