// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chasm

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// RequestContext is a lightweight value type carrying a correlation id and a
// custom user-agent string across repository calls.
//
// Cancellation is never carried here; it stays on the context.Context itself.
type RequestContext struct {
	// CorrelationID correlates all backend calls made for one logical request.
	CorrelationID uuid.UUID
	// UserAgent is the custom user-agent string, if any.
	UserAgent string
}

// NewRequestContext returns a new RequestContext with a random correlation id.
func NewRequestContext(userAgent string) (RequestContext, error) {
	correlationID, err := uuid.NewV4()
	if err != nil {
		return RequestContext{}, err
	}
	return RequestContext{
		CorrelationID: correlationID,
		UserAgent:     userAgent,
	}, nil
}

// IsZero returns true if the request context carries nothing.
func (r RequestContext) IsZero() bool {
	return r == RequestContext{}
}

type requestContextKey struct{}

// WithRequestContext returns a child context carrying the given RequestContext.
func WithRequestContext(ctx context.Context, requestContext RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, requestContext)
}

// RequestContextFromContext returns the RequestContext carried by ctx, if any.
func RequestContextFromContext(ctx context.Context) (RequestContext, bool) {
	requestContext, ok := ctx.Value(requestContextKey{}).(RequestContext)
	return requestContext, ok
}
