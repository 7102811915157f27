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

package chasmrepositorydisk

import (
	"context"
	"os"

	"github.com/bufbuild/chasm/chasm"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// retry runs operation, retrying transient file errors with a fixed delay.
//
// Another process holding an object or ref file open can make opens and
// renames fail transiently. Not-exist errors are never transient here: the
// read paths map them to absence.
func (b *backend) retry(ctx context.Context, operation func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attempt := 0
	return backoff.Retry(
		func() error {
			err := operation()
			if err == nil {
				return nil
			}
			if os.IsNotExist(err) {
				return backoff.Permanent(err)
			}
			attempt++
			if attempt <= b.retryAttempts {
				b.logger.Debug(
					"retrying file operation",
					append(
						requestContextFields(ctx),
						zap.Int("attempt", attempt),
						zap.Error(err),
					)...,
				)
			}
			return err
		},
		backoff.WithContext(
			backoff.WithMaxRetries(
				backoff.NewConstantBackOff(b.retryDelay),
				uint64(b.retryAttempts),
			),
			ctx,
		),
	)
}

func requestContextFields(ctx context.Context) []zap.Field {
	requestContext, ok := chasm.RequestContextFromContext(ctx)
	if !ok {
		return nil
	}
	fields := []zap.Field{
		zap.String("correlation_id", requestContext.CorrelationID.String()),
	}
	if requestContext.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", requestContext.UserAgent))
	}
	return fields
}
