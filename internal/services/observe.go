package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/pkg/metrics"
	"github.com/pratik-mahalle/bizrec/internal/pkg/validator"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

var inputs = validator.New()

// checkInput turns failed field rules into a precondition error
func checkInput(in interface{}) error {
	if errs := inputs.Validate(in); len(errs) > 0 {
		return apperrors.Precondition(validator.Summary(errs), errs)
	}
	return nil
}

// call tracks one remote request for logging and metrics
type call struct {
	operation string
	started   time.Time
	log       *logger.Logger
}

func startCall(ctx context.Context, log *logger.Logger, operation string, seq uint64) (context.Context, *call) {
	requestID := uuid.NewString()
	c := &call{
		operation: operation,
		started:   time.Now(),
		log: log.WithFields(map[string]interface{}{
			"operation":  operation,
			"seq":        seq,
			"request_id": requestID,
		}),
	}
	c.log.Debug("request issued")
	return client.WithRequestID(ctx, requestID), c
}

func (c *call) finish(err error) {
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(apperrors.CodeOf(err))
		if outcome == "" {
			outcome = "failure"
		}
	}
	metrics.RecordRemoteRequest(c.operation, outcome, time.Since(c.started))

	if err != nil {
		c.log.WarnWithErr(err, "request failed")
		return
	}
	c.log.Debug("request completed")
}

func (c *call) superseded() {
	metrics.RecordSuperseded(c.operation)
	c.log.Debug("response superseded by a newer request")
}
