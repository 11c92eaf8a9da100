package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/systmms/cfn-keypair/internal/logging"
	"github.com/systmms/cfn-keypair/internal/tags"
	"github.com/systmms/cfn-keypair/pkg/keypair"
)

// Handler adapts the cfn event contract onto the Orchestrator. It is built
// once at cold start and reused across invocations.
type Handler struct {
	orch   *Orchestrator
	logger *logging.Logger
}

// NewHandler wraps an Orchestrator for use with cfn.LambdaWrap.
func NewHandler(orch *Orchestrator, logger *logging.Logger) *Handler {
	return &Handler{orch: orch, logger: logger}
}

// Handle processes one lifecycle event and returns the physical resource id
// plus the attribute map. Returning an error makes cfn.LambdaWrap report the
// transition as FAILED with the error message as reason.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	logger := h.logger.With(event.RequestID)
	logger.Info("%s %s in %s", event.RequestType, event.LogicalResourceID, event.StackID)

	props, err := keypair.Parse(event.ResourceProperties)
	if err != nil {
		return event.PhysicalResourceID, nil, err
	}

	prov := tags.Provenance{
		StackID:   event.StackID,
		StackName: stackNameFromID(event.StackID),
		LogicalID: event.LogicalResourceID,
	}

	// The key pair name doubles as the physical resource id; Name is
	// immutable, so CloudFormation never sees a replacement.
	physicalID := props.Name

	var data map[string]interface{}
	switch event.RequestType {
	case cfn.RequestCreate:
		data, err = h.orch.Create(ctx, prov, props)

	case cfn.RequestUpdate:
		var oldProps *keypair.Properties
		oldProps, err = keypair.Parse(event.OldResourceProperties)
		if err == nil {
			data, err = h.orch.Update(ctx, prov, oldProps, props)
		}

	case cfn.RequestDelete:
		data, err = h.orch.Delete(ctx, props)

	default:
		err = fmt.Errorf("unknown request type %q", event.RequestType)
	}

	if err != nil {
		logger.Error("%s %s failed: %v", event.RequestType, event.LogicalResourceID, err)
		return physicalID, nil, err
	}
	logger.Info("%s %s succeeded", event.RequestType, event.LogicalResourceID)
	return physicalID, data, nil
}

// stackNameFromID extracts the stack name from a stack id of the form
// arn:aws:cloudformation:region:account:stack/stack-name/guid.
func stackNameFromID(stackID string) string {
	parts := strings.Split(stackID, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return stackID
}
