package aws

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/dmcp718/ll-win-client/internal/probe"
)

// notFoundCodes are EC2/SSM error codes meaning the instance is gone.
// These abort polling; everything else is retried within the stage budget.
var notFoundCodes = map[string]bool{
	"InvalidInstanceID.NotFound":  true,
	"InvalidInstanceID.Malformed": true,
	"InvalidInstanceId":           true,
}

// wrapQueryError classifies an API error for the waiter: not-found codes
// become permanent, everything else transient.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && notFoundCodes[apiErr.ErrorCode()] {
		return probe.Permanent(err)
	}
	return probe.Transient(err)
}
